package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hugo-drive-sync/pkg/models"
)

func TestArticleIndex_ListsAndInvalidates(t *testing.T) {
	repo := t.TempDir()
	store := NewFileStore(filepath.Join(repo, "content", "posts"))
	require.NoError(t, store.Save(&models.LocalArticle{
		FileID: "a",
		FrontMatter: models.FrontMatter{
			models.KeyTitle:        "First",
			models.KeyDraft:        false,
			models.KeyModifiedTime: "t1",
		},
	}))

	index := NewArticleIndex(store, repo, 4, zerolog.Nop())
	articles, err := index.Articles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "a", articles[0].FileID)
	assert.Equal(t, "First", articles[0].Title)
	assert.False(t, articles[0].Draft)
	assert.Equal(t, "t1", articles[0].ModifiedTime)
	assert.Equal(t, "content/posts/a.md", articles[0].Path)

	require.NoError(t, store.Save(&models.LocalArticle{
		FileID:      "b",
		FrontMatter: models.FrontMatter{models.KeyDraft: true},
	}))

	cached, err := index.Articles(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 1, "served from cache until invalidated")

	index.Invalidate()
	articles, err = index.Articles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "b", articles[1].FileID)
	assert.Equal(t, "b", articles[1].Title)
	assert.True(t, articles[1].Draft)
}

func TestParsePorcelain(t *testing.T) {
	out := " M content/posts/a.md\n?? content/posts/new.md\nR  old.md -> content/posts/renamed.md\n"
	dirty := parsePorcelain(out)

	assert.True(t, dirty["content/posts/a.md"])
	assert.True(t, dirty["content/posts/new.md"])
	assert.True(t, dirty["content/posts/renamed.md"])
	assert.False(t, dirty["old.md"])
}
