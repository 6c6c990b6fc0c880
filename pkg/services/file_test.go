package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hugo-drive-sync/pkg/models"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "content", "posts")
	store := NewFileStore(dir)

	article := &models.LocalArticle{
		FileID: "abc_123",
		FrontMatter: models.FrontMatter{
			models.KeyTitle:        "Hello",
			models.KeyDraft:        true,
			models.KeyDriveID:      "abc_123",
			models.KeyModifiedTime: "token-1",
		},
		Body: "Body",
	}
	require.NoError(t, store.Save(article))
	assert.Equal(t, filepath.Join(dir, "abc_123.md"), article.Path)

	loaded, err := store.Load("abc_123")
	require.NoError(t, err)
	assert.True(t, loaded.Readable)
	assert.Equal(t, "Hello", loaded.Title)
	assert.Equal(t, "token-1", loaded.CacheToken())
	assert.True(t, loaded.IsDraft())
	assert.Equal(t, FormatYAML, loaded.Format)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Load("nothing")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestFileStore_LoadUnreadable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("---\ntitle: [oops\n---\nbody\n"), 0o644))

	loaded, err := NewFileStore(dir).Load("bad")
	require.NoError(t, err)
	assert.False(t, loaded.Readable)
	assert.True(t, loaded.IsDraft())
	assert.Empty(t, loaded.CacheToken())
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Load("../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, store.Save(&models.LocalArticle{FileID: "a/b"}))
	assert.Error(t, store.Delete(".."))
}

func TestFileStore_ListAndDelete(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.md", "a-1.md", "notes.txt", "has space.md", ".a.123.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

	store := NewFileStore(dir)
	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "b"}, ids)

	require.NoError(t, store.Delete("b"))
	require.NoError(t, store.Delete("b"), "deleting twice is not an error")
	_, err = os.Stat(filepath.Join(dir, "b.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_ListMissingDir(t *testing.T) {
	ids, err := NewFileStore(filepath.Join(t.TempDir(), "missing")).List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
