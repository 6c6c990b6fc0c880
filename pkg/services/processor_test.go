package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hugo-drive-sync/pkg/models"
)

// fakeRemote is an in-memory RemoteDirectory.
type fakeRemote struct {
	mu        sync.Mutex
	docs      []models.RemoteDocument
	bodies    map[string]string
	exportErr map[string]error
	listErr   error
	exports   map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		bodies:    map[string]string{},
		exportErr: map[string]error{},
		exports:   map[string]int{},
	}
}

func (f *fakeRemote) add(doc models.RemoteDocument, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	f.bodies[doc.ID] = body
}

func (f *fakeRemote) ListDocuments(ctx context.Context, folderID string) ([]models.RemoteDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.RemoteDocument(nil), f.docs...), nil
}

func (f *fakeRemote) ExportMarkdown(ctx context.Context, fileID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports[fileID]++
	if err := f.exportErr[fileID]; err != nil {
		return "", err
	}
	body, ok := f.bodies[fileID]
	if !ok {
		return "", fmt.Errorf("no such file %s", fileID)
	}
	return body, nil
}

func (f *fakeRemote) exportCount(fileID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exports[fileID]
}

func remoteDoc(id string) models.RemoteDocument {
	return models.RemoteDocument{
		ID:           id,
		Name:         "Title " + id,
		MimeType:     models.MimeTypeDocument,
		CreatedTime:  "2024-03-01T01:02:03.000Z",
		ModifiedTime: "2024-03-05T10:00:00.000Z",
	}
}

func newTestProcessor(remote RemoteDirectory, store ArticlePersistence) *Processor {
	return NewProcessor(remote, store, newTestTranscoder(), jst, zerolog.Nop())
}

func TestProcessor_NewDocumentIsWritten(t *testing.T) {
	store := NewFileStore(t.TempDir())
	remote := newFakeRemote()
	doc := remoteDoc("doc1")
	remote.add(doc, "Hello `{{< youtube abc >}}`\n\n\\> quoted\n")

	outcome := newTestProcessor(remote, store).Process(context.Background(), doc)

	require.NoError(t, outcome.Err)
	assert.Equal(t, models.StatusUpdated, outcome.Status)
	assert.False(t, outcome.Draft)
	assert.Equal(t, store.PathFor("doc1"), outcome.Path)

	article, err := store.Load("doc1")
	require.NoError(t, err)
	assert.Equal(t, "doc1", article.FrontMatter[models.KeyDriveID])
	assert.Equal(t, doc.ModifiedTime, article.CacheToken())
	assert.Equal(t, "Title doc1", article.Title)
	assert.Equal(t, "Hello {{< youtube abc >}}\n\n> quoted\n", article.Body)
}

func TestProcessor_SkipsUnchangedWithoutExport(t *testing.T) {
	store := NewFileStore(t.TempDir())
	remote := newFakeRemote()
	doc := remoteDoc("doc1")
	remote.add(doc, "body")

	require.NoError(t, store.Save(&models.LocalArticle{
		FileID: "doc1",
		FrontMatter: models.FrontMatter{
			models.KeyDriveID:      "doc1",
			models.KeyModifiedTime: doc.ModifiedTime,
			models.KeyDraft:        true,
		},
		Body: "stored",
	}))

	outcome := newTestProcessor(remote, store).Process(context.Background(), doc)

	assert.Equal(t, models.StatusSkipped, outcome.Status)
	assert.True(t, outcome.Draft)
	assert.Equal(t, 0, remote.exportCount("doc1"))
}

func TestProcessor_ChangedTokenForcesFetch(t *testing.T) {
	store := NewFileStore(t.TempDir())
	remote := newFakeRemote()
	doc := remoteDoc("doc1")
	remote.add(doc, "new body")

	require.NoError(t, store.Save(&models.LocalArticle{
		FileID:      "doc1",
		FrontMatter: models.FrontMatter{models.KeyModifiedTime: "older"},
		Body:        "old body",
	}))

	outcome := newTestProcessor(remote, store).Process(context.Background(), doc)

	assert.Equal(t, models.StatusUpdated, outcome.Status)
	assert.Equal(t, 1, remote.exportCount("doc1"))
	article, err := store.Load("doc1")
	require.NoError(t, err)
	assert.Equal(t, "new body\n", article.Body)
}

func TestProcessor_EmptyRemoteTokenAlwaysFetches(t *testing.T) {
	store := NewFileStore(t.TempDir())
	remote := newFakeRemote()
	doc := remoteDoc("doc1")
	doc.ModifiedTime = ""
	remote.add(doc, "body")

	require.NoError(t, store.Save(&models.LocalArticle{
		FileID:      "doc1",
		FrontMatter: models.FrontMatter{models.KeyModifiedTime: ""},
	}))

	outcome := newTestProcessor(remote, store).Process(context.Background(), doc)

	assert.Equal(t, models.StatusUpdated, outcome.Status)
	assert.Equal(t, 1, remote.exportCount("doc1"))
}

func TestProcessor_ExportFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	remote := newFakeRemote()
	doc := remoteDoc("doc1")
	remote.add(doc, "body")
	remote.exportErr["doc1"] = &RemoteUnavailableError{Op: "export doc1", Attempts: 3, Err: errors.New("503")}

	original := []byte("---\nmodifiedTime: older\n---\nkeep me\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc1.md"), original, 0o644))

	outcome := newTestProcessor(remote, store).Process(context.Background(), doc)

	assert.Equal(t, models.StatusFailed, outcome.Status)
	var unavailable *RemoteUnavailableError
	assert.ErrorAs(t, outcome.Err, &unavailable)

	content, err := os.ReadFile(filepath.Join(dir, "doc1.md"))
	require.NoError(t, err)
	assert.Equal(t, original, content)
}

func TestProcessor_ExportFrontMatterTakesPrecedence(t *testing.T) {
	store := NewFileStore(t.TempDir())
	remote := newFakeRemote()
	doc := remoteDoc("doc1")
	remote.add(doc, "---\ntitle: Custom Title\ndraft: true\ntags: [go]\n---\n\nBody\n")

	outcome := newTestProcessor(remote, store).Process(context.Background(), doc)

	assert.Equal(t, models.StatusUpdated, outcome.Status)
	assert.True(t, outcome.Draft)

	article, err := store.Load("doc1")
	require.NoError(t, err)
	assert.Equal(t, "Custom Title", article.Title)
	assert.Equal(t, []interface{}{"go"}, article.FrontMatter["tags"])
	assert.Equal(t, "Body\n", article.Body)
}

func TestProcessor_MalformedFrontMatterIsKeptAsBody(t *testing.T) {
	store := NewFileStore(t.TempDir())
	remote := newFakeRemote()
	doc := remoteDoc("doc1")
	remote.add(doc, "---\ntitle: [broken\n---\ntext\n")

	outcome := newTestProcessor(remote, store).Process(context.Background(), doc)

	require.Equal(t, models.StatusUpdated, outcome.Status)
	article, err := store.Load("doc1")
	require.NoError(t, err)
	assert.Equal(t, "Title doc1", article.Title)
	assert.Contains(t, article.Body, "title: [broken")
}

func TestProcessor_InvalidIDFails(t *testing.T) {
	store := NewFileStore(t.TempDir())
	outcome := newTestProcessor(newFakeRemote(), store).Process(context.Background(), remoteDoc("../escape"))
	assert.Equal(t, models.StatusFailed, outcome.Status)
	assert.Error(t, outcome.Err)
}
