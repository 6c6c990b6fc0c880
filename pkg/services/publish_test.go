package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hugo-drive-sync/pkg/config"
	"hugo-drive-sync/pkg/models"
)

type publishCalls struct {
	builds int
	pushes int
	token  string
}

func newTestPublisher(t *testing.T, pushErr error) (*Publisher, *publishCalls) {
	t.Helper()
	cfg := config.Config{
		RepoPath:   t.TempDir(),
		MarkerFile: filepath.Join(t.TempDir(), ".content-updated"),
		Git:        config.GitConfig{Token: "config-token", Branch: "main"},
	}
	calls := &publishCalls{}
	p := NewPublisher(cfg, zerolog.Nop())
	p.build = func(context.Context, config.Config) (string, error) {
		calls.builds++
		return "built\n", nil
	}
	p.push = func(_ context.Context, _ config.Config, token string) (string, error) {
		calls.pushes++
		calls.token = token
		return "pushed\n", pushErr
	}
	return p, calls
}

func TestPublisher_RequiresMarker(t *testing.T) {
	p, calls := newTestPublisher(t, nil)

	_, err := p.Publish(context.Background(), "", PublishOptions{})
	assert.ErrorIs(t, err, ErrNoContentChange)
	assert.Zero(t, calls.builds)
	assert.Zero(t, calls.pushes)
}

func TestPublisher_BuildsPushesAndConsumesMarker(t *testing.T) {
	p, calls := newTestPublisher(t, nil)
	require.NoError(t, WriteMarker(p.cfg.MarkerFile, true))

	log, err := p.Publish(context.Background(), "", PublishOptions{})
	require.NoError(t, err)

	assert.Equal(t, "built\npushed\n", log)
	assert.Equal(t, 1, calls.builds)
	assert.Equal(t, "config-token", calls.token)
	_, statErr := os.Stat(p.cfg.MarkerFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPublisher_ForceAndSkipBuild(t *testing.T) {
	p, calls := newTestPublisher(t, nil)

	_, err := p.Publish(context.Background(), "session-token", PublishOptions{Force: true, SkipBuild: true})
	require.NoError(t, err)
	assert.Zero(t, calls.builds)
	assert.Equal(t, 1, calls.pushes)
	assert.Equal(t, "session-token", calls.token)
}

func TestPublisher_PushFailureKeepsMarker(t *testing.T) {
	p, _ := newTestPublisher(t, errors.New("rejected"))
	require.NoError(t, WriteMarker(p.cfg.MarkerFile, true))

	_, err := p.Publish(context.Background(), "", PublishOptions{})
	require.Error(t, err)
	assert.FileExists(t, p.cfg.MarkerFile)
}

func TestPublisher_NothingToPublishClearsMarker(t *testing.T) {
	p, _ := newTestPublisher(t, ErrNothingToPublish)
	require.NoError(t, WriteMarker(p.cfg.MarkerFile, true))

	_, err := p.Publish(context.Background(), "", PublishOptions{})
	assert.ErrorIs(t, err, ErrNothingToPublish)
	assert.NoFileExists(t, p.cfg.MarkerFile)
}

func TestSyncJob_RejectsConcurrentRuns(t *testing.T) {
	f := newRunnerFixture(t, 1)
	blocking := &blockingRemote{fakeRemote: f.remote, release: make(chan struct{}), started: make(chan struct{})}
	f.remote.add(remoteDoc("doc1"), "body")

	processor := NewProcessor(blocking, f.store, newTestTranscoder(), jst, zerolog.Nop())
	job := NewSyncJob(NewRunner(f.cfg, blocking, f.store, processor, zerolog.Nop()), nil)

	done := make(chan error, 1)
	go func() {
		_, err := job.TryRun(context.Background())
		done <- err
	}()

	<-blocking.started
	_, err := job.TryRun(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(blocking.release)
	require.NoError(t, <-done)
	require.NotNil(t, job.Last())
	assert.Equal(t, 1, job.Last().Listed)
}

// blockingRemote holds the listing until release is closed.
type blockingRemote struct {
	*fakeRemote
	started chan struct{}
	release chan struct{}
}

func (b *blockingRemote) ListDocuments(ctx context.Context, folderID string) ([]models.RemoteDocument, error) {
	close(b.started)
	<-b.release
	return b.fakeRemote.ListDocuments(ctx, folderID)
}
