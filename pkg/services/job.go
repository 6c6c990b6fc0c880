package services

import (
	"context"
	"errors"
	"sync"

	"hugo-drive-sync/pkg/models"
)

var ErrSyncInProgress = errors.New("sync already in progress")

// SyncJob lets the admin server start runs while making sure only one is
// active at a time.
type SyncJob struct {
	runner *Runner
	index  *ArticleIndex

	mu      sync.Mutex
	running bool
	last    *models.RunReport
}

func NewSyncJob(runner *Runner, index *ArticleIndex) *SyncJob {
	return &SyncJob{runner: runner, index: index}
}

// TryRun starts a run unless one is already active, in which case it returns
// ErrSyncInProgress immediately.
func (j *SyncJob) TryRun(ctx context.Context) (*models.RunReport, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	j.running = true
	j.mu.Unlock()

	report, err := j.runner.Run(ctx)

	j.mu.Lock()
	j.running = false
	if report != nil {
		j.last = report
	}
	j.mu.Unlock()

	if j.index != nil {
		j.index.Invalidate()
	}
	return report, err
}

// Last returns the most recent report, or nil before the first run.
func (j *SyncJob) Last() *models.RunReport {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
