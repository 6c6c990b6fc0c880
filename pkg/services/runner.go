package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hugo-drive-sync/pkg/config"
	"hugo-drive-sync/pkg/models"
)

// Runner performs one full sync: list, process in parallel, remove orphans and
// update the change marker.
type Runner struct {
	folderID    string
	parallelism int
	markerPath  string
	remote      RemoteDirectory
	store       ArticlePersistence
	processor   *Processor
	logger      zerolog.Logger
}

func NewRunner(cfg config.Config, remote RemoteDirectory, store ArticlePersistence, processor *Processor, logger zerolog.Logger) *Runner {
	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{
		folderID:    cfg.FolderID,
		parallelism: parallelism,
		markerPath:  cfg.MarkerFile,
		remote:      remote,
		store:       store,
		processor:   processor,
		logger:      logger.With().Str("component", "Runner").Logger(),
	}
}

// Run returns an error only when the run could not be carried out as a whole
// (listing failed, cancelled, marker not writable). Per-document failures are
// reported in the RunReport.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	start := time.Now()

	docs, err := r.remote.ListDocuments(ctx, r.folderID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs = dedupeDocuments(docs, r.logger)

	report := &models.RunReport{Listed: len(docs)}
	r.logger.Info().Int("documents", len(docs)).Int("parallelism", r.parallelism).Msg("Processing documents")

	outcomes := r.processAll(ctx, docs)
	if err := ctx.Err(); err != nil {
		report.Outcomes = outcomes
		report.Duration = time.Since(start)
		return report, fmt.Errorf("sync interrupted: %w", err)
	}

	listed := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		listed[doc.ID] = struct{}{}
	}
	outcomes = append(outcomes, r.reconcileLocal(listed)...)

	report.Outcomes = outcomes
	report.ChangeSignal = models.ChangeSignal(outcomes)
	report.Duration = time.Since(start)

	if err := WriteMarker(r.markerPath, report.ChangeSignal); err != nil {
		return report, err
	}

	r.logger.Info().
		Bool("content_updated", report.ChangeSignal).
		Int("updated", report.Count(models.StatusUpdated)).
		Int("skipped", report.Count(models.StatusSkipped)).
		Int("deleted", report.Count(models.StatusDeleted)).
		Int("failed", report.Count(models.StatusFailed)).
		Dur("duration", report.Duration).
		Msg("Sync finished")
	return report, nil
}

func (r *Runner) processAll(ctx context.Context, docs []models.RemoteDocument) []models.Outcome {
	outcomes := make([]models.Outcome, len(docs))

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for i, doc := range docs {
		g.Go(func() error {
			outcomes[i] = r.processor.Process(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// reconcileLocal deletes local articles whose id is no longer listed.
func (r *Runner) reconcileLocal(listed map[string]struct{}) []models.Outcome {
	ids, err := r.store.List()
	if err != nil {
		r.logger.Error().Err(err).Msg("Could not enumerate local articles")
		return []models.Outcome{{Status: models.StatusFailed, Err: err}}
	}

	var outcomes []models.Outcome
	for _, stem := range ids {
		if _, ok := listed[stem]; ok {
			continue
		}

		fileID := stem
		draft := true
		local, err := r.store.Load(stem)
		switch {
		case errors.Is(err, ErrArticleNotFound):
			continue
		case err != nil:
			r.logger.Warn().Err(err).Str("file_id", stem).Msg("Could not read orphaned article, assuming draft")
		case local.Readable:
			draft = local.IsDraft()
			if id := local.FrontMatter.String(models.KeyDriveID); id != "" {
				fileID = id
			}
		default:
			r.logger.Warn().Str("file_id", stem).Msg("Orphaned article has no readable front matter, assuming draft")
		}
		if _, ok := listed[fileID]; ok {
			continue
		}

		outcome := models.Outcome{FileID: fileID, Path: r.store.PathFor(stem), Draft: draft}
		if err := r.store.Delete(stem); err != nil {
			r.logger.Error().Err(err).Str("file_id", fileID).Msg("Failed to delete orphaned article")
			outcome.Status = models.StatusFailed
			outcome.Err = err
		} else {
			r.logger.Info().Str("file_id", fileID).Bool("draft", draft).Msg("Deleted article removed from Drive")
			outcome.Status = models.StatusDeleted
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func dedupeDocuments(docs []models.RemoteDocument, logger zerolog.Logger) []models.RemoteDocument {
	seen := make(map[string]struct{}, len(docs))
	out := docs[:0:0]
	for _, doc := range docs {
		if _, ok := seen[doc.ID]; ok {
			logger.Debug().Str("file_id", doc.ID).Msg("Document listed twice, processing once")
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, doc)
	}
	return out
}

// WriteMarker creates the change marker when changed is true and removes a
// stale one otherwise.
func WriteMarker(path string, changed bool) error {
	if path == "" {
		return nil
	}
	if !changed {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &PersistenceError{Op: "remove marker", Path: path, Err: err}
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &PersistenceError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(path, []byte(stamp), 0o644); err != nil {
		return &PersistenceError{Op: "write marker", Path: path, Err: err}
	}
	return nil
}
