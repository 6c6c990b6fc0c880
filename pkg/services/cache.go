package services

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hugo-drive-sync/pkg/models"
)

// ArticleIndex caches the list of synced articles for the admin API. It is
// loaded lazily and dropped by Invalidate after every sync.
type ArticleIndex struct {
	store       ArticlePersistence
	repoPath    string
	concurrency int
	logger      zerolog.Logger

	mu       sync.Mutex
	articles []models.ArticleSummary
	loaded   bool
}

func NewArticleIndex(store ArticlePersistence, repoPath string, concurrency int, logger zerolog.Logger) *ArticleIndex {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ArticleIndex{
		store:       store,
		repoPath:    repoPath,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "ArticleIndex").Logger(),
	}
}

func (i *ArticleIndex) Articles(ctx context.Context) ([]models.ArticleSummary, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.loaded {
		return i.articles, nil
	}

	ids, err := i.store.List()
	if err != nil {
		return nil, err
	}

	dirtyFiles, err := getGitDirtyFiles(ctx, i.repoPath)
	if err != nil {
		i.logger.Debug().Err(err).Msg("git status unavailable, dirty flags omitted")
	}

	articles := make([]models.ArticleSummary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for n, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			articles[n] = i.summarize(id, dirtyFiles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	i.articles = articles
	i.loaded = true
	return i.articles, nil
}

func (i *ArticleIndex) summarize(id string, dirtyFiles map[string]bool) models.ArticleSummary {
	path := i.store.PathFor(id)
	summary := models.ArticleSummary{FileID: id, Path: path, Title: id, Draft: true}

	if rel, err := filepath.Rel(i.repoPath, path); err == nil {
		summary.Path = filepath.ToSlash(rel)
		summary.IsDirty = dirtyFiles[summary.Path]
	}

	article, err := i.store.Load(id)
	if err != nil {
		i.logger.Warn().Err(err).Str("file_id", id).Msg("Could not read article")
		return summary
	}
	if article.Title != "" {
		summary.Title = article.Title
	}
	summary.Draft = article.IsDraft()
	summary.ModifiedTime = article.CacheToken()
	return summary
}

func (i *ArticleIndex) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loaded = false
	i.articles = nil
}

func getGitDirtyFiles(ctx context.Context, dir string) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parsePorcelain(string(out)), nil
}

func parsePorcelain(out string) map[string]bool {
	dirty := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		dirty[strings.Trim(path, "\"")] = true
	}
	return dirty
}
