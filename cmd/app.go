package cmd

import (
	"context"

	"hugo-drive-sync/pkg/services"
)

type app struct {
	store  *services.FileStore
	runner *services.Runner
	index  *services.ArticleIndex
}

func newApp(ctx context.Context) (*app, error) {
	drive, err := services.NewDriveClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store := services.NewFileStore(cfg.OutputDir)
	images := services.NewImageTranscoder(cfg, log)
	processor := services.NewProcessor(drive, store, images, cfg.Location(), log)

	return &app{
		store:  store,
		runner: services.NewRunner(cfg, drive, store, processor, log),
		index:  services.NewArticleIndex(store, cfg.RepoPath, cfg.CacheConcurrency, log),
	}, nil
}
