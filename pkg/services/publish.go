package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"hugo-drive-sync/pkg/config"
)

// ErrNoContentChange means the last sync left no change marker.
var ErrNoContentChange = errors.New("no publishable content change")

type PublishOptions struct {
	Force     bool
	SkipBuild bool
}

// Publisher gates deploys on the change marker: build the site, push the
// synced content, then consume the marker.
type Publisher struct {
	cfg    config.Config
	build  func(context.Context, config.Config) (string, error)
	push   func(context.Context, config.Config, string) (string, error)
	logger zerolog.Logger
}

func NewPublisher(cfg config.Config, logger zerolog.Logger) *Publisher {
	return &Publisher{
		cfg:    cfg,
		build:  BuildSite,
		push:   PublishRepo,
		logger: logger.With().Str("component", "Publisher").Logger(),
	}
}

func (p *Publisher) Publish(ctx context.Context, token string, opts PublishOptions) (string, error) {
	if !opts.Force {
		if _, err := os.Stat(p.cfg.MarkerFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", ErrNoContentChange
			}
			return "", fmt.Errorf("check marker: %w", err)
		}
	}
	if token == "" {
		token = p.cfg.Git.Token
	}

	var log strings.Builder
	if !opts.SkipBuild {
		p.logger.Info().Str("source", p.cfg.RepoPath).Msg("Building site")
		out, err := p.build(ctx, p.cfg)
		log.WriteString(out)
		if err != nil {
			return log.String(), fmt.Errorf("hugo build: %w", err)
		}
	}

	p.logger.Info().Str("branch", p.cfg.Git.Branch).Msg("Publishing content")
	out, err := p.push(ctx, p.cfg, token)
	log.WriteString(out)
	if err != nil && !errors.Is(err, ErrNothingToPublish) {
		return log.String(), err
	}

	if rmErr := WriteMarker(p.cfg.MarkerFile, false); rmErr != nil {
		p.logger.Warn().Err(rmErr).Msg("Could not clear change marker")
	}
	return log.String(), err
}
