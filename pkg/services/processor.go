package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hugo-drive-sync/pkg/models"
)

// Processor turns one remote document into one local article.
type Processor struct {
	remote RemoteDirectory
	store  ArticlePersistence
	images *ImageTranscoder
	loc    *time.Location
	logger zerolog.Logger
}

func NewProcessor(remote RemoteDirectory, store ArticlePersistence, images *ImageTranscoder, loc *time.Location, logger zerolog.Logger) *Processor {
	if loc == nil {
		loc = time.UTC
	}
	return &Processor{
		remote: remote,
		store:  store,
		images: images,
		loc:    loc,
		logger: logger.With().Str("component", "Processor").Logger(),
	}
}

// Process runs cache check, export, front matter reconciliation, image
// transcoding, shortcode repair and the atomic write for doc. It never returns
// an error; failures are reported in the outcome and leave the existing file
// untouched.
func (p *Processor) Process(ctx context.Context, doc models.RemoteDocument) models.Outcome {
	log := p.logger.With().Str("file_id", doc.ID).Str("name", doc.Name).Logger()

	if !ValidFileID(doc.ID) {
		err := fmt.Errorf("invalid file id %q", doc.ID)
		log.Error().Err(err).Msg("Skipping document")
		return models.Outcome{FileID: doc.ID, Status: models.StatusFailed, Err: err}
	}
	outcome := models.Outcome{FileID: doc.ID, Path: p.store.PathFor(doc.ID)}

	local, err := p.store.Load(doc.ID)
	if err != nil {
		if !errors.Is(err, ErrArticleNotFound) {
			log.Warn().Err(err).Msg("Could not read local article, downloading again")
		}
		local = nil
	}

	if local != nil && local.Readable && doc.ModifiedTime != "" && local.CacheToken() == doc.ModifiedTime {
		log.Debug().Str("modified_time", doc.ModifiedTime).Msg("Unchanged, skipping")
		outcome.Status = models.StatusSkipped
		outcome.Draft = local.IsDraft()
		return outcome
	}

	markdown, err := p.remote.ExportMarkdown(ctx, doc.ID)
	if err != nil {
		log.Error().Err(err).Msg("Export failed")
		outcome.Status = models.StatusFailed
		outcome.Err = err
		return outcome
	}

	article, err := p.render(doc, markdown, log)
	if err != nil {
		log.Error().Err(err).Msg("Processing failed")
		outcome.Status = models.StatusFailed
		outcome.Err = err
		return outcome
	}

	if err := p.store.Save(article); err != nil {
		log.Error().Err(err).Msg("Write failed")
		outcome.Status = models.StatusFailed
		outcome.Err = err
		return outcome
	}

	outcome.Status = models.StatusUpdated
	outcome.Draft = article.IsDraft()
	log.Info().Bool("draft", outcome.Draft).Str("path", outcome.Path).Msg("Article updated")
	return outcome
}

func (p *Processor) render(doc models.RemoteDocument, markdown string, log zerolog.Logger) (article *models.LocalArticle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", doc.ID, r)
		}
	}()

	fm, body, format, parseErr := ParseFrontMatter([]byte(markdown))
	if parseErr != nil {
		malformed := &MalformedContentError{FileID: doc.ID, What: "front matter", Err: parseErr}
		log.Warn().Err(malformed).Msg("Treating whole export as body")
		fm, body, format = nil, normalizeLineEndings(markdown), FormatYAML
	}

	fm = ReconcileFrontMatter(fm, doc, p.loc, log)

	if p.images != nil {
		var stats TranscodeStats
		body, stats = p.images.Transcode(body)
		if stats.Converted > 0 || stats.Failed > 0 {
			log.Debug().
				Int("converted", stats.Converted).
				Int("resized", stats.Resized).
				Int("failed", stats.Failed).
				Msg("Images transcoded")
		}
	}

	body = UnescapeBlockquotes(body)
	body = RepairShortcodes(body)

	return &models.LocalArticle{
		FileID:      doc.ID,
		Path:        p.store.PathFor(doc.ID),
		Title:       fm.String(models.KeyTitle),
		FrontMatter: fm,
		Body:        body,
		Format:      format,
		Readable:    true,
	}, nil
}
