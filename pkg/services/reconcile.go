package services

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"hugo-drive-sync/pkg/models"
)

// DateLayout is how date and lastmod are written back.
const DateLayout = "2006-01-02 15:04:05 -0700"

var nowFunc = time.Now

// ReconcileFrontMatter merges the front matter found in an export with the
// remote metadata. User keys win for date, lastmod, title and draft; the id and
// the cache token always come from doc.
func ReconcileFrontMatter(existing models.FrontMatter, doc models.RemoteDocument, loc *time.Location, logger zerolog.Logger) models.FrontMatter {
	if loc == nil {
		loc = time.UTC
	}
	log := logger.With().Str("file_id", doc.ID).Logger()

	fm := existing.Clone()
	delete(fm, models.KeyConversionErr)

	created, createdOK := parseDate(doc.CreatedTime, loc)
	date, ok := existingDate(fm, models.KeyDate, loc, log)
	switch {
	case ok:
	case createdOK:
		date = created
	default:
		log.Warn().Str("created_time", doc.CreatedTime).Msg("No usable publish date, using current time")
		date = nowFunc().In(loc)
	}
	fm[models.KeyDate] = date.Format(DateLayout)

	lastmod, ok := existingDate(fm, models.KeyLastmod, loc, log)
	if !ok {
		if modified, modifiedOK := parseDate(doc.ModifiedTime, loc); modifiedOK {
			lastmod = modified
		} else {
			lastmod = date
		}
	}
	fm[models.KeyLastmod] = lastmod.Format(DateLayout)

	if fm.String(models.KeyTitle) == "" {
		fm[models.KeyTitle] = doc.Name
	}

	draft, ok := fm.DraftValue()
	if raw, present := fm[models.KeyDraft]; !ok && present && raw != nil {
		log.Warn().Interface("draft", raw).Msg("Unrecognized draft value, keeping article as draft")
	}
	fm[models.KeyDraft] = draft

	fm[models.KeyDriveID] = doc.ID
	fm[models.KeyModifiedTime] = doc.ModifiedTime
	return fm
}

func existingDate(fm models.FrontMatter, key string, loc *time.Location, log zerolog.Logger) (time.Time, bool) {
	raw, present := fm[key]
	if !present || raw == nil {
		return time.Time{}, false
	}
	if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}

	t, ok := parseDate(raw, loc)
	if !ok {
		log.Warn().Str("key", key).Interface("value", raw).Msg("Malformed date in front matter, using remote value")
	}
	return t, ok
}

// parseDate accepts YAML strings, TOML date values and anything dateparse
// understands. Values without an offset are read in loc.
func parseDate(raw interface{}, loc *time.Location) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.In(loc), true
	case toml.LocalDateTime:
		return v.AsTime(loc), true
	case toml.LocalDate:
		return v.AsTime(loc), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t.In(loc), true
	default:
		return time.Time{}, false
	}
}
