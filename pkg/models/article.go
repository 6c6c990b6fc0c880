package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Front matter keys written by the sync.
const (
	KeyDate          = "date"
	KeyLastmod       = "lastmod"
	KeyTitle         = "title"
	KeyDraft         = "draft"
	KeyDriveID       = "google_drive_id"
	KeyModifiedTime  = "modifiedTime"
	KeyConversionErr = "conversion_error"
)

// FrontMatter is the metadata block of an article. Unknown keys are kept as-is.
type FrontMatter map[string]interface{}

// String returns the trimmed string form of key, or "" when absent.
func (fm FrontMatter) String(key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// DraftValue reports the draft flag and whether it was present and readable.
// A missing key is published. A value that cannot be read counts as a draft.
func (fm FrontMatter) DraftValue() (draft bool, ok bool) {
	v, exists := fm[KeyDraft]
	if !exists || v == nil {
		return false, false
	}
	draft, ok = parseDraft(v)
	if !ok {
		return true, false
	}
	return draft, true
}

// IsDraft treats a missing draft key as published.
func (fm FrontMatter) IsDraft() bool {
	d, _ := fm.DraftValue()
	return d
}

// parseDraft accepts booleans, numbers and the YAML 1.1 boolean words.
func parseDraft(v interface{}) (bool, bool) {
	switch d := v.(type) {
	case bool:
		return d, true
	case int:
		return d != 0, true
	case int64:
		return d != 0, true
	case uint64:
		return d != 0, true
	case float64:
		return d != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "yes", "y", "on":
			return true, true
		case "no", "n", "off", "":
			return false, true
		}
		b, err := strconv.ParseBool(strings.TrimSpace(d))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

func (fm FrontMatter) Clone() FrontMatter {
	out := make(FrontMatter, len(fm))
	for k, v := range fm {
		out[k] = v
	}
	return out
}

// LocalArticle is one synced Markdown file at {output_dir}/{file_id}.md.
type LocalArticle struct {
	FileID      string      `json:"google_drive_id"`
	Path        string      `json:"path"`
	Title       string      `json:"title"`
	FrontMatter FrontMatter `json:"frontmatter,omitempty"`
	Body        string      `json:"body,omitempty"`
	Format      string      `json:"format,omitempty"` // yaml, toml
	// Readable is false when the file exists but its front matter could not be parsed.
	Readable bool `json:"readable"`
}

// IsDraft reports the publish state; unreadable articles count as drafts.
func (a *LocalArticle) IsDraft() bool {
	if a == nil || !a.Readable || a.FrontMatter == nil {
		return true
	}
	return a.FrontMatter.IsDraft()
}

// CacheToken is the stored remote modification time.
func (a *LocalArticle) CacheToken() string {
	if a == nil || a.FrontMatter == nil {
		return ""
	}
	if s, ok := a.FrontMatter[KeyModifiedTime].(string); ok {
		return s
	}
	return a.FrontMatter.String(KeyModifiedTime)
}

// ArticleSummary is the listing entry served by the admin API.
type ArticleSummary struct {
	FileID       string `json:"google_drive_id"`
	Path         string `json:"path"`
	Title        string `json:"title"`
	Draft        bool   `json:"draft"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	IsDirty      bool   `json:"isDirty"`
}
