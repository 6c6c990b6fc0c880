package models

// Drive MIME types.
const (
	MimeTypeFolder   = "application/vnd.google-apps.folder"
	MimeTypeDocument = "application/vnd.google-apps.document"
	MimeTypeMarkdown = "text/markdown"
)

// RemoteDocument is a snapshot of one Google Doc from a listing call.
// ModifiedTime is compared verbatim as the cache token and never parsed for that purpose.
type RemoteDocument struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MimeType     string   `json:"mimeType"`
	CreatedTime  string   `json:"createdTime"`
	ModifiedTime string   `json:"modifiedTime"`
	Parents      []string `json:"parents,omitempty"`
}
