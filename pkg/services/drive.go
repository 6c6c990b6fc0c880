package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"hugo-drive-sync/pkg/config"
	"hugo-drive-sync/pkg/models"
)

const listFields = "nextPageToken, files(id, name, mimeType, createdTime, modifiedTime, parents)"

// RemoteDirectory is the document source the sync pipeline reads from.
type RemoteDirectory interface {
	ListDocuments(ctx context.Context, folderID string) ([]models.RemoteDocument, error)
	ExportMarkdown(ctx context.Context, fileID string) (string, error)
}

// DriveClient implements RemoteDirectory on the Drive v3 API.
type DriveClient struct {
	service *drive.Service
	retry   RetryPolicy
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewDriveClient authenticates with the credentials file when configured and
// falls back to Application Default Credentials otherwise.
func NewDriveClient(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*DriveClient, error) {
	var creds *google.Credentials
	var err error
	if cfg.CredentialsFile != "" {
		data, readErr := os.ReadFile(cfg.CredentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("read credentials: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, drive.DriveReadonlyScope)
	}
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}

	service, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	logger.Info().Str("project", creds.ProjectID).Msg("Google Drive service ready")

	return NewDriveClientWithService(service, NewRetryPolicy(cfg, logger), newLimiter(cfg.RequestsPerSecond), logger), nil
}

// NewDriveClientWithService wraps an existing service, e.g. one pointed at a test server.
func NewDriveClientWithService(service *drive.Service, retry RetryPolicy, limiter *rate.Limiter, logger zerolog.Logger) *DriveClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &DriveClient{
		service: service,
		retry:   retry,
		limiter: limiter,
		logger:  logger.With().Str("component", "DriveClient").Logger(),
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// ListDocuments returns every Google Doc under folderID, descending into sub-folders.
// A failure anywhere in the tree fails the whole listing so callers never act on a
// partial view.
func (c *DriveClient) ListDocuments(ctx context.Context, folderID string) ([]models.RemoteDocument, error) {
	c.logger.Info().Str("folder_id", folderID).Msg("Listing Google Docs")

	var docs []models.RemoteDocument
	if err := c.listFolder(ctx, folderID, &docs); err != nil {
		return nil, err
	}

	c.logger.Info().Str("folder_id", folderID).Int("count", len(docs)).Msg("Listing complete")
	return docs, nil
}

func (c *DriveClient) listFolder(ctx context.Context, folderID string, docs *[]models.RemoteDocument) error {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	pageToken := ""

	for {
		page, err := Do(ctx, c.retry, "list "+folderID, func(ctx context.Context) (*drive.FileList, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			call := c.service.Files.List().
				Q(query).
				Spaces("drive").
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				Fields(listFields).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			return call.Do()
		})
		if err != nil {
			return fmt.Errorf("list folder %s: %w", folderID, err)
		}

		for _, f := range page.Files {
			switch f.MimeType {
			case models.MimeTypeFolder:
				if f.Id == "" {
					c.logger.Warn().Str("name", f.Name).Msg("Folder without id, skipping")
					continue
				}
				c.logger.Debug().Str("folder_id", f.Id).Msg("Scanning subfolder")
				if err := c.listFolder(ctx, f.Id, docs); err != nil {
					return err
				}
			case models.MimeTypeDocument:
				*docs = append(*docs, models.RemoteDocument{
					ID:           f.Id,
					Name:         f.Name,
					MimeType:     f.MimeType,
					CreatedTime:  f.CreatedTime,
					ModifiedTime: f.ModifiedTime,
					Parents:      f.Parents,
				})
			}
		}

		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// ExportMarkdown downloads a Google Doc converted to Markdown.
func (c *DriveClient) ExportMarkdown(ctx context.Context, fileID string) (string, error) {
	c.logger.Debug().Str("file_id", fileID).Msg("Exporting document")

	return Do(ctx, c.retry, "export "+fileID, func(ctx context.Context) (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.service.Files.Export(fileID, models.MimeTypeMarkdown).Context(ctx).Download()
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &TransientRemoteError{Err: err}
		}
		return string(body), nil
	})
}

// IsTransientDriveError reports rate limiting, 5xx responses and transport resets.
func IsTransientDriveError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var transient *TransientRemoteError
	if errors.As(err, &transient) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return true
		case apiErr.Code >= 500:
			return true
		case apiErr.Code == http.StatusForbidden:
			for _, item := range apiErr.Errors {
				if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
					return true
				}
			}
		}
		return false
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
