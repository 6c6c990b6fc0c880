package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hugo-drive-sync/pkg/models"
	"hugo-drive-sync/pkg/services"
)

type outcomeView struct {
	FileID string `json:"google_drive_id"`
	Path   string `json:"path,omitempty"`
	Status string `json:"status"`
	Draft  bool   `json:"draft"`
	Error  string `json:"error,omitempty"`
}

type reportView struct {
	Listed         int           `json:"listed"`
	Updated        int           `json:"updated"`
	PublicUpdated  int           `json:"publicUpdated"`
	Skipped        int           `json:"skipped"`
	Deleted        int           `json:"deleted"`
	Failed         int           `json:"failed"`
	ContentUpdated bool          `json:"contentUpdated"`
	DurationMillis int64         `json:"durationMs"`
	Failures       []outcomeView `json:"failures,omitempty"`
}

func newReportView(r *models.RunReport) *reportView {
	if r == nil {
		return nil
	}
	view := &reportView{
		Listed:         r.Listed,
		Updated:        r.Count(models.StatusUpdated),
		PublicUpdated:  r.PublicUpdated(),
		Skipped:        r.Count(models.StatusSkipped),
		Deleted:        r.Count(models.StatusDeleted),
		Failed:         r.Count(models.StatusFailed),
		ContentUpdated: r.ChangeSignal,
		DurationMillis: r.Duration.Milliseconds(),
	}
	for _, o := range r.Failures() {
		v := outcomeView{FileID: o.FileID, Path: o.Path, Status: o.Status.String(), Draft: o.Draft}
		if o.Err != nil {
			v.Error = o.Err.Error()
		}
		view.Failures = append(view.Failures, v)
	}
	return view
}

func (s *Server) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "lastRun": newReportView(s.sync.Last())})
}

func (s *Server) HandleSync(c *gin.Context) {
	// A sync keeps going if the client disconnects.
	ctx := context.WithoutCancel(c.Request.Context())
	report, err := s.sync.TryRun(ctx)
	if errors.Is(err, services.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"status": "busy", "error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Sync failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error(), "report": newReportView(report)})
		return
	}

	status := "ok"
	if report.Failed() {
		status = "partial"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "report": newReportView(report)})
}

func (s *Server) HandlePull(c *gin.Context) {
	log, err := s.pull(c.Request.Context(), s.cfg, sessionToken(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	s.index.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func (s *Server) ListArticles(c *gin.Context) {
	articles, err := s.index.Articles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch articles"})
		return
	}
	if articles == nil {
		articles = []models.ArticleSummary{}
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) GetArticle(c *gin.Context) {
	id := c.Query("id")
	if !services.ValidFileID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	article, err := s.store.Load(id)
	if errors.Is(err, services.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read article"})
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) HandleBuild(c *gin.Context) {
	log, err := s.build(c.Request.Context(), s.cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func (s *Server) HandlePublish(c *gin.Context) {
	opts := services.PublishOptions{
		Force:     c.Query("force") == "true",
		SkipBuild: c.Query("skip_build") == "true",
	}

	log, err := s.publisher.Publish(c.Request.Context(), sessionToken(c), opts)
	switch {
	case errors.Is(err, services.ErrNoContentChange):
		c.JSON(http.StatusConflict, gin.H{"status": "skipped", "error": err.Error()})
	case errors.Is(err, services.ErrNothingToPublish):
		c.JSON(http.StatusOK, gin.H{"status": "unchanged", "log": log})
	case err != nil:
		s.logger.Error().Err(err).Msg("Publish failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error(), "log": log})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
	}
}

// GetConfig exposes the non-secret settings.
func (s *Server) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"folderId":      s.cfg.FolderID,
		"outputDir":     s.cfg.OutputDir,
		"markerFile":    s.cfg.MarkerFile,
		"timezone":      s.cfg.Timezone,
		"parallelism":   s.cfg.Parallelism,
		"maxRetries":    s.cfg.MaxRetries,
		"imageMaxWidth": s.cfg.ImageMaxWidth,
		"imageQuality":  s.cfg.ImageQuality,
		"imageFormat":   s.cfg.ImageFormat,
		"gitBranch":     s.cfg.Git.Branch,
	})
}
