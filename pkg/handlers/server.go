package handlers

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"hugo-drive-sync/pkg/config"
	"hugo-drive-sync/pkg/models"
	"hugo-drive-sync/pkg/services"
)

type SyncRunner interface {
	TryRun(ctx context.Context) (*models.RunReport, error)
	Last() *models.RunReport
}

type ArticleLister interface {
	Articles(ctx context.Context) ([]models.ArticleSummary, error)
	Invalidate()
}

type SitePublisher interface {
	Publish(ctx context.Context, token string, opts services.PublishOptions) (string, error)
}

// Server is the admin API in front of the sync pipeline.
type Server struct {
	cfg       config.Config
	oauth     *oauth2.Config
	sync      SyncRunner
	index     ArticleLister
	store     services.ArticlePersistence
	publisher SitePublisher
	build     func(context.Context, config.Config) (string, error)
	pull      func(context.Context, config.Config, string) (string, error)
	logger    zerolog.Logger
}

func NewServer(cfg config.Config, sync SyncRunner, index ArticleLister, store services.ArticlePersistence, publisher SitePublisher, logger zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		oauth:     cfg.OAuthConfig(),
		sync:      sync,
		index:     index,
		store:     store,
		publisher: publisher,
		build:     services.BuildSite,
		pull:      services.PullRepo,
		logger:    logger.With().Str("component", "Server").Logger(),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger)

	store := cookie.NewStore([]byte(s.cfg.Server.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 60 * 60})
	r.Use(sessions.Sessions("hugo-drive-sync", store))

	// --- Auth Routes ---
	r.GET("/login", s.GithubLogin)
	r.GET("/auth/callback", s.AuthCallback)
	r.GET("/logout", s.Logout)

	// --- Authorized ---
	authorized := r.Group("/")
	authorized.Use(s.AuthRequired)
	{
		authorized.GET("/", s.Status)

		api := authorized.Group("/api")
		{
			api.POST("/sync", s.HandleSync)
			api.POST("/pull", s.HandlePull)
			api.GET("/articles", s.ListArticles)
			api.GET("/article", s.GetArticle)
			api.POST("/build", s.HandleBuild)
			api.POST("/publish", s.HandlePublish)
			api.GET("/config", s.GetConfig)
		}
	}
	return r
}

func (s *Server) requestLogger(c *gin.Context) {
	c.Next()
	s.logger.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Msg("request")
}
