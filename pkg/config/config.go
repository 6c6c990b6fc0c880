package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Config is built once at startup and handed to every component by value.
type Config struct {
	FolderID        string `validate:"required"`
	CredentialsFile string `validate:"omitempty,file"`

	RepoPath   string `validate:"required"`
	OutputDir  string `validate:"required"`
	MarkerFile string `validate:"required"`
	Timezone   string `validate:"required"`

	// Drive retry / rate limiting
	MaxRetries        int           `validate:"min=1,max=10"`
	BackoffBase       time.Duration `validate:"gt=0"`
	BackoffCap        time.Duration `validate:"gtefield=BackoffBase"`
	RequestsPerSecond float64       `validate:"gte=0"`

	// Image settings
	ImageMaxWidth int    `validate:"min=1"`
	ImageQuality  int    `validate:"min=1,max=100"`
	ImageFormat   string `validate:"oneof=jpeg"`

	Parallelism      int `validate:"min=1"`
	CacheConcurrency int `validate:"min=1"`

	Log    LogConfig
	Server ServerConfig
	Git    GitConfig
	Hugo   HugoConfig
}

type LogConfig struct {
	Level  string `validate:"omitempty,oneof=debug info warn error"`
	Format string `validate:"omitempty,oneof=console json"`
	File   string
}

type ServerConfig struct {
	Bind               string
	Port               string
	AppURL             string
	SessionSecret      string
	GithubClientID     string
	GithubClientSecret string
	GithubRedirectURL  string
}

type GitConfig struct {
	UserEmail string
	UserName  string
	Branch    string
	Remote    string
	Token     string
}

type HugoConfig struct {
	Binary  string
	BaseURL string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	p := &envParser{}

	repoPath := getEnv("REPO_PATH", ".")
	appURL := getEnv("APP_URL", "http://localhost:8080")

	cfg := Config{
		FolderID:        os.Getenv("GOOGLE_DRIVE_PARENT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		RepoPath:   repoPath,
		OutputDir:  filepath.Join(repoPath, getEnv("OUTPUT_SUBDIR", "content/posts/google-drive")),
		MarkerFile: filepath.Join(repoPath, getEnv("MARKER_FILE", ".content-updated")),
		Timezone:   getEnv("TIMEZONE", "Asia/Tokyo"),

		MaxRetries:        p.int("MAX_RETRIES", 3),
		BackoffBase:       p.duration("BACKOFF_BASE", time.Second),
		BackoffCap:        p.duration("BACKOFF_CAP", 30*time.Second),
		RequestsPerSecond: p.float("DRIVE_REQUESTS_PER_SECOND", 10),

		ImageMaxWidth: p.int("IMAGE_MAX_WIDTH", 800),
		ImageQuality:  p.int("IMAGE_QUALITY", 50),
		ImageFormat:   strings.ToLower(getEnv("IMAGE_FORMAT", "jpeg")),

		Parallelism:      p.int("PARALLELISM", runtime.NumCPU()),
		CacheConcurrency: p.int("CACHE_CONCURRENCY", 20),

		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
			File:   os.Getenv("LOG_FILE"),
		},
		Server: ServerConfig{
			Bind:               getEnv("SERVER_BIND", "127.0.0.1"),
			Port:               getEnv("SERVER_PORT", "8080"),
			AppURL:             appURL,
			SessionSecret:      os.Getenv("SESSION_SECRET"),
			GithubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			GithubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			GithubRedirectURL:  getEnv("GITHUB_REDIRECT_URL", appURL+"/auth/callback"),
		},
		Git: GitConfig{
			UserEmail: getEnv("GIT_USER_EMAIL", "bot@hugo-drive-sync.local"),
			UserName:  getEnv("GIT_USER_NAME", "Hugo Drive Sync Bot"),
			Branch:    getEnv("GIT_BRANCH", "main"),
			Remote:    getEnv("GIT_REMOTE", "origin"),
			Token:     os.Getenv("GIT_TOKEN"),
		},
		Hugo: HugoConfig{
			Binary:  getEnv("HUGO_BINARY", "hugo"),
			BaseURL: os.Getenv("HUGO_BASE_URL"),
		},
	}

	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// ValidateServer checks the extra settings required by the admin server.
func (c Config) ValidateServer() error {
	var missing []string
	if c.Server.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.Server.GithubClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}
	if c.Server.GithubClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("server configuration missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location returns the timezone used for front matter dates.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.Server.GithubClientID,
		ClientSecret: c.Server.GithubClientSecret,
		Scopes:       []string{"repo"},
		Endpoint:     github.Endpoint,
		RedirectURL:  c.Server.GithubRedirectURL,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envParser keeps the first conversion error so Load can report it.
type envParser struct {
	err error
}

func (p *envParser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return n
}

func (p *envParser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return f
}

func (p *envParser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return d
}

func (p *envParser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
}
