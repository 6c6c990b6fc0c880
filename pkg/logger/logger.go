package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"hugo-drive-sync/pkg/config"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 100
	maxLogBackups = 3
)

// New builds the process logger: console or JSON on stderr, plus a rotating
// file when LOG_FILE is set.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	writers := []io.Writer{consoleWriter(cfg.Format, os.Stderr, false)}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return zerolog.Logger{}, fmt.Errorf("create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			LocalTime:  true,
		}
		writers = append(writers, consoleWriter(cfg.Format, rotating, true))
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func consoleWriter(format string, out io.Writer, noColor bool) io.Writer {
	if format == "json" {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: "2006-01-02 15:04:05",
	}
}
