package logger

import (
	"os"
	"path/filepath"
	"testing"

	"hugo-drive-sync/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	log, err := New(config.LogConfig{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sync.log")

	log, err := New(config.LogConfig{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	log.Debug().Str("file_id", "abc").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file_id":"abc"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}
