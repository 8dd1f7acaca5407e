package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lumerrors "github.com/luminary-app/luminary/internal/errors"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := loadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().APIURL, cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadFrom_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://api.luminary.example\nlog_level: debug\n"), 0o644))

	cfg, err := loadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.luminary.example", cfg.APIURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched keys keep their defaults.
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFrom_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://file.example\n"), 0o644))

	t.Setenv("LUMINARY_API_URL", "https://env.example")

	cfg, err := loadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.APIURL)
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unclosed"), 0o644))

	_, err := loadFrom(path)
	require.Error(t, err)

	lumErr, ok := err.(*lumerrors.LuminaryError)
	require.True(t, ok)
	assert.Equal(t, lumerrors.ErrCodeConfigInvalid, lumErr.Code)
}

func TestLoadFrom_ZeroTimeoutFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request_timeout: 0s\n"), 0o644))

	cfg, err := loadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, Default().RequestTimeout, cfg.RequestTimeout)
}
