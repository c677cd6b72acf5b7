package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FSMKIT_LOG_LEVEL", "FSMKIT_MAX_DEPTH", "FSMKIT_ADDR", "FSMKIT_METRICS_NAMESPACE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "fsmkit", cfg.MetricsNamespace)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FSMKIT_LOG_LEVEL", "debug")
	t.Setenv("FSMKIT_MAX_DEPTH", "0")
	t.Setenv("FSMKIT_ADDR", "127.0.0.1:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 0, cfg.MaxDepth)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestLoad_DotenvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("FSMKIT_ADDR", ":7000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FSMKIT_MAX_DEPTH=12\nFSMKIT_ADDR=:1\n"), 0o600))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.MaxDepth)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("FSMKIT_MAX_DEPTH", "-1")
	_, err := Load()
	assert.ErrorIs(t, err, ErrNegativeDepth)

	clearEnv(t)
	t.Setenv("FSMKIT_MAX_DEPTH", "many")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("FSMKIT_LOG_LEVEL", "chatty")
	_, err = Load()
	assert.Error(t, err)
}
