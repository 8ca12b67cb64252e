package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesAndUsesDefaults(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	require.FileExists(t, path, "a default config file is written when none exists")

	require.Equal(t, ":14711", cfg.Addr)
	require.Equal(t, 200, cfg.MaxConnections)
	require.Equal(t, 10, cfg.RateLimit)
	require.Equal(t, time.Second, cfg.RateWindow)
	require.Equal(t, time.Minute, cfg.SweepInterval)
	require.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	require.Equal(t, "*", cfg.CORSOrigin)
	require.False(t, cfg.TLS.Enabled)
}

func TestLoadReadsConfigFile(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"addr: \":9000\"\nmax_connections: 42\nclassroom_idle_timeout: 10m\n",
	), 0o600))

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, 42, cfg.MaxConnections)
	require.Equal(t, 10*time.Minute, cfg.IdleTimeout)
	require.Equal(t, 10, cfg.RateLimit, "unset keys keep their defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_connections: 42\n"), 0o600))

	t.Setenv("BRIDGE_MAX_CONNECTIONS", "7")
	t.Setenv("BRIDGE_CORS_ORIGIN", "https://scratch.example")
	t.Setenv("BRIDGE_TLS_ENABLED", "true")

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxConnections)
	require.Equal(t, "https://scratch.example", cfg.CORSOrigin)
	require.True(t, cfg.TLS.Enabled)
}
