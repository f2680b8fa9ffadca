package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, ".config"))
	for _, k := range []string{"HAMS_SERVER_URL", "HAMS_WS_URL", "HAMS_STORAGE", "HAMS_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return tmp
}

func TestDefaultIsValid(t *testing.T) {
	isolate(t)
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(cfg.CacheDir, "cache.db"), cfg.DBPath)
	assert.Equal(t, StorageAuto, cfg.StorageBackend)
}

func TestLoadMissingFile(t *testing.T) {
	tmp := isolate(t)
	cfg, err := Load(filepath.Join(tmp, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: https://hams.example.com
cache_dir: `+tmp+`/cache
request_timeout: 3s
storage: sqlite
`), 0o600))
	t.Setenv("HAMS_STORAGE", "BADGER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hams.example.com", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StorageBadger, cfg.StorageBackend, "env wins over file")
	assert.Equal(t, filepath.Join(tmp, "cache", "cache.db"), cfg.DBPath, "paths follow cache_dir")
	assert.Equal(t, 30*time.Second, cfg.ReconnectMax, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadBadYAML(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [oops"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "nested", "config.yaml")
	cfg := Default()
	cfg.ServerURL = "http://myhost:9090"
	cfg.PostListTTL = 2 * time.Minute

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateRejects(t *testing.T) {
	isolate(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no server", func(c *Config) { c.ServerURL = "" }},
		{"bad storage", func(c *Config) { c.StorageBackend = "redis" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"backoff inverted", func(c *Config) { c.ReconnectMax = c.ReconnectMin / 2 }},
		{"backlog too large", func(c *Config) { c.ActivityBacklog = 500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestActivityURL(t *testing.T) {
	isolate(t)
	tests := []struct {
		server, ws, want string
	}{
		{"http://localhost:8000", "", "ws://localhost:8000/ws/activity-logs"},
		{"https://hams.example.com/api/", "", "wss://hams.example.com/api/ws/activity-logs"},
		{"http://localhost:8000", "ws://push:9000/live", "ws://push:9000/live"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.ServerURL = tt.server
		cfg.WebSocketURL = tt.ws
		got, err := cfg.ActivityURL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
