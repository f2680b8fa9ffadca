package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupFile(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	closer, err := Setup(Config{Path: path, Level: "debug"})
	require.NoError(t, err)

	slog.Debug("test debug", "post_id", 7)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test debug")
	assert.Contains(t, string(data), "post_id=7")
}

func TestSetupJSONFiltersLevel(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "debug.log")
	closer, err := Setup(Config{Path: path, Level: "warn", JSON: true})
	require.NoError(t, err)

	slog.Info("hidden")
	slog.Warn("shown", "bot_id", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.EqualValues(t, 3, rec["bot_id"])
}

func TestSetupDiscard(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	closer, err := Setup(Config{})
	require.NoError(t, err)
	slog.Error("goes nowhere")
	assert.NoError(t, closer.Close())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
