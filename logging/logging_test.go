package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_FILE", " /var/log/iot/installer.log ")
	t.Setenv("LOG_STDERR", "no")
	t.Setenv("LOG_MAX_SIZE_MB", "5")
	t.Setenv("LOG_MAX_BACKUPS", "not-a-number")

	cfg := NewConfigFromEnv()
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "/var/log/iot/installer.log", cfg.File)
	assert.False(t, cfg.AlsoStderr)
	assert.Equal(t, 5, cfg.MaxSizeMB)
	assert.Equal(t, DefaultConfig().MaxBackups, cfg.MaxBackups)
	assert.True(t, cfg.SetAsDefault)
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "installer.log")

	cfg := DefaultConfig()
	cfg.File = path
	cfg.AlsoStderr = false

	logger, w := New(cfg)
	require.NotNil(t, w)
	assert.NoDirExists(t, filepath.Dir(path))

	logger.Info("Repository cloned", slog.String("path", "/usr/local/device/nodejs/ipc.control"))
	logger.Debug("hidden at info level")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Repository cloned")
	assert.Contains(t, string(data), "ipc.control")
	assert.False(t, strings.Contains(string(data), "hidden at info level"))
}

func TestMultiHandlerRespectsPerHandlerLevel(t *testing.T) {
	dir := t.TempDir()
	debugFile, err := os.Create(filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	defer debugFile.Close()
	errorFile, err := os.Create(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	defer errorFile.Close()

	h := MultiHandler{hs: []slog.Handler{
		slog.NewTextHandler(debugFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(h).With(slog.String("action", "dispenser"))
	logger.Info("copying files")

	debugData, err := os.ReadFile(debugFile.Name())
	require.NoError(t, err)
	errorData, err := os.ReadFile(errorFile.Name())
	require.NoError(t, err)

	assert.Contains(t, string(debugData), "action=dispenser")
	assert.Empty(t, errorData)
}
