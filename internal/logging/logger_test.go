package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestConfig(t *testing.T) {
	cfg := Config("debug", "console", "")
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())

	cfg = Config("info", "yaml", "/var/log/hostwatch.log")
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, []string{"stdout", "/var/log/hostwatch.log"}, cfg.OutputPaths)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostwatch.log")

	logger, err := NewLogger("info", "json", path)
	require.NoError(t, err)

	logger.Info("client registered")
	logger.Debug("dropped by level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"client registered"`)
	assert.Contains(t, out, `"logger":"hostwatch"`)
	assert.False(t, strings.Contains(out, "dropped by level"))
}
