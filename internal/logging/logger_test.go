package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"resqgrid/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesCategorizedJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "resq.log")
	logger, err := New(config.LoggingConfig{Level: "debug", Format: "json", File: path}, false)
	require.NoError(t, err)

	For(logger, CategoryPerception).Debug("classified", zap.String("kind", "CASUAL"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"logger":"perception"`), line)
	assert.True(t, strings.Contains(line, `"kind":"CASUAL"`), line)
}

func TestNewHonoursLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resq.log")
	logger, err := New(config.LoggingConfig{Level: "warn", File: path}, false)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestVerboseForcesDebug(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "error", File: filepath.Join(t.TempDir(), "x.log")}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "chatty"}, false)
	assert.Error(t, err)
}

func TestForNilBase(t *testing.T) {
	l := For(nil, CategoryBoot)
	require.NotNil(t, l)
	l.Info("dropped")
}
