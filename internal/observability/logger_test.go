// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/journeyman/internal/config"
)

// setupTestLogger initializes the global logger against an in-memory buffer
// and returns the buffer for assertions. ResetForTest runs first so each
// test starts from a clean singleton.
func setupTestLogger(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("console format colorizes the level", func(t *testing.T) {
		buf := setupTestLogger(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors: config.ColorConfig{
				Info: "green",
			},
		})

		GetLogger().Info("This is a test message.")

		output := buf.String()
		assert.Contains(t, output, "INFO", "Output should contain the log level")
		assert.Contains(t, output, "This is a test message.", "Output should contain the message")
		assert.Contains(t, output, colorGreen, "Info level should be colorized green")
		assert.Contains(t, output, colorReset, "Output should contain the reset color code")
		assert.Contains(t, output, "TestService.", "Component name should read as a dotted prefix")
	})

	t.Run("json format emits structured entries", func(t *testing.T) {
		buf := setupTestLogger(t, config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		})

		GetLogger().Warn("This is a JSON message.", zap.String("key", "value"))

		var logEntry map[string]interface{}
		err := json.Unmarshal(buf.Bytes(), &logEntry)
		require.NoError(t, err, "Log output should be valid JSON")

		assert.Equal(t, "WARN", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("writes to a log file when configured", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "journeyman-test.log")
		setupTestLogger(t, config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: logFile,
			MaxSize: 1,
		})

		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
	})

	t.Run("initializes only once", func(t *testing.T) {
		buf := setupTestLogger(t, config.LoggerConfig{Level: "info", Format: "console", ServiceName: "First"})
		first := GetLogger()

		// The second initialization must be a no-op.
		Initialize(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "Second"}, zapcore.AddSync(&bytes.Buffer{}))
		second := GetLogger()

		assert.Equal(t, first, second)
		second.Info("test")
		assert.True(t, strings.Contains(buf.String(), "First"))
		assert.False(t, strings.Contains(buf.String(), "Second"))
	})

	t.Run("falls back to info on an unknown level", func(t *testing.T) {
		buf := setupTestLogger(t, config.LoggerConfig{Level: "loud", Format: "json", ServiceName: "LevelTest"})

		GetLogger().Debug("should be suppressed")
		GetLogger().Info("should be emitted")

		assert.NotContains(t, buf.String(), "suppressed")
		assert.Contains(t, buf.String(), "emitted")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("returns a fallback logger before initialization", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		logger := GetLogger()
		require.NotNil(t, logger)
	})

	t.Run("returns the global logger after initialization", func(t *testing.T) {
		setupTestLogger(t, config.LoggerConfig{Level: "info", Format: "console", ServiceName: "GlobalTest"})

		logger := GetLogger()
		assert.Equal(t, globalLogger.Load(), logger)
	})
}
