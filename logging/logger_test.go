package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("below threshold")
	logger.Info("below threshold too")
	logger.Warn("surfaced", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "below threshold")
	assert.Contains(t, out, "surfaced")
	assert.Contains(t, out, "key=value")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.Info("agent.invoke.start", "agent", "demo")

	out := buf.String()
	assert.Contains(t, out, `"msg":"agent.invoke.start"`)
	assert.Contains(t, out, `"agent":"demo"`)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNoOpLogger_DiscardsEverything(t *testing.T) {
	var logger Logger = NoOpLogger{}
	logger.Debug("x")
	logger.Info("x")
	logger.Warn("x")
	logger.Error("x")
}
