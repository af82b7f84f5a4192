package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilatcli/internal/config"
)

func TestInitializeLogger_FileOutput(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	logPath := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "debug",
		Output:   "file",
		FilePath: logPath,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("expansion complete", "technology", "gas_exp_pipe")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"technology":"gas_exp_pipe"`)
	assert.Contains(t, string(content), `"expansion complete"`)
}

func TestInitializeLogger_Once(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	logPath := filepath.Join(t.TempDir(), "a.log")
	first, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: logPath})
	require.NoError(t, err)

	second, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(t.TempDir(), "b.log")})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRunID(ctx))

	ctx = WithRunID(ctx, "run-42")
	assert.Equal(t, "run-42", GetRunID(ctx))
}

func TestRunIDHandler_InjectsRunID(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	logPath := filepath.Join(t.TempDir(), "run.log")
	logger, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: logPath})
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-7")
	logger.InfoContext(ctx, "step started")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"run_id":"run-7"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, strings.ToUpper(parseLogLevel(tt.in).String()), tt.in)
	}
}

func TestLoggerFromContext(t *testing.T) {
	logger := LoggerFromContext(WithRunID(context.Background(), "run-9"))
	assert.NotNil(t, logger)
}
