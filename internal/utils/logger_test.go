package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerReturnsSingleton(t *testing.T) {
	assert.Same(t, GetLogger(), GetLogger())
}

func TestInitLoggerWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")

	require.NoError(t, InitLogger(logFile))

	logger := GetLogger()
	logger.Enable(true)
	logger.Info("hello from test", map[string]interface{}{"key": "value"})

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), "value")
}

func TestEnableFalseSuppressesLogging(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "suppressed.log")
	require.NoError(t, InitLogger(logFile))

	logger := GetLogger()
	logger.Enable(false)
	logger.Error("should not appear", nil)
	logger.Enable(true)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should not appear")
}

func TestFatalDoesNotExitProcess(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "fatal.log")
	require.NoError(t, InitLogger(logFile))

	logger := GetLogger()
	logger.Enable(true)
	logger.Fatal("fatal but test survives", nil)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fatal but test survives")
}
