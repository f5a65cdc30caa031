package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDir points the log directory at a temp dir and resets global state
func setupTestDir(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()
	origLogDir := logDir
	origSessionID := sessionID

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	initOnce.Do(func() {}) // keep logDir on the temp dir
	sessionID = ""
	sessionIDOnce = sync.Once{}

	t.Cleanup(func() {
		logDir = origLogDir
		initErr = nil
		initOnce = sync.Once{}
		sessionID = origSessionID
		sessionIDOnce = sync.Once{}
		if origSessionID != "" {
			sessionIDOnce.Do(func() {})
		}
	})
}

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e), "line: %s", line)
		entries = append(entries, e)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test-component")
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, "test-component", logger.component)
	assert.NotEmpty(t, logger.sessionID)
	assert.NotEmpty(t, logger.logPath)
	assert.FileExists(t, logger.logPath)
}

func TestLoggerLevels(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)
	defer logger.Close()

	logger.Printf("Test message %d", 123)
	logger.Debugf("Debug message")
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	entries := readEntries(t, logger.logPath)
	require.Len(t, entries, 5)

	expected := []struct{ level, msg string }{
		{"info", "Test message 123"},
		{"debug", "Debug message"},
		{"info", "Info message"},
		{"warn", "Warning message"},
		{"error", "Error message"},
	}
	for i, want := range expected {
		assert.Equal(t, want.level, entries[i]["level"])
		assert.Equal(t, want.msg, entries[i]["message"])
		assert.Equal(t, "test", entries[i]["component"])
		assert.Equal(t, logger.sessionID, entries[i]["session"])
	}
}

func TestMultipleComponents(t *testing.T) {
	setupTestDir(t)

	logger1, err := NewLogger("component1")
	require.NoError(t, err)
	defer logger1.Close()

	logger2, err := NewLogger("component2")
	require.NoError(t, err)
	defer logger2.Close()

	// Same session, same file
	assert.Equal(t, logger1.sessionID, logger2.sessionID)
	assert.Equal(t, logger1.logPath, logger2.logPath)

	logger1.Printf("Message from component1")
	logger2.Printf("Message from component2")

	entries := readEntries(t, logger1.logPath)
	var components []any
	for _, e := range entries {
		components = append(components, e["component"])
	}
	assert.Contains(t, components, "component1")
	assert.Contains(t, components, "component2")
}

func TestWithChildComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("calendar", &buf).With("calendar.handshake")

	logger.Infof("ready from %s", "https://meet.google.com")

	assert.Contains(t, buf.String(), `"component":"calendar.handshake"`)
	assert.Contains(t, buf.String(), "ready from https://meet.google.com")
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	logger := NewWriterLogger("test", &buf)

	require.NoError(t, SetLevel("warn"))
	logger.Infof("hidden")
	logger.Warnf("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.Error(t, SetLevel("loud"))
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	logger.Errorf("nothing %d", 1)
	assert.NoError(t, logger.Close())
}

func TestGetSessionID(t *testing.T) {
	setupTestDir(t)

	id1 := GetSessionID()
	id2 := GetSessionID()

	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1)
}

func TestGetLogDirectory(t *testing.T) {
	setupTestDir(t)

	dir, err := GetLogDirectory()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoggerClose(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	assert.NoError(t, logger.Close())
	// Close again should be safe
	assert.NoError(t, logger.Close())
}

func TestLogPathFormat(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)
	defer logger.Close()

	// <session-id>-autorecord.log
	fileName := filepath.Base(logger.logPath)
	assert.True(t, strings.HasSuffix(fileName, "-autorecord.log"), fileName)

	sessionPart := strings.TrimSuffix(fileName, "-autorecord.log")
	assert.Contains(t, sessionPart, "-")
}
