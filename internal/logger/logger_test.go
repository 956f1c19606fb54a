package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesTerminalAndFile(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	l, err := NewLogger(Options{Dir: dir, FilePrefix: "test", Level: INFO, Terminal: &out})
	require.NoError(t, err)

	l.Info("ledger", "generated 3 tickets")
	l.Debug("ledger", "hidden below level")
	l.Close()

	assert.Contains(t, out.String(), "[LEDGER    ] generated 3 tickets")
	assert.NotContains(t, out.String(), "hidden below level")

	files, err := filepath.Glob(filepath.Join(dir, "test-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "LEDGER", entry.Category)
	assert.Equal(t, "generated 3 tickets", entry.Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestNopLoggerIsSilent(t *testing.T) {
	l := NewNop()
	l.Error("x", "y")
	l.Close()

	var nilLogger *Logger
	nilLogger.Info("x", "y")
}
