package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_rag.log")
	l := NewIsolatedLogger(path)

	l.Info("ROUTER", "coarse scan", map[string]interface{}{"best": 0.82})
	l.Debug("ROUTER", "below file level", nil)
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"module":"ROUTER"`)
	assert.Contains(t, lines[0], `"message":"coarse scan"`)
}

func TestNopLogger(t *testing.T) {
	var l ILogger = NewNopLogger()
	l.Error("PIPELINE", "ignored", map[string]interface{}{"error": "x"})
	assert.NoError(t, l.Sync())
}
