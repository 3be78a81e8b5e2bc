package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriter_EmptyPath(t *testing.T) {
	_, err := NewWriter("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestNewWriter_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.log")

	w, err := NewWriter(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	w, err := NewWriter(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Record(Entry{Op: "grow", MB: 300, ChunkMB: 8, TotalMB: 300}))
	require.NoError(t, w.Record(Entry{Op: "shrink", MB: 250, TotalMB: 50}))
	require.NoError(t, w.Record(Entry{Op: "clear", TotalMB: 0}))
	require.NoError(t, w.Record(Entry{Op: "grow", MB: -1, TotalMB: 0, Error: "mb and chunk must be > 0"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)

	var first Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "grow", first.Op)
	assert.Equal(t, 300, first.MB)
	assert.Equal(t, 8, first.ChunkMB)
	assert.Equal(t, 300, first.TotalMB)
	assert.False(t, first.Timestamp.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), first.Timestamp, time.Minute)

	var last Entry
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	assert.Equal(t, "mb and chunk must be > 0", last.Error)
}

func TestRecord_PreservesTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	w, err := NewWriter(path)
	require.NoError(t, err)
	defer w.Close()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, w.Record(Entry{Timestamp: ts, Op: "clear", TotalMB: 0}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry Entry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.True(t, entry.Timestamp.Equal(ts))
}

func TestRecord_AfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	w, err := NewWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.Error(t, w.Record(Entry{Op: "clear"}))

	// Closing twice is fine
	assert.NoError(t, w.Close())
}
