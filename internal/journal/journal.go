// Package journal records pool operations as JSON lines, one entry per
// request, so an operator can reconstruct what pressure was applied to a
// process and when.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry represents one recorded pool operation
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Op        string    `json:"op"` // "grow", "shrink", "converge", "clear"
	MB        int       `json:"mb,omitempty"`
	ChunkMB   int       `json:"chunk_mb,omitempty"`
	TotalMB   int       `json:"total_mb"`
	Error     string    `json:"error,omitempty"`
}

// Writer appends entries to a journal file in JSON-lines format
type Writer struct {
	path   string
	file   *os.File
	lock   sync.Mutex
	logger *slog.Logger
}

// NewWriter opens (or creates) a journal file for appending
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("journal file path cannot be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	return &Writer{
		path:   path,
		file:   file,
		logger: slog.Default(),
	}, nil
}

// Record writes one entry to the journal file
func (w *Writer) Record(entry Entry) error {
	if w.file == nil {
		return fmt.Errorf("journal file not initialized")
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}

	if err := w.file.Sync(); err != nil {
		w.logger.Warn("failed to sync journal file", slog.String("error", err.Error()))
	}

	return nil
}

// Close closes the journal file
func (w *Writer) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
