package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// NopLogger returns a logger that discards all output
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogRecorder collects JSON log lines written by a CaptureLogger
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *LogRecorder) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

// Entries decodes every record logged so far, oldest first
func (l *LogRecorder) Entries() []map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(l.buf.Bytes()))
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Find returns the first record with the given message, or nil
func (l *LogRecorder) Find(msg string) map[string]any {
	for _, entry := range l.Entries() {
		if entry[slog.MessageKey] == msg {
			return entry
		}
	}
	return nil
}

// CaptureLogger returns a debug-level logger whose records can be inspected
func CaptureLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	logger := slog.New(slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, rec
}
