// Package audit writes a JSONL record of control-surface interactions and
// engine degradations, useful when reconstructing why a dashboard looked the
// way it did.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event is one audit-log record.
type Event struct {
	Timestamp string `json:"ts"`
	Action    string `json:"action"`
	Target    string `json:"target,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger appends JSONL audit records. A nil or pathless logger is disabled
// and drops writes silently.
type Logger struct {
	mu   sync.Mutex
	path string
}

func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Enabled() bool {
	return l != nil && l.path != ""
}

// Write appends one record.
func (l *Logger) Write(action, target, detail string, err error) error {
	if !l.Enabled() {
		return nil
	}

	ev := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Action:    action,
		Target:    target,
		Detail:    detail,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	b, mErr := json.Marshal(ev)
	if mErr != nil {
		return fmt.Errorf("audit marshal: %w", mErr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if mkErr := os.MkdirAll(filepath.Dir(l.path), 0o755); mkErr != nil {
		return fmt.Errorf("audit mkdir: %w", mkErr)
	}
	f, oErr := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if oErr != nil {
		return fmt.Errorf("audit open: %w", oErr)
	}
	defer f.Close()

	if _, wErr := f.Write(append(b, '\n')); wErr != nil {
		return fmt.Errorf("audit write: %w", wErr)
	}
	return nil
}
