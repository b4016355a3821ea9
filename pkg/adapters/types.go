// Package adapters imports agent run logs from external formats into a
// session store.
package adapters

import (
	"context"
	"errors"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

var (
	ErrNoSessions = errors.New("adapters: no sessions found in log")
	ErrBadRecord  = errors.New("adapters: malformed record")
)

// Store receives the imported records. Feed sources with write support
// satisfy this.
type Store interface {
	PutSpan(ctx context.Context, span timeline.AgentSpan) error
	PutMessage(ctx context.Context, msg timeline.MessageEvent) error
}

// Loader imports one log file into a store.
type Loader interface {
	// Name identifies the input format.
	Name() string

	// Load parses the file at path and writes its spans and messages.
	// Returns the distinct session IDs seen.
	Load(ctx context.Context, path string, store Store) ([]string, error)
}
