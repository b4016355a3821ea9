// Package feed supplies agent and message records to the engine. Sources
// are read-only views of an external session store; the poller refreshes
// the engine from a source on a throttled cadence.
package feed

import (
	"context"
	"errors"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

var ErrUnknownSession = errors.New("feed: unknown session")

// Source is a read-only session store.
type Source interface {
	// Name identifies the source kind for metrics and logs.
	Name() string

	// Sessions lists sessions with events inside [from, to] (Unix ms),
	// most recent first.
	Sessions(ctx context.Context, from, to int64) ([]string, error)

	// FetchWindow returns the agent and message records of one session
	// that are relevant to [from, to]: spans overlapping the window and
	// messages inside it.
	FetchWindow(ctx context.Context, session string, from, to int64) ([]timeline.AgentSpan, []timeline.MessageEvent, error)
}

// Writer is implemented by sources that can also record events; used by
// the demo generator and the archive recorder.
type Writer interface {
	PutSpan(ctx context.Context, span timeline.AgentSpan) error
	PutMessage(ctx context.Context, msg timeline.MessageEvent) error
}

// overlaps reports whether a span intersects [from, to] given now for
// still-active spans.
func overlaps(s timeline.AgentSpan, from, to, now int64) bool {
	return s.StartTime <= to && s.EffectiveEnd(now) >= from
}
