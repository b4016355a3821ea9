package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// MemorySource is an in-process session store, used by the demo generator
// and tests.
type MemorySource struct {
	mu    sync.RWMutex
	spans map[string]map[string]timeline.AgentSpan // session -> span id -> span
	msgs  map[string][]timeline.MessageEvent
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		spans: make(map[string]map[string]timeline.AgentSpan),
		msgs:  make(map[string][]timeline.MessageEvent),
	}
}

func (m *MemorySource) Name() string { return "memory" }

func (m *MemorySource) PutSpan(_ context.Context, span timeline.AgentSpan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bySession, ok := m.spans[span.SessionID]
	if !ok {
		bySession = make(map[string]timeline.AgentSpan)
		m.spans[span.SessionID] = bySession
	}
	bySession[span.ID] = span
	return nil
}

func (m *MemorySource) PutMessage(_ context.Context, msg timeline.MessageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs[msg.SessionID] = append(m.msgs[msg.SessionID], msg)
	return nil
}

func (m *MemorySource) Sessions(_ context.Context, from, to int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now().UnixMilli()
	latest := make(map[string]int64)
	for session, spans := range m.spans {
		for _, s := range spans {
			if !overlaps(s, from, to, now) {
				continue
			}
			if s.StartTime > latest[session] {
				latest[session] = s.StartTime
			}
		}
	}

	out := make([]string, 0, len(latest))
	for session := range latest {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if latest[out[i]] != latest[out[j]] {
			return latest[out[i]] > latest[out[j]]
		}
		return out[i] < out[j]
	})
	return out, nil
}

func (m *MemorySource) FetchWindow(_ context.Context, session string, from, to int64) ([]timeline.AgentSpan, []timeline.MessageEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now().UnixMilli()
	spans := make([]timeline.AgentSpan, 0, len(m.spans[session]))
	for _, s := range m.spans[session] {
		if overlaps(s, from, to, now) {
			spans = append(spans, s)
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].StartTime != spans[j].StartTime {
			return spans[i].StartTime < spans[j].StartTime
		}
		return spans[i].ID < spans[j].ID
	})

	msgs := make([]timeline.MessageEvent, 0, len(m.msgs[session]))
	for _, msg := range m.msgs[session] {
		if msg.Timestamp >= from && msg.Timestamp <= to {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp < msgs[j].Timestamp })
	return spans, msgs, nil
}
