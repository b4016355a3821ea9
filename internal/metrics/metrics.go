package metrics

import (
	"sync"
	"time"
)

// Recorder defines the metric hooks the engine and feed emit into.
type Recorder interface {
	ObserveLayoutPass(duration time.Duration, visibleAgents, visibleMessages, lanes int)
	ObserveCulled(agentsDropped, messagesDropped int)
	ObserveFetch(source string, status string, duration time.Duration)
	ObserveLODDowngrade()
	ObserveControlAction(action string)
}

// NoopRecorder drops everything; the default when metrics are disabled.
type NoopRecorder struct{}

func (NoopRecorder) ObserveLayoutPass(time.Duration, int, int, int) {}
func (NoopRecorder) ObserveCulled(int, int)                         {}
func (NoopRecorder) ObserveFetch(string, string, time.Duration)     {}
func (NoopRecorder) ObserveLODDowngrade()                           {}
func (NoopRecorder) ObserveControlAction(string)                    {}

// Snapshot is a point-in-time copy of the in-memory counters, used by the
// CLI summaries.
type Snapshot struct {
	LayoutPasses    int64
	TotalLayoutTime time.Duration
	AgentsDropped   int64
	MessagesDropped int64
	FetchErrors     int64
	LODDowngrades   int64
	ControlActions  int64
}

// MemoryRecorder accumulates counters in process.
type MemoryRecorder struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) ObserveLayoutPass(d time.Duration, _, _, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.LayoutPasses++
	m.snap.TotalLayoutTime += d
}

func (m *MemoryRecorder) ObserveCulled(agents, messages int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.AgentsDropped += int64(agents)
	m.snap.MessagesDropped += int64(messages)
}

func (m *MemoryRecorder) ObserveFetch(_ string, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status != "ok" {
		m.snap.FetchErrors++
	}
}

func (m *MemoryRecorder) ObserveLODDowngrade() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.LODDowngrades++
}

func (m *MemoryRecorder) ObserveControlAction(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.ControlActions++
}

// Snapshot returns a copy of the counters.
func (m *MemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
