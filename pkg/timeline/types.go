// Package timeline defines the plain-data types shared between the layout
// engine, the feed sources, and any rendering surface. Everything here is
// serializable and carries no behavior beyond small derived accessors.
package timeline

// Status is the lifecycle state of an agent on the timeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusTerminated Status = "terminated"
)

// Terminal reports whether the status marks the end of an agent's run.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusTerminated:
		return true
	}
	return false
}

// AgentSpan is one agent's lifetime on the timeline. Times are Unix
// milliseconds. EndTime is nil while the agent is still active; layout
// treats such spans as ending "now", recomputed every pass.
type AgentSpan struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	StartTime int64  `json:"start_time"`
	EndTime   *int64 `json:"end_time,omitempty"`
	Status    Status `json:"status"`

	// BatchID and LaneIndex are derived per layout pass; they are zero
	// values on records coming from a feed source.
	BatchID   string `json:"batch_id,omitempty"`
	LaneIndex int    `json:"lane_index,omitempty"`
}

// EffectiveEnd returns the span's end for interval computations: EndTime
// when set, otherwise now. Inconsistent timestamps (end before start,
// start in the future) clamp to a zero duration instead of going negative.
func (s AgentSpan) EffectiveEnd(now int64) int64 {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end < s.StartTime {
		return s.StartTime
	}
	return end
}

// Active reports whether the span has no recorded end.
func (s AgentSpan) Active() bool {
	return s.EndTime == nil
}

// DisplayName returns Name when set, falling back to ID.
func (s AgentSpan) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// SpawnBatch is a cluster of agents spawned in the same time bucket. The
// batch holds references to the shared spans, not copies.
type SpawnBatch struct {
	ID              string       `json:"id"`
	BucketTimestamp int64        `json:"bucket_timestamp"`
	BatchNumber     int          `json:"batch_number"`
	Agents          []*AgentSpan `json:"-"`
}

// MessageEvent is a point event attributed to a sender agent. It is created
// once from an external event and never mutated; its position is derived
// each layout pass by resolving Sender against the current span set.
type MessageEvent struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	Payload   []byte `json:"payload,omitempty"`
}

// TimeRange is the nominal time window of the view, in Unix milliseconds.
type TimeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Span returns the range width in milliseconds, never below 1.
func (r TimeRange) Span() int64 {
	if r.End <= r.Start {
		return 1
	}
	return r.End - r.Start
}

// Margins are the horizontal pixel reserves of the drawing area.
type Margins struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Viewport is the current view transform. Zoom is clamped by the engine;
// PanX/PanY are unconstrained and reset to zero on an explicit reset.
type Viewport struct {
	TimeRange  TimeRange `json:"time_range"`
	Zoom       float64   `json:"zoom"`
	PanX       float64   `json:"pan_x"`
	PanY       float64   `json:"pan_y"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	FollowMode bool      `json:"follow_mode"`
}
