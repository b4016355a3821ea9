package timeline

import "time"

// Detail is the level-of-detail configuration chosen for a layout pass.
type Detail struct {
	ShowLabels    bool `json:"show_labels"`
	ShowMessages  bool `json:"show_messages"`
	ShowDetails   bool `json:"show_details"`
	SimplifyPaths bool `json:"simplify_paths"`
	MaxAgents     int  `json:"max_agents"`
	MaxMessages   int  `json:"max_messages"`
}

// AgentPath is the positioned geometry for one agent: a branch leaving the
// orchestrator trunk at (X1, TrunkY) and running along its lane to X2.
// Path is an SVG-style path description; a renderer may use it directly or
// rebuild an equivalent curve from the endpoint coordinates.
type AgentPath struct {
	AgentID   string  `json:"agent_id"`
	Label     string  `json:"label,omitempty"`
	Type      string  `json:"type"`
	Status    Status  `json:"status"`
	Color     string  `json:"color,omitempty"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Path      string  `json:"path,omitempty"`
	LaneIndex int     `json:"lane_index"`
	BatchID   string  `json:"batch_id"`
	Selected  bool    `json:"selected,omitempty"`
}

// MessagePoint is the positioned dot for one message event.
type MessagePoint struct {
	MessageID string  `json:"message_id"`
	Sender    string  `json:"sender"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Selected  bool    `json:"selected,omitempty"`
}

// BatchMarker is the positioned spawn marker for one batch.
type BatchMarker struct {
	BatchID     string  `json:"batch_id"`
	BatchNumber int     `json:"batch_number"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	AgentCount  int     `json:"agent_count"`
}

// FrameStats summarizes one layout pass for metrics and LOD feedback.
type FrameStats struct {
	TotalAgents     int           `json:"total_agents"`
	VisibleAgents   int           `json:"visible_agents"`
	TotalMessages   int           `json:"total_messages"`
	VisibleMessages int           `json:"visible_messages"`
	Batches         int           `json:"batches"`
	Lanes           int           `json:"lanes"`
	LayoutDuration  time.Duration `json:"layout_duration_ns"`
}

// Frame is the full output of one layout pass: everything a renderer needs
// to draw without re-deriving layout math.
type Frame struct {
	SessionID   string         `json:"session_id,omitempty"`
	GeneratedAt int64          `json:"generated_at"`
	NowX        float64        `json:"now_x"`
	TrunkY      float64        `json:"trunk_y"`
	Viewport    Viewport       `json:"viewport"`
	Detail      Detail         `json:"detail"`
	Agents      []AgentPath    `json:"agents"`
	Messages    []MessagePoint `json:"messages"`
	Batches     []BatchMarker  `json:"batches"`
	Stats       FrameStats     `json:"stats"`
}
