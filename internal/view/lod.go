package view

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// Mode selects the level-of-detail policy.
type Mode string

const (
	// ModeFull renders everything the zoom level allows.
	ModeFull Mode = "full"
	// ModeAuto is entered by the Governor when frame time or dataset size
	// exceeds budget; it sheds labels and detail to stay responsive.
	ModeAuto Mode = "auto"
	// ModePerformance forces the most aggressive settings regardless of
	// zoom or dataset size.
	ModePerformance Mode = "performance"
)

// ParseMode validates a mode name from config or the control surface.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeFull:
		return ModeFull, nil
	case ModeAuto:
		return ModeAuto, nil
	case ModePerformance:
		return ModePerformance, nil
	default:
		return "", fmt.Errorf("unknown lod mode: %q", raw)
	}
}

const (
	labelZoomFloor   = 0.5
	messageZoomFloor = 0.3

	labelAgentCeiling   = 150
	messageAgentCeiling = 300
	messageCeiling      = 500
	simplifyCeiling     = 400
)

// CalculateLOD chooses the rendering detail for the current zoom, dataset
// size, and mode. Rules are monotonic in dataset size and inverse to
// zoom-out: labels drop first, then messages and details, then the element
// caps shrink. Unrecognized modes get the full defaults.
func CalculateLOD(zoom float64, agentCount, messageCount int, mode Mode) timeline.Detail {
	d := timeline.Detail{
		ShowLabels:   true,
		ShowMessages: true,
		ShowDetails:  true,
		MaxAgents:    500,
		MaxMessages:  1000,
	}

	switch mode {
	case ModePerformance:
		return timeline.Detail{
			SimplifyPaths: true,
			MaxAgents:     100,
			MaxMessages:   100,
		}
	case ModeAuto:
		d.ShowLabels = false
		d.SimplifyPaths = true
		d.MaxAgents = 250
		d.MaxMessages = 300
	}

	if zoom < labelZoomFloor || agentCount > labelAgentCeiling {
		d.ShowLabels = false
	}
	if zoom < messageZoomFloor || agentCount > messageAgentCeiling || messageCount > messageCeiling {
		d.ShowMessages = false
		d.ShowDetails = false
	}
	if agentCount > simplifyCeiling {
		d.SimplifyPaths = true
		if d.MaxAgents > 250 {
			d.MaxAgents = 250
		}
		if d.MaxMessages > 300 {
			d.MaxMessages = 300
		}
	}
	return d
}

// Governor watches measured frame times and dataset sizes and latches the
// auto performance mode. Engagement is sticky: once tripped it stays until
// Reset, so detail does not oscillate frame to frame.
type Governor struct {
	mu             sync.Mutex
	frameBudget    time.Duration
	agentThreshold int
	forced         Mode
	engaged        bool
}

// NewGovernor builds a governor. Zero arguments fall back to a 25ms pass
// budget (~40fps) and a 200 agent threshold.
func NewGovernor(frameBudget time.Duration, agentThreshold int) *Governor {
	if frameBudget <= 0 {
		frameBudget = 25 * time.Millisecond
	}
	if agentThreshold <= 0 {
		agentThreshold = 200
	}
	return &Governor{frameBudget: frameBudget, agentThreshold: agentThreshold}
}

// Observe feeds one layout pass measurement into the governor.
func (g *Governor) Observe(frameTime time.Duration, agentCount int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if frameTime > g.frameBudget || agentCount > g.agentThreshold {
		g.engaged = true
	}
}

// Force pins the mode (e.g. a user selecting performance mode). An empty
// mode clears the pin.
func (g *Governor) Force(mode Mode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forced = mode
}

// Reset releases a latched auto engagement. Manual reset is the only way
// out, per the no-oscillation rule.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engaged = false
}

// Mode returns the effective LOD mode.
func (g *Governor) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.forced != "" {
		return g.forced
	}
	if g.engaged {
		return ModeAuto
	}
	return ModeFull
}
