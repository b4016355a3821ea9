// Package autopan keeps the live edge of the timeline in view. The
// controller is an explicit state machine driven by one external Tick per
// frame. It owns no timers, so cancellation is immediate and tests run
// without a real clock.
package autopan

import (
	"math"
	"sync"
	"time"

	"github.com/your-org/agent-timeline/internal/layout"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

// State is the controller's phase.
type State int

const (
	// StateIdle: follow mode is off; ticks do nothing.
	StateIdle State = iota
	// StateTracking: each tick nudges panX toward the follow target.
	StateTracking
	// StateSuspended: a user interacted; ticks do nothing until the
	// inactivity timeout elapses or follow is explicitly re-armed.
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StateSuspended:
		return "suspended"
	}
	return "idle"
}

// Config tunes the control loop.
type Config struct {
	// EdgeFraction is where "now" should sit as a fraction of viewport
	// width. Near the right edge, since no data exists beyond now.
	EdgeFraction float64
	// Smoothing is the fraction of the residual applied per tick
	// (exponential smoothing, never a hard jump).
	Smoothing float64
	// StopThresholdPx: residuals below this are treated as converged.
	StopThresholdPx float64
	// SuspendTimeout is the user inactivity period before tracking resumes.
	SuspendTimeout time.Duration
	// Margins must match the coordinate mapper's margins.
	Margins timeline.Margins
}

// DefaultConfig returns the recommended tuning.
func DefaultConfig() Config {
	return Config{
		EdgeFraction:    0.92,
		Smoothing:       0.15,
		StopThresholdPx: 0.5,
		SuspendTimeout:  3 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.EdgeFraction <= 0 || c.EdgeFraction > 1 {
		c.EdgeFraction = 0.92
	}
	if c.Smoothing <= 0 || c.Smoothing >= 1 {
		c.Smoothing = 0.15
	}
	if c.StopThresholdPx <= 0 {
		c.StopThresholdPx = 0.5
	}
	if c.SuspendTimeout <= 0 {
		c.SuspendTimeout = 3 * time.Second
	}
	return c
}

// Controller nudges the pan offset toward the follow target while tracking
// and disengages the moment the user takes over.
type Controller struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	lastInput time.Time
}

// New builds a controller in the idle state.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg.withDefaults()}
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enable arms tracking (follow mode turned on). No-op while suspended: the
// inactivity timeout still applies.
func (c *Controller) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		c.state = StateTracking
	}
}

// Disable cancels the loop entirely. Any in-flight correction stops with it;
// an idle controller performs no work and schedules nothing.
func (c *Controller) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
}

// NoteUserInput suspends tracking immediately on any user pan/zoom/keyboard
// navigation.
func (c *Controller) NoteUserInput(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return
	}
	c.state = StateSuspended
	c.lastInput = now
}

// Resume re-arms tracking right away (an explicit reset-view or re-enable
// action), skipping the inactivity timeout.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateTracking
}

// TargetPanX computes the panX that places nowMs at EdgeFraction of the
// viewport width under the current transform.
func (c *Controller) TargetPanX(vp timeline.Viewport, nowMs int64) float64 {
	base := layout.TimeToX(nowMs, vp.TimeRange, vp.Zoom, 0, vp.Width, c.cfg.Margins)
	return c.cfg.EdgeFraction*vp.Width - base
}

// Tick advances the loop by one frame and returns the corrected panX plus
// whether it changed. Safe to call from any state: suspended and idle ticks
// do no work beyond the timeout check, and a tick with an unchanged,
// already-converged target is a no-op, so the controller cannot drift at
// rest. Non-finite intermediate math is treated as "no correction this
// tick" rather than poisoning the viewport.
func (c *Controller) Tick(vp timeline.Viewport, nowMs int64, wallNow time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle:
		return vp.PanX, false
	case StateSuspended:
		if wallNow.Sub(c.lastInput) < c.cfg.SuspendTimeout {
			return vp.PanX, false
		}
		c.state = StateTracking
	}

	target := c.cfg.EdgeFraction*vp.Width - layout.TimeToX(nowMs, vp.TimeRange, vp.Zoom, 0, vp.Width, c.cfg.Margins)
	residual := target - vp.PanX
	if math.IsNaN(residual) || math.IsInf(residual, 0) {
		return vp.PanX, false
	}
	if math.Abs(residual) < c.cfg.StopThresholdPx {
		return vp.PanX, false
	}
	return vp.PanX + c.cfg.Smoothing*residual, true
}
