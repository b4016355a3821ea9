// Package view holds the viewport-facing half of the engine: viewport
// transforms, visibility culling, and level-of-detail selection. Functions
// take explicit snapshots and return new values; the engine owns the single
// writable copy.
package view

import (
	"math"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// Config bounds the viewport transform.
type Config struct {
	ZoomMin  float64
	ZoomMax  float64
	ZoomStep float64
}

// DefaultConfig matches the interactive defaults of the dashboard.
func DefaultConfig() Config {
	return Config{ZoomMin: 0.1, ZoomMax: 10, ZoomStep: 1.2}
}

func (c Config) withDefaults() Config {
	if c.ZoomMin <= 0 {
		c.ZoomMin = 0.1
	}
	if c.ZoomMax <= c.ZoomMin {
		c.ZoomMax = 10
	}
	if c.ZoomStep <= 1 {
		c.ZoomStep = 1.2
	}
	return c
}

// ClampZoom forces the viewport zoom into [ZoomMin, ZoomMax], replacing a
// non-finite zoom with 1.
func ClampZoom(vp timeline.Viewport, cfg Config) timeline.Viewport {
	cfg = cfg.withDefaults()
	z := vp.Zoom
	if math.IsNaN(z) || math.IsInf(z, 0) || z == 0 {
		z = 1
	}
	if z < cfg.ZoomMin {
		z = cfg.ZoomMin
	}
	if z > cfg.ZoomMax {
		z = cfg.ZoomMax
	}
	vp.Zoom = z
	return vp
}

// ZoomIn multiplies zoom by the configured step, clamped.
func ZoomIn(vp timeline.Viewport, cfg Config) timeline.Viewport {
	cfg = cfg.withDefaults()
	vp.Zoom *= cfg.ZoomStep
	return ClampZoom(vp, cfg)
}

// ZoomOut divides zoom by the configured step, clamped.
func ZoomOut(vp timeline.Viewport, cfg Config) timeline.Viewport {
	cfg = cfg.withDefaults()
	vp.Zoom /= cfg.ZoomStep
	return ClampZoom(vp, cfg)
}

// Pan offsets the viewport by screen-space deltas. Pan offsets are
// unconstrained and may go negative.
func Pan(vp timeline.Viewport, dx, dy float64) timeline.Viewport {
	if !math.IsNaN(dx) && !math.IsInf(dx, 0) {
		vp.PanX += dx
	}
	if !math.IsNaN(dy) && !math.IsInf(dy, 0) {
		vp.PanY += dy
	}
	return vp
}

// Reset restores zoom 1 and zero pan while keeping the time range and
// extents.
func Reset(vp timeline.Viewport, cfg Config) timeline.Viewport {
	vp.Zoom = 1
	vp.PanX = 0
	vp.PanY = 0
	return ClampZoom(vp, cfg)
}

// SetWindow points the viewport at a nominal window ending at now, resets
// the pan, and re-enables follow mode.
func SetWindow(vp timeline.Viewport, w timeline.Window, nowMs int64, cfg Config) timeline.Viewport {
	vp.TimeRange = w.Range(nowMs)
	vp.PanX = 0
	vp.PanY = 0
	vp.FollowMode = true
	return ClampZoom(vp, cfg)
}
