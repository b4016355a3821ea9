// Package layout holds the pure geometry core of the swimlane engine:
// time-to-pixel mapping, spawn-batch grouping, and lane allocation. All
// functions here are deterministic and side-effect free unless documented
// otherwise; the engine recomputes them from scratch every layout pass.
package layout

import (
	"fmt"
	"math"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// HeaderClearance is the default vertical gap between a batch's base line
// and its first lane.
const HeaderClearance = 60.0

// TimeToX maps a timestamp onto the horizontal pixel axis: linear
// interpolation of ts between the range endpoints onto
// [margins.Left, width-margins.Right], scaled by zoom and offset by panX.
// For a fixed zoom and pan the result is monotonic in ts, which left-to-right
// ordering and hit-testing rely on.
func TimeToX(ts int64, tr timeline.TimeRange, zoom, panX, viewportWidth float64, m timeline.Margins) float64 {
	usable := viewportWidth - m.Left - m.Right
	if usable < 0 || math.IsNaN(usable) || math.IsInf(usable, 0) {
		usable = 0
	}
	frac := float64(ts-tr.Start) / float64(tr.Span())
	return m.Left + frac*usable*zoom + panX
}

// XToTime is the inverse of TimeToX for the same transform, used by
// hit-testing and by the auto-pan target computation.
func XToTime(x float64, tr timeline.TimeRange, zoom, panX, viewportWidth float64, m timeline.Margins) int64 {
	usable := viewportWidth - m.Left - m.Right
	if usable <= 0 || zoom == 0 {
		return tr.Start
	}
	frac := (x - panX - m.Left) / (usable * zoom)
	return tr.Start + int64(math.Round(frac*float64(tr.Span())))
}

// LaneToY maps a lane index onto the vertical pixel axis below a batch's
// base line. Defined for every laneIndex >= 0. A clearance <= 0 falls back
// to HeaderClearance.
func LaneToY(laneIndex int, batchBaseY, laneHeight, clearance float64) float64 {
	if clearance <= 0 {
		clearance = HeaderClearance
	}
	return batchBaseY + clearance + float64(laneIndex)*laneHeight
}

// BranchPath builds an SVG path for an agent branch: a cubic curve from the
// trunk at (x1, trunkY) down to the lane at (x1+bend, y), then a straight
// run to x2. Simplified paths skip the curve and draw the lane run only.
func BranchPath(x1, trunkY, x2, y float64, simplify bool) string {
	if simplify {
		return fmt.Sprintf("M %.1f %.1f L %.1f %.1f", x1, y, x2, y)
	}
	bend := math.Min(24, math.Max(8, (x2-x1)/4))
	return fmt.Sprintf("M %.1f %.1f C %.1f %.1f %.1f %.1f %.1f %.1f L %.1f %.1f",
		x1, trunkY,
		x1, trunkY+(y-trunkY)/2,
		x1+bend, y,
		x1+bend, y,
		x2, y)
}
