package view

import (
	"math"
	"sort"

	"github.com/your-org/agent-timeline/internal/layout"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

const (
	// DefaultOverscanPx keeps elements just past the viewport edge alive so
	// panning does not pop them in and out.
	DefaultOverscanPx = 40.0

	// DefaultCullThreshold is the set size below which culling is skipped
	// entirely; small sessions render whole.
	DefaultCullThreshold = 50
)

// CullConfig parameterizes one culling pass.
type CullConfig struct {
	Margins         timeline.Margins
	LaneHeight      float64
	HeaderClearance float64
	OverscanPx      float64
	CullThreshold   int

	// BatchBaseY maps batch IDs to the unpanned base y of the batch block,
	// stacked the same way the frame assembler stacks them. A span whose
	// batch has no entry skips the vertical test; a stale base must never
	// turn into a blank view.
	BatchBaseY map[string]float64

	// MaxAgents / MaxMessages are the LOD-provided caps applied after
	// visibility filtering. Zero means uncapped.
	MaxAgents   int
	MaxMessages int

	// Selected elements survive culling unconditionally so a user's
	// selection never silently disappears.
	SelectedAgentID   string
	SelectedMessageID string
}

func (c CullConfig) withDefaults() CullConfig {
	if c.OverscanPx <= 0 {
		c.OverscanPx = DefaultOverscanPx
	}
	if c.CullThreshold <= 0 {
		c.CullThreshold = DefaultCullThreshold
	}
	if c.LaneHeight <= 0 {
		c.LaneHeight = 44
	}
	return c
}

// viewportUsable reports whether the viewport can be culled against at all.
// A malformed viewport disables culling: a degraded full render beats a
// blank view.
func viewportUsable(vp timeline.Viewport) bool {
	return vp.Width > 0 && vp.Height > 0 &&
		!math.IsNaN(vp.Width) && !math.IsNaN(vp.Height) &&
		!math.IsNaN(vp.Zoom) && !math.IsInf(vp.Zoom, 0) && vp.Zoom > 0
}

// CullAgents filters spans down to those intersecting the visible window,
// then applies the size cap keeping the most recent spans by start time.
// The selected span always survives.
func CullAgents(spans []*timeline.AgentSpan, vp timeline.Viewport, nowMs int64, cfg CullConfig) []*timeline.AgentSpan {
	cfg = cfg.withDefaults()
	if !viewportUsable(vp) {
		return spans
	}
	if len(spans) <= cfg.CullThreshold && (cfg.MaxAgents == 0 || len(spans) <= cfg.MaxAgents) {
		return spans
	}

	visible := make([]*timeline.AgentSpan, 0, len(spans))
	var selected *timeline.AgentSpan
	for _, s := range spans {
		if s == nil {
			continue
		}
		if s.ID == cfg.SelectedAgentID {
			selected = s
		}
		x1 := layout.TimeToX(s.StartTime, vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, cfg.Margins)
		x2 := layout.TimeToX(s.EffectiveEnd(nowMs), vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, cfg.Margins)
		if x2 < -cfg.OverscanPx || x1 > vp.Width+cfg.OverscanPx {
			continue
		}
		if base, ok := cfg.BatchBaseY[s.BatchID]; ok {
			y := layout.LaneToY(s.LaneIndex, base+vp.PanY, cfg.LaneHeight, cfg.HeaderClearance)
			if y < -cfg.OverscanPx || y > vp.Height+cfg.OverscanPx {
				continue
			}
		}
		visible = append(visible, s)
	}

	visible = capMostRecent(visible, cfg.MaxAgents)
	if selected != nil && !containsSpan(visible, selected.ID) {
		visible = append(visible, selected)
	}
	return visible
}

// CullMessages filters messages to those whose sender resolves to a span in
// the rendered set and whose x position is inside the visible window, capped
// to the most recent. The selected message always survives.
func CullMessages(msgs []timeline.MessageEvent, spans []*timeline.AgentSpan, vp timeline.Viewport, cfg CullConfig) []timeline.MessageEvent {
	cfg = cfg.withDefaults()

	bySender := make(map[string]*timeline.AgentSpan, len(spans))
	for _, s := range spans {
		if s == nil {
			continue
		}
		bySender[s.ID] = s
		if s.Name != "" {
			bySender[s.Name] = s
		}
	}

	usable := viewportUsable(vp)
	visible := make([]timeline.MessageEvent, 0, len(msgs))
	var selected *timeline.MessageEvent
	for i := range msgs {
		m := msgs[i]
		if m.ID != "" && m.ID == cfg.SelectedMessageID {
			selected = &msgs[i]
		}
		if _, ok := bySender[m.Sender]; !ok {
			continue
		}
		if usable {
			x := layout.TimeToX(m.Timestamp, vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, cfg.Margins)
			if x < -cfg.OverscanPx || x > vp.Width+cfg.OverscanPx {
				continue
			}
		}
		visible = append(visible, m)
	}

	if cfg.MaxMessages > 0 && len(visible) > cfg.MaxMessages {
		sort.Slice(visible, func(i, j int) bool { return visible[i].Timestamp > visible[j].Timestamp })
		visible = visible[:cfg.MaxMessages]
		sort.Slice(visible, func(i, j int) bool { return visible[i].Timestamp < visible[j].Timestamp })
	}
	if selected != nil && !containsMessage(visible, selected.ID) {
		visible = append(visible, *selected)
	}
	return visible
}

func capMostRecent(spans []*timeline.AgentSpan, max int) []*timeline.AgentSpan {
	if max <= 0 || len(spans) <= max {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].StartTime > spans[j].StartTime })
	spans = spans[:max]
	sort.Slice(spans, func(i, j int) bool { return spans[i].StartTime < spans[j].StartTime })
	return spans
}

func containsSpan(spans []*timeline.AgentSpan, id string) bool {
	for _, s := range spans {
		if s != nil && s.ID == id {
			return true
		}
	}
	return false
}

func containsMessage(msgs []timeline.MessageEvent, id string) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}
