// Package engine composes the layout core into one swimlane engine: it owns
// the viewport and selection state, runs layout passes over data snapshots,
// and exposes the control surface the UI drives. All rendering surfaces are
// thin consumers of the Frame it produces.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/your-org/agent-timeline/internal/audit"
	"github.com/your-org/agent-timeline/internal/autopan"
	"github.com/your-org/agent-timeline/internal/layout"
	"github.com/your-org/agent-timeline/internal/metrics"
	"github.com/your-org/agent-timeline/internal/style"
	"github.com/your-org/agent-timeline/internal/view"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

// Options collects the layout and interaction tuning for one engine.
type Options struct {
	LaneHeight float64
	TrunkY     float64
	// HeaderClearance is the vertical gap between a batch's base line and
	// its first lane. Zero falls back to the pixel default; terminal
	// renderers shrink it to cell scale.
	HeaderClearance float64
	Margins         timeline.Margins
	BucketWidthMs   int64
	Alloc           layout.AllocOptions
	View            view.Config
	AutoPan         autopan.Config
	CullThreshold   int
	OverscanPx      float64

	// Governor tuning.
	FrameBudget    time.Duration
	AgentThreshold int
}

// DefaultOptions matches the interactive dashboard defaults.
func DefaultOptions() Options {
	return Options{
		LaneHeight:      44,
		TrunkY:          40,
		HeaderClearance: layout.HeaderClearance,
		Margins:         timeline.Margins{Left: 120, Right: 50},
		BucketWidthMs:   layout.DefaultBucketWidthMs,
		View:            view.DefaultConfig(),
		AutoPan:         autopan.DefaultConfig(),
	}
}

// Engine is the single writer for viewport, selection, and data snapshot
// state. Layout passes are read-only over that state and produce a fresh
// Frame each time; interleaved ticks and data arrivals serialize on one
// lock.
type Engine struct {
	mu   sync.Mutex
	opts Options

	sessionID string
	vp        timeline.Viewport
	spans     []timeline.AgentSpan
	msgs      []timeline.MessageEvent

	// sticky lanes survive between passes so already-drawn paths never
	// jump; only agents new to the allocator pack into freed space.
	sticky map[string]int

	selectedAgent   string
	selectedMessage string

	governor *view.Governor
	pan      *autopan.Controller
	lastMode view.Mode

	recorder metrics.Recorder
	log      *audit.Logger
	tracer   oteltrace.Tracer
}

// New builds an engine. recorder and log may be nil.
func New(opts Options, recorder metrics.Recorder, log *audit.Logger) *Engine {
	if opts.LaneHeight <= 0 {
		opts = DefaultOptions()
	}
	if opts.HeaderClearance <= 0 {
		opts.HeaderClearance = layout.HeaderClearance
	}
	opts.AutoPan.Margins = opts.Margins
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	e := &Engine{
		opts:     opts,
		sticky:   make(map[string]int),
		governor: view.NewGovernor(opts.FrameBudget, opts.AgentThreshold),
		pan:      autopan.New(opts.AutoPan),
		lastMode: view.ModeFull,
		recorder: recorder,
		log:      log,
		tracer:   noop.NewTracerProvider().Tracer("engine"),
	}
	e.vp = timeline.Viewport{Zoom: 1, Width: 1200, Height: 800}
	return e
}

// SetTracer installs an OpenTelemetry tracer for layout pass spans. Nil
// restores the no-op tracer.
func (e *Engine) SetTracer(t oteltrace.Tracer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t == nil {
		t = noop.NewTracerProvider().Tracer("engine")
	}
	e.tracer = t
}

// SetSession switches the engine to a session, dropping data, selection,
// and sticky lanes.
func (e *Engine) SetSession(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionID == id {
		return
	}
	e.sessionID = id
	e.spans = nil
	e.msgs = nil
	e.sticky = make(map[string]int)
	e.selectedAgent = ""
	e.selectedMessage = ""
}

// SessionID returns the current session.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// SetData replaces the engine's data snapshot with owned copies. Sticky
// lane assignments for agents no longer present are released so later
// spawns can reuse their lanes.
func (e *Engine) SetData(spans []timeline.AgentSpan, msgs []timeline.MessageEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.spans = append(e.spans[:0], spans...)
	e.msgs = append(e.msgs[:0], msgs...)

	present := make(map[string]struct{}, len(spans))
	for _, s := range spans {
		present[s.ID] = struct{}{}
	}
	for id := range e.sticky {
		if _, ok := present[id]; !ok {
			delete(e.sticky, id)
		}
	}
}

// SetExtent updates the pixel extents reported by the rendering surface.
func (e *Engine) SetExtent(width, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if width > 0 {
		e.vp.Width = width
	}
	if height > 0 {
		e.vp.Height = height
	}
}

// Viewport returns a copy of the current view transform.
func (e *Engine) Viewport() timeline.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp
}

// RestoreViewport replaces the view transform wholesale. Used when replaying
// a recorded session; zoom is still clamped to the configured bounds.
func (e *Engine) RestoreViewport(vp timeline.Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vp = view.ClampZoom(vp, e.opts.View)
}

// Layout runs one full pass over the current snapshot and returns the frame
// a renderer needs. It never fails: malformed state degrades detail, not
// availability.
func (e *Engine) Layout(nowMs int64) timeline.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	started := time.Now()

	_, span := e.tracer.Start(context.Background(), "layout.pass")
	defer span.End()

	// Work on pointer views of the owned copies; the grouper and allocator
	// annotate BatchID and LaneIndex in place.
	ptrs := make([]*timeline.AgentSpan, len(e.spans))
	for i := range e.spans {
		ptrs[i] = &e.spans[i]
	}

	batches := layout.GroupIntoBatches(ptrs, e.opts.BucketWidthMs)
	maxLanes := e.allocate(batches, nowMs)
	bases := e.batchBases(batches)

	mode := e.governor.Mode()
	if mode == view.ModeAuto && e.lastMode != view.ModeAuto {
		e.recorder.ObserveLODDowngrade()
		if e.log.Enabled() {
			_ = e.log.Write("lod_downgrade", e.sessionID, string(mode), nil)
		}
	}
	e.lastMode = mode
	detail := view.CalculateLOD(e.vp.Zoom, len(ptrs), len(e.msgs), mode)

	cullCfg := view.CullConfig{
		Margins:           e.opts.Margins,
		LaneHeight:        e.opts.LaneHeight,
		HeaderClearance:   e.opts.HeaderClearance,
		BatchBaseY:        bases,
		OverscanPx:        e.opts.OverscanPx,
		CullThreshold:     e.opts.CullThreshold,
		MaxAgents:         detail.MaxAgents,
		MaxMessages:       detail.MaxMessages,
		SelectedAgentID:   e.selectedAgent,
		SelectedMessageID: e.selectedMessage,
	}
	visible := view.CullAgents(ptrs, e.vp, nowMs, cullCfg)

	frame := e.assemble(batches, bases, visible, nowMs, detail, cullCfg)
	frame.Stats.TotalAgents = len(ptrs)
	frame.Stats.TotalMessages = len(e.msgs)
	frame.Stats.Batches = len(batches)
	frame.Stats.Lanes = maxLanes
	frame.Stats.LayoutDuration = time.Since(started)

	span.SetAttributes(
		attribute.String("session", e.sessionID),
		attribute.Int("agents.total", frame.Stats.TotalAgents),
		attribute.Int("agents.visible", frame.Stats.VisibleAgents),
		attribute.Int("lanes", maxLanes),
	)

	e.governor.Observe(frame.Stats.LayoutDuration, len(ptrs))
	e.recorder.ObserveLayoutPass(frame.Stats.LayoutDuration, frame.Stats.VisibleAgents, frame.Stats.VisibleMessages, maxLanes)
	e.recorder.ObserveCulled(frame.Stats.TotalAgents-frame.Stats.VisibleAgents, frame.Stats.TotalMessages-frame.Stats.VisibleMessages)
	return frame
}

// allocate assigns lanes batch by batch, seeding each batch's occupancy
// with the sticky assignments from earlier passes. Returns the widest lane
// count seen across batches.
func (e *Engine) allocate(batches []timeline.SpawnBatch, nowMs int64) int {
	maxLanes := 0
	for _, b := range batches {
		occ := layout.NewOccupancy()
		newcomers := make([]*timeline.AgentSpan, 0, len(b.Agents))
		for _, s := range b.Agents {
			if lane, ok := e.sticky[s.ID]; ok {
				start, end := layout.AllocationInterval(*s, nowMs, e.opts.Alloc)
				occ.Reserve(lane, start, end)
				s.LaneIndex = lane
				continue
			}
			newcomers = append(newcomers, s)
		}
		assigned := layout.AllocateInto(occ, newcomers, nowMs, e.opts.Alloc)
		for _, s := range newcomers {
			lane := assigned[s.ID]
			s.LaneIndex = lane
			e.sticky[s.ID] = lane
		}
		if n := occ.MaxLane() + 1; n > maxLanes {
			maxLanes = n
		}
	}
	return maxLanes
}

// batchBases stacks batch blocks vertically and returns the unpanned base
// y of each. Culling and assembly both read from this map so a span is
// y-tested exactly where it will be drawn.
func (e *Engine) batchBases(batches []timeline.SpawnBatch) map[string]float64 {
	bases := make(map[string]float64, len(batches))
	base := e.opts.TrunkY
	for _, b := range batches {
		bases[b.ID] = base
		lanes := 0
		for _, s := range b.Agents {
			// The shared overflow lane does not widen the batch block.
			if s.LaneIndex+1 > lanes && s.LaneIndex < e.opts.Alloc.OverflowLane() {
				lanes = s.LaneIndex + 1
			}
		}
		base += e.opts.HeaderClearance + float64(lanes)*e.opts.LaneHeight
	}
	return bases
}

// assemble turns allocated batches plus the visible subset into geometry.
func (e *Engine) assemble(batches []timeline.SpawnBatch, bases map[string]float64, visible []*timeline.AgentSpan, nowMs int64, detail timeline.Detail, cullCfg view.CullConfig) timeline.Frame {
	vp := e.vp
	palette := style.FromSpans(visible)

	visibleSet := make(map[string]*timeline.AgentSpan, len(visible))
	for _, s := range visible {
		if s != nil {
			visibleSet[s.ID] = s
		}
	}

	frame := timeline.Frame{
		SessionID:   e.sessionID,
		GeneratedAt: nowMs,
		TrunkY:      e.opts.TrunkY + vp.PanY,
		NowX:        layout.TimeToX(nowMs, vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, e.opts.Margins),
		Viewport:    vp,
		Detail:      detail,
	}

	trunkY := e.opts.TrunkY + vp.PanY
	spanY := make(map[string]float64, len(visible))

	for _, b := range batches {
		base := bases[b.ID]
		for _, s := range b.Agents {
			if _, ok := visibleSet[s.ID]; !ok {
				continue
			}
			x1 := layout.TimeToX(s.StartTime, vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, e.opts.Margins)
			x2 := layout.TimeToX(s.EffectiveEnd(nowMs), vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, e.opts.Margins)
			y := layout.LaneToY(s.LaneIndex, base+vp.PanY, e.opts.LaneHeight, e.opts.HeaderClearance)
			spanY[s.ID] = y
			if s.Name != "" {
				spanY[s.Name] = y
			}

			path := timeline.AgentPath{
				AgentID:   s.ID,
				Type:      s.Type,
				Status:    s.Status,
				Color:     palette.For(s.Type).Color,
				X1:        x1,
				Y1:        y,
				X2:        x2,
				Y2:        y,
				Path:      layout.BranchPath(x1, trunkY, x2, y, detail.SimplifyPaths),
				LaneIndex: s.LaneIndex,
				BatchID:   s.BatchID,
				Selected:  s.ID == e.selectedAgent,
			}
			if detail.ShowLabels {
				path.Label = s.DisplayName()
			}
			frame.Agents = append(frame.Agents, path)
		}

		frame.Batches = append(frame.Batches, timeline.BatchMarker{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			X:           layout.TimeToX(b.BucketTimestamp, vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, e.opts.Margins),
			Y:           base + vp.PanY,
			AgentCount:  len(b.Agents),
		})
	}

	frame.Stats.VisibleAgents = len(frame.Agents)

	if detail.ShowMessages {
		msgs := view.CullMessages(e.msgs, visible, vp, cullCfg)
		for _, m := range msgs {
			y, ok := spanY[m.Sender]
			if !ok {
				continue
			}
			frame.Messages = append(frame.Messages, timeline.MessagePoint{
				MessageID: m.ID,
				Sender:    m.Sender,
				X:         layout.TimeToX(m.Timestamp, vp.TimeRange, vp.Zoom, vp.PanX, vp.Width, e.opts.Margins),
				Y:         y,
				Selected:  m.ID != "" && m.ID == e.selectedMessage,
			})
		}
	}
	frame.Stats.VisibleMessages = len(frame.Messages)
	return frame
}

// TickAutoPan advances the follow loop one frame. Returns true when panX
// moved.
func (e *Engine) TickAutoPan(nowMs int64, wallNow time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.vp.FollowMode {
		return false
	}
	panX, changed := e.pan.Tick(e.vp, nowMs, wallNow)
	if changed {
		e.vp.PanX = panX
	}
	return changed
}

// AutoPanState exposes the controller phase for diagnostics and tests.
func (e *Engine) AutoPanState() autopan.State {
	return e.pan.State()
}

// --- control surface ---
// Each action is a synchronous state mutation honored on the next layout
// pass. User gestures suspend auto-pan; explicit reset and window selection
// re-arm it.

func (e *Engine) ZoomIn() {
	e.mu.Lock()
	e.vp = view.ZoomIn(e.vp, e.opts.View)
	e.mu.Unlock()
	e.userGesture("zoom_in", "")
}

func (e *Engine) ZoomOut() {
	e.mu.Lock()
	e.vp = view.ZoomOut(e.vp, e.opts.View)
	e.mu.Unlock()
	e.userGesture("zoom_out", "")
}

func (e *Engine) Pan(dx, dy float64) {
	e.mu.Lock()
	e.vp = view.Pan(e.vp, dx, dy)
	e.mu.Unlock()
	e.userGesture("pan", fmt.Sprintf("dx=%.1f dy=%.1f", dx, dy))
}

// ResetView restores zoom and pan and re-arms follow tracking immediately.
func (e *Engine) ResetView() {
	e.mu.Lock()
	e.vp = view.Reset(e.vp, e.opts.View)
	e.vp.FollowMode = true
	e.mu.Unlock()
	e.pan.Resume()
	e.record("reset_view", "")
}

func (e *Engine) SetFollowMode(enabled bool) {
	e.mu.Lock()
	e.vp.FollowMode = enabled
	e.mu.Unlock()
	if enabled {
		e.pan.Enable()
		e.pan.Resume()
	} else {
		e.pan.Disable()
	}
	e.record("set_follow_mode", fmt.Sprintf("%t", enabled))
}

// SetWindow selects a nominal time window; by convention this re-enables
// follow mode.
func (e *Engine) SetWindow(w timeline.Window, nowMs int64) {
	e.mu.Lock()
	e.vp = view.SetWindow(e.vp, w, nowMs, e.opts.View)
	e.mu.Unlock()
	e.pan.Enable()
	e.pan.Resume()
	e.record("set_window", string(w))
}

func (e *Engine) SelectAgent(id string) {
	e.mu.Lock()
	e.selectedAgent = id
	e.mu.Unlock()
	e.record("select_agent", id)
}

func (e *Engine) SelectMessage(id string) {
	e.mu.Lock()
	e.selectedMessage = id
	e.mu.Unlock()
	e.record("select_message", id)
}

func (e *Engine) ClearSelection() {
	e.mu.Lock()
	e.selectedAgent = ""
	e.selectedMessage = ""
	e.mu.Unlock()
	e.record("clear_selection", "")
}

// ResetLOD releases a latched auto performance mode.
func (e *Engine) ResetLOD() {
	e.governor.Reset()
	e.record("reset_lod", "")
}

// ForceLODMode pins the LOD mode; empty clears the pin.
func (e *Engine) ForceLODMode(mode view.Mode) {
	e.governor.Force(mode)
	e.record("force_lod", string(mode))
}

// Selection returns the current selection ids.
func (e *Engine) Selection() (agentID, messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedAgent, e.selectedMessage
}

func (e *Engine) userGesture(action, detail string) {
	e.pan.NoteUserInput(time.Now())
	e.record(action, detail)
}

func (e *Engine) record(action, detail string) {
	e.recorder.ObserveControlAction(action)
	if e.log.Enabled() {
		_ = e.log.Write(action, e.sessionID, detail, nil)
	}
}
