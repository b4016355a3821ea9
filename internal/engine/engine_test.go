package engine

import (
	"fmt"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/your-org/agent-timeline/internal/autopan"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

func newTestEngine() *Engine {
	e := New(DefaultOptions(), nil, nil)
	e.SetSession("sess-1")
	e.SetExtent(1200, 800)
	return e
}

func ended(start, end int64) timeline.AgentSpan {
	return timeline.AgentSpan{
		StartTime: start,
		EndTime:   &end,
		Status:    timeline.StatusCompleted,
		Type:      "worker",
		SessionID: "sess-1",
	}
}

func TestLayoutEmptySnapshot(t *testing.T) {
	e := newTestEngine()
	e.SetWindow(timeline.Window1h, 60000)

	frame := e.Layout(60000)
	if len(frame.Agents) != 0 || len(frame.Batches) != 0 {
		t.Fatalf("empty snapshot should produce an empty frame: %+v", frame.Stats)
	}
	if frame.SessionID != "sess-1" {
		t.Fatalf("frame session = %q", frame.SessionID)
	}
}

func TestLayoutAssignsBatchesAndLanes(t *testing.T) {
	e := newTestEngine()
	e.SetWindow(timeline.Window15m, 60000)

	a := ended(0, 5000)
	a.ID = "A"
	b := ended(1000, 1500)
	b.ID = "B"
	c := ended(2000, 6000)
	c.ID = "C"
	// Second spawn batch, well past the first bucket.
	d := ended(20000, 26000)
	d.ID = "D"

	e.SetData([]timeline.AgentSpan{a, b, c, d}, nil)
	frame := e.Layout(60000)

	if len(frame.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(frame.Batches))
	}
	lanes := map[string]int{}
	batchOf := map[string]string{}
	for _, p := range frame.Agents {
		lanes[p.AgentID] = p.LaneIndex
		batchOf[p.AgentID] = p.BatchID
	}
	if lanes["A"] != 0 || lanes["B"] != 1 || lanes["C"] != 1 {
		t.Fatalf("unexpected lanes: %v", lanes)
	}
	// D opens its own batch and starts back at lane 0.
	if lanes["D"] != 0 {
		t.Fatalf("lane[D] = %d, want 0 in its own batch", lanes["D"])
	}
	if batchOf["A"] != batchOf["B"] || batchOf["A"] == batchOf["D"] {
		t.Fatalf("unexpected batch membership: %v", batchOf)
	}
}

func TestLayoutStickyLanesAcrossPasses(t *testing.T) {
	e := newTestEngine()
	e.SetWindow(timeline.Window15m, 60000)

	long := timeline.AgentSpan{ID: "long", Type: "worker", StartTime: 0, Status: timeline.StatusInProgress}
	blocker := ended(500, 9000)
	blocker.ID = "blocker"
	e.SetData([]timeline.AgentSpan{long, blocker}, nil)

	first := e.Layout(10000)
	firstLanes := map[string]int{}
	for _, p := range first.Agents {
		firstLanes[p.AgentID] = p.LaneIndex
	}

	// "long" completes early in a later snapshot; its lane stays put even
	// though its effective interval shrank.
	endAt := int64(2000)
	long.EndTime = &endAt
	long.Status = timeline.StatusCompleted
	late := ended(30000, 31000)
	late.ID = "late"
	e.SetData([]timeline.AgentSpan{long, blocker, late}, nil)

	second := e.Layout(60000)
	for _, p := range second.Agents {
		if want, ok := firstLanes[p.AgentID]; ok && p.LaneIndex != want {
			t.Fatalf("lane of %s jumped from %d to %d between passes", p.AgentID, want, p.LaneIndex)
		}
	}
}

func TestLayoutGeometryMatchesMapper(t *testing.T) {
	e := newTestEngine()
	e.SetWindow(timeline.Window15m, 900000)

	s := ended(450000, 600000)
	s.ID = "mid"
	e.SetData([]timeline.AgentSpan{s}, nil)

	frame := e.Layout(900000)
	if len(frame.Agents) != 1 {
		t.Fatalf("expected 1 path, got %d", len(frame.Agents))
	}
	p := frame.Agents[0]
	// Window is [0, 900000] over width 1200 with margins 120/50: midpoint.
	if p.X1 != 120+0.5*(1200-170) {
		t.Fatalf("X1 = %v", p.X1)
	}
	if p.X2 <= p.X1 {
		t.Fatalf("X2 %v should be right of X1 %v", p.X2, p.X1)
	}
	if p.Y1 != p.Y2 {
		t.Fatalf("a lane run must be horizontal: y1=%v y2=%v", p.Y1, p.Y2)
	}
	if frame.NowX <= p.X2 {
		t.Fatalf("now cursor %v should be right of the span end %v", frame.NowX, p.X2)
	}
}

func TestLayoutResolvesMessagePositions(t *testing.T) {
	e := newTestEngine()
	e.SetWindow(timeline.Window15m, 60000)

	s := ended(1000, 50000)
	s.ID = "talker"
	msgs := []timeline.MessageEvent{
		{ID: "m1", Sender: "talker", Timestamp: 20000},
		{ID: "m2", Sender: "nobody", Timestamp: 21000},
	}
	e.SetData([]timeline.AgentSpan{s}, msgs)

	frame := e.Layout(60000)
	if len(frame.Messages) != 1 {
		t.Fatalf("expected 1 positioned message, got %d", len(frame.Messages))
	}
	m := frame.Messages[0]
	if m.MessageID != "m1" {
		t.Fatalf("wrong message survived: %+v", m)
	}
	if m.Y != frame.Agents[0].Y1 {
		t.Fatalf("message should sit on its sender's lane: %v vs %v", m.Y, frame.Agents[0].Y1)
	}
}

func TestSelectionSurvivesLayout(t *testing.T) {
	e := newTestEngine()
	e.SetWindow(timeline.Window15m, 900000)

	// The selected span is outside the window entirely.
	spans := make([]timeline.AgentSpan, 0, 80)
	for i := 0; i < 80; i++ {
		s := ended(int64(i)*10000, int64(i)*10000+4000)
		s.ID = fmt.Sprintf("a%02d", i)
		spans = append(spans, s)
	}
	old := ended(-5_000_000, -4_990_000)
	old.ID = "ancient"
	spans = append(spans, old)

	e.SetData(spans, nil)
	e.SelectAgent("ancient")

	frame := e.Layout(900000)
	found := false
	for _, p := range frame.Agents {
		if p.AgentID == "ancient" {
			found = true
			if !p.Selected {
				t.Fatal("selected flag not set on selected span")
			}
		}
	}
	if !found {
		t.Fatal("selected span must survive culling into the frame")
	}
}

func TestFollowModeAutoPanConverges(t *testing.T) {
	e := newTestEngine()
	nowMs := int64(3_600_000)
	e.SetWindow(timeline.Window1h, nowMs)
	e.SetFollowMode(true)

	wall := time.Unix(0, 0)
	for i := 0; i < 300; i++ {
		e.TickAutoPan(nowMs, wall)
		wall = wall.Add(16 * time.Millisecond)
	}

	vp := e.Viewport()
	// "now" sits at the right end of the mapped range; the target places it
	// at 92% of the width.
	wantPanX := 0.92*1200 - (120 + (1200 - 170))
	if diff := vp.PanX - wantPanX; diff < -1 || diff > 1 {
		t.Fatalf("panX = %v, want about %v", vp.PanX, wantPanX)
	}
	if e.AutoPanState() != autopan.StateTracking {
		t.Fatalf("state = %v, want tracking", e.AutoPanState())
	}
}

func TestUserGestureSuspendsAutoPan(t *testing.T) {
	e := newTestEngine()
	nowMs := int64(3_600_000)
	e.SetWindow(timeline.Window1h, nowMs)
	e.SetFollowMode(true)

	e.Pan(-200, 0)
	if e.AutoPanState() != autopan.StateSuspended {
		t.Fatalf("state = %v, want suspended after user pan", e.AutoPanState())
	}

	before := e.Viewport().PanX
	if e.TickAutoPan(nowMs, time.Now()) {
		t.Fatal("suspended controller must not move panX")
	}
	if e.Viewport().PanX != before {
		t.Fatal("panX mutated while suspended")
	}

	// Explicit reset re-arms tracking immediately.
	e.ResetView()
	if e.AutoPanState() != autopan.StateTracking {
		t.Fatalf("state = %v, want tracking after reset", e.AutoPanState())
	}
}

func TestSetWindowReenablesFollowAndClampsZoom(t *testing.T) {
	e := newTestEngine()
	e.SetFollowMode(false)
	for i := 0; i < 50; i++ {
		e.ZoomIn()
	}
	if vp := e.Viewport(); vp.Zoom != 10 {
		t.Fatalf("zoom should clamp at 10, got %v", vp.Zoom)
	}

	e.SetWindow(timeline.Window6h, 10_000_000)
	vp := e.Viewport()
	if !vp.FollowMode {
		t.Fatal("window selection must re-enable follow mode")
	}
	if vp.TimeRange.End != 10_000_000 {
		t.Fatalf("range end = %d", vp.TimeRange.End)
	}
}

func TestSessionSwitchDropsState(t *testing.T) {
	e := newTestEngine()
	s := ended(0, 1000)
	s.ID = "x"
	e.SetData([]timeline.AgentSpan{s}, nil)
	e.SelectAgent("x")
	e.Layout(5000)

	e.SetSession("sess-2")
	if agent, _ := e.Selection(); agent != "" {
		t.Fatal("selection must clear on session switch")
	}
	frame := e.Layout(5000)
	if frame.Stats.TotalAgents != 0 {
		t.Fatal("data must clear on session switch")
	}
}

func TestLargeDatasetEngagesAutoLOD(t *testing.T) {
	e := newTestEngine()
	nowMs := int64(3_600_000)
	e.SetWindow(timeline.Window1h, nowMs)

	spans := make([]timeline.AgentSpan, 0, 300)
	for i := 0; i < 300; i++ {
		s := ended(int64(i)*10_000, int64(i)*10_000+8_000)
		s.ID = fmt.Sprintf("bulk-%03d", i)
		spans = append(spans, s)
	}
	e.SetData(spans, nil)

	// First pass observes the dataset size; the governor latches.
	e.Layout(nowMs)
	frame := e.Layout(nowMs)

	if frame.Detail.ShowLabels {
		t.Fatal("auto mode should shed labels for 300 agents")
	}
	if frame.Detail.MaxAgents > 500 {
		t.Fatalf("MaxAgents = %d, want <= 500", frame.Detail.MaxAgents)
	}
	if frame.Stats.VisibleAgents > frame.Detail.MaxAgents+1 {
		t.Fatalf("visible agents %d exceed the LOD cap %d", frame.Stats.VisibleAgents, frame.Detail.MaxAgents)
	}
}

func TestLayoutVerticalPanRetainsLowerBatch(t *testing.T) {
	e := newTestEngine()

	// Two tall batches of 30 concurrent spans each. With lane height 44 and
	// header clearance 60 the second block starts at y = 40 + 60 + 30*44.
	spans := make([]timeline.AgentSpan, 0, 60)
	for i := 0; i < 30; i++ {
		s := ended(1000+int64(i), 20000)
		s.ID = fmt.Sprintf("top-%02d", i)
		spans = append(spans, s)
	}
	for i := 0; i < 30; i++ {
		s := ended(30000+int64(i), 50000)
		s.ID = fmt.Sprintf("low-%02d", i)
		spans = append(spans, s)
	}
	e.SetData(spans, nil)

	// Pan down so the first batch scrolls off the top and the second block
	// lands near y = 80.
	e.RestoreViewport(timeline.Viewport{
		TimeRange: timeline.TimeRange{Start: 0, End: 60000},
		Zoom:      1,
		PanY:      -1400,
		Width:     1200,
		Height:    800,
	})

	frame := e.Layout(60000)
	if frame.Stats.VisibleAgents == 0 {
		t.Fatal("panning to a later batch must not blank the frame")
	}
	lower := 0
	for _, p := range frame.Agents {
		// Everything that survived culling must sit within overscan reach
		// of the viewport.
		if p.Y1 < -40 || p.Y1 > 840 {
			t.Fatalf("agent %s rendered at y=%v, outside the culled viewport", p.AgentID, p.Y1)
		}
		if p.AgentID[:4] == "low-" && p.Y1 >= 0 && p.Y1 <= 800 {
			lower++
		}
	}
	if lower == 0 {
		t.Fatal("expected spans of the panned-to batch inside the viewport")
	}
}

func TestLayoutEmitsTraceSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	e := newTestEngine()
	e.SetTracer(tp.Tracer("test"))
	e.SetWindow(timeline.Window1h, 60000)
	s := ended(1000, 2000)
	s.ID = "A"
	e.SetData([]timeline.AgentSpan{s}, nil)
	e.Layout(60000)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span per layout pass, got %d", len(spans))
	}
	if spans[0].Name() != "layout.pass" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
}
