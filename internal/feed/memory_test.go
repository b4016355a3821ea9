package feed

import (
	"context"
	"testing"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

func ms(v int64) *int64 { return &v }

func seedSession(t *testing.T, w Writer, session string) {
	t.Helper()
	ctx := context.Background()
	spans := []timeline.AgentSpan{
		{ID: "a1", SessionID: session, Name: "planner", Type: "planner", StartTime: 1000, EndTime: ms(4000), Status: timeline.StatusCompleted},
		{ID: "a2", SessionID: session, Name: "worker", Type: "worker", StartTime: 2000, Status: timeline.StatusInProgress},
		{ID: "a3", SessionID: session, Name: "late", Type: "worker", StartTime: 90000, EndTime: ms(95000), Status: timeline.StatusCompleted},
	}
	for _, s := range spans {
		if err := w.PutSpan(ctx, s); err != nil {
			t.Fatalf("put span %s: %v", s.ID, err)
		}
	}
	msgs := []timeline.MessageEvent{
		{ID: "m1", SessionID: session, Sender: "a1", Timestamp: 1500, Payload: []byte(`{"text":"plan"}`)},
		{ID: "m2", SessionID: session, Sender: "a2", Timestamp: 92000, Payload: []byte(`{"text":"late"}`)},
	}
	for _, m := range msgs {
		if err := w.PutMessage(ctx, m); err != nil {
			t.Fatalf("put message %s: %v", m.ID, err)
		}
	}
}

func TestMemorySourceFetchWindow(t *testing.T) {
	src := NewMemorySource()
	seedSession(t, src, "s1")

	spans, msgs, err := src.FetchWindow(context.Background(), "s1", 0, 10000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans in window, got %d", len(spans))
	}
	if spans[0].ID != "a1" || spans[1].ID != "a2" {
		t.Fatalf("unexpected span order: %s, %s", spans[0].ID, spans[1].ID)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("expected only m1 in window, got %v", msgs)
	}
}

func TestMemorySourceActiveSpanAlwaysOverlaps(t *testing.T) {
	src := NewMemorySource()
	seedSession(t, src, "s1")

	// a2 started at 2000 and never finished; it must appear in a window
	// long after its start.
	spans, _, err := src.FetchWindow(context.Background(), "s1", 50000, 60000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	found := false
	for _, s := range spans {
		if s.ID == "a2" {
			found = true
		}
		if s.ID == "a1" {
			t.Fatal("a1 ended at 4000 and must not appear in [50000, 60000]")
		}
	}
	if !found {
		t.Fatal("active span a2 missing from later window")
	}
}

func TestMemorySourceSessionsMostRecentFirst(t *testing.T) {
	src := NewMemorySource()
	ctx := context.Background()
	if err := src.PutSpan(ctx, timeline.AgentSpan{ID: "x", SessionID: "old", StartTime: 1000, EndTime: ms(2000), Status: timeline.StatusCompleted}); err != nil {
		t.Fatalf("put span: %v", err)
	}
	if err := src.PutSpan(ctx, timeline.AgentSpan{ID: "y", SessionID: "new", StartTime: 5000, EndTime: ms(6000), Status: timeline.StatusCompleted}); err != nil {
		t.Fatalf("put span: %v", err)
	}

	sessions, err := src.Sessions(ctx, 0, 10000)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "new" || sessions[1] != "old" {
		t.Fatalf("expected [new old], got %v", sessions)
	}
}

func TestMemorySourceUnknownSessionEmpty(t *testing.T) {
	src := NewMemorySource()
	spans, msgs, err := src.FetchWindow(context.Background(), "missing", 0, 1000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	if len(spans) != 0 || len(msgs) != 0 {
		t.Fatalf("expected empty result, got %d spans %d msgs", len(spans), len(msgs))
	}
}
