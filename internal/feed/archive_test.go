package feed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

func newTestArchive(t *testing.T) *ArchiveSource {
	t.Helper()
	src, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestArchiveRoundTrip(t *testing.T) {
	src := newTestArchive(t)
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
	if spans[0].EndTime == nil || *spans[0].EndTime != 4000 {
		t.Fatalf("end time lost in round trip: %+v", spans[0])
	}
	if spans[1].EndTime != nil {
		t.Fatalf("active span grew an end time: %+v", spans[1])
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("expected only m1 in window, got %d messages", len(msgs))
	}
	if string(msgs[0].Payload) != `{"text":"plan"}` {
		t.Fatalf("payload lost: %q", msgs[0].Payload)
	}
}

func TestArchiveUpsertSpan(t *testing.T) {
	src := newTestArchive(t)
	ctx := context.Background()

	span := timeline.AgentSpan{ID: "a1", SessionID: "s1", Name: "worker", Type: "worker", StartTime: 1000, Status: timeline.StatusInProgress}
	if err := src.PutSpan(ctx, span); err != nil {
		t.Fatalf("put span: %v", err)
	}
	span.Status = timeline.StatusCompleted
	span.EndTime = ms(2500)
	if err := src.PutSpan(ctx, span); err != nil {
		t.Fatalf("upsert span: %v", err)
	}

	spans, _, err := src.FetchWindow(ctx, "s1", 0, 10000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected one span after upsert, got %d", len(spans))
	}
	if spans[0].Status != timeline.StatusCompleted {
		t.Fatalf("status not updated: %s", spans[0].Status)
	}
}

func TestArchiveSessionsOrdering(t *testing.T) {
	src := newTestArchive(t)
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

func TestArchiveDuplicateMessageIgnored(t *testing.T) {
	src := newTestArchive(t)
	ctx := context.Background()
	msg := timeline.MessageEvent{ID: "m1", SessionID: "s1", Sender: "a1", Timestamp: 1500}
	if err := src.PutMessage(ctx, msg); err != nil {
		t.Fatalf("put message: %v", err)
	}
	if err := src.PutMessage(ctx, msg); err != nil {
		t.Fatalf("duplicate put must not error: %v", err)
	}
	_, msgs, err := src.FetchWindow(ctx, "s1", 0, 10000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected deduplicated message, got %d", len(msgs))
	}
}
