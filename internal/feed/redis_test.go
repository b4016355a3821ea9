package feed

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

func newTestRedisSource(t *testing.T) *RedisSource {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSourceFromClient(client, "test")
}

func TestRedisSourceRoundTrip(t *testing.T) {
	src := newTestRedisSource(t)
	seedSession(t, src, "s1")

	spans, msgs, err := src.FetchWindow(context.Background(), "s1", 0, 10000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans in window, got %d", len(spans))
	}
	ids := map[string]bool{}
	for _, s := range spans {
		ids[s.ID] = true
	}
	if !ids["a1"] || !ids["a2"] {
		t.Fatalf("missing expected spans, got %v", ids)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("expected only m1 in window, got %d messages", len(msgs))
	}
}

func TestRedisSourceActiveSpanSurvivesWindow(t *testing.T) {
	src := newTestRedisSource(t)
	seedSession(t, src, "s1")

	spans, _, err := src.FetchWindow(context.Background(), "s1", 50000, 60000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	for _, s := range spans {
		if s.ID == "a1" {
			t.Fatal("finished span a1 must be dropped outside its window")
		}
	}
	found := false
	for _, s := range spans {
		if s.ID == "a2" {
			found = true
		}
	}
	if !found {
		t.Fatal("active span a2 missing from later window")
	}
}

func TestRedisSourceSessionsIndex(t *testing.T) {
	src := newTestRedisSource(t)
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

func TestRedisSourceSpanUpdateReplaces(t *testing.T) {
	src := newTestRedisSource(t)
	ctx := context.Background()

	span := timeline.AgentSpan{ID: "a1", SessionID: "s1", Name: "worker", StartTime: 1000, Status: timeline.StatusInProgress}
	if err := src.PutSpan(ctx, span); err != nil {
		t.Fatalf("put span: %v", err)
	}
	span.Status = timeline.StatusCompleted
	span.EndTime = ms(3000)
	if err := src.PutSpan(ctx, span); err != nil {
		t.Fatalf("update span: %v", err)
	}

	spans, _, err := src.FetchWindow(ctx, "s1", 0, 10000)
	if err != nil {
		t.Fatalf("fetch window: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected single span after update, got %d", len(spans))
	}
	if spans[0].Status != timeline.StatusCompleted || spans[0].EndTime == nil {
		t.Fatalf("update not applied: %+v", spans[0])
	}
}
