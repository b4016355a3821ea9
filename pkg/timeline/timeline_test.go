package timeline

import "testing"

func TestWindowRange(t *testing.T) {
	now := int64(10_000_000)
	tr := Window15m.Range(now)
	if tr.End != now {
		t.Fatalf("expected range to end at now, got %d", tr.End)
	}
	if got := tr.Span(); got != 15*60*1000 {
		t.Fatalf("expected 15m span, got %d", got)
	}
}

func TestParseWindow(t *testing.T) {
	for _, w := range Windows() {
		got, err := ParseWindow(string(w))
		if err != nil {
			t.Fatalf("ParseWindow(%q): %v", w, err)
		}
		if got != w {
			t.Fatalf("ParseWindow(%q) = %q", w, got)
		}
	}
	if _, err := ParseWindow("90m"); err == nil {
		t.Fatalf("expected error for unsupported window")
	}
}

func TestWindowNextWraps(t *testing.T) {
	if got := Window15m.Next(); got != Window1h {
		t.Fatalf("expected 1h after 15m, got %q", got)
	}
	if got := Window24h.Next(); got != Window15m {
		t.Fatalf("expected wrap to 15m after 24h, got %q", got)
	}
}

func TestEffectiveEndClampsInvalidTimes(t *testing.T) {
	end := int64(500)
	s := AgentSpan{StartTime: 1000, EndTime: &end}
	if got := s.EffectiveEnd(2000); got != 1000 {
		t.Fatalf("expected clamp to start time, got %d", got)
	}

	active := AgentSpan{StartTime: 3000}
	if got := active.EffectiveEnd(2000); got != 3000 {
		t.Fatalf("expected future start to clamp, got %d", got)
	}
	if got := active.EffectiveEnd(5000); got != 5000 {
		t.Fatalf("expected active span to extend to now, got %d", got)
	}
}

func TestTimeRangeSpanFloor(t *testing.T) {
	if got := (TimeRange{Start: 100, End: 100}).Span(); got != 1 {
		t.Fatalf("expected degenerate range span of 1, got %d", got)
	}
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	if got := (AgentSpan{ID: "a1"}).DisplayName(); got != "a1" {
		t.Fatalf("expected ID fallback, got %q", got)
	}
	if got := (AgentSpan{ID: "a1", Name: "planner"}).DisplayName(); got != "planner" {
		t.Fatalf("expected name, got %q", got)
	}
}
