package style

import (
	"testing"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

func TestPaletteDeterministic(t *testing.T) {
	a := NewPalette([]string{"writer", "reader", "planner", "reader"})
	b := NewPalette([]string{"planner", "reader", "writer"})

	for _, typ := range []string{"writer", "reader", "planner"} {
		if a.For(typ) != b.For(typ) {
			t.Fatalf("palette not deterministic for %q: %+v vs %+v", typ, a.For(typ), b.For(typ))
		}
	}
}

func TestPaletteDistinctTypesDistinctStyles(t *testing.T) {
	p := NewPalette([]string{"a", "b", "c"})
	if p.For("a") == p.For("b") || p.For("b") == p.For("c") {
		t.Fatal("adjacent types should not share a style")
	}
}

func TestPaletteFallback(t *testing.T) {
	p := NewPalette([]string{"worker"})
	if p.For("unknown") != DefaultStyle {
		t.Fatalf("unknown type should fall back, got %+v", p.For("unknown"))
	}
	if p.For("") != DefaultStyle {
		t.Fatal("empty type should fall back")
	}

	var nilPalette *Palette
	if nilPalette.For("worker") != DefaultStyle {
		t.Fatal("nil palette should fall back")
	}
}

func TestFromSpans(t *testing.T) {
	spans := []*timeline.AgentSpan{
		{ID: "1", Type: "writer"},
		{ID: "2", Type: "reader"},
		nil,
		{ID: "3", Type: "writer"},
	}
	p := FromSpans(spans)
	if p.For("writer") == DefaultStyle || p.For("reader") == DefaultStyle {
		t.Fatal("span types should get palette styles")
	}
}
