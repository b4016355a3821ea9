package layout

import (
	"testing"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

func spanAt(id string, start int64) *timeline.AgentSpan {
	return &timeline.AgentSpan{ID: id, Type: "worker", StartTime: start, Status: timeline.StatusInProgress}
}

func TestGroupIntoBatchesBucketBoundaries(t *testing.T) {
	spans := []*timeline.AgentSpan{
		spanAt("a", 0),
		spanAt("b", 4999),
		spanAt("c", 5000),
		spanAt("d", 9999),
	}

	batches := GroupIntoBatches(spans, 5000)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[0].BucketTimestamp != 0 || batches[1].BucketTimestamp != 5000 {
		t.Fatalf("unexpected buckets: %d, %d", batches[0].BucketTimestamp, batches[1].BucketTimestamp)
	}
	if batches[0].BatchNumber != 1 || batches[1].BatchNumber != 2 {
		t.Fatalf("batch numbers not chronological: %d, %d", batches[0].BatchNumber, batches[1].BatchNumber)
	}
	if len(batches[0].Agents) != 2 || batches[0].Agents[0].ID != "a" || batches[0].Agents[1].ID != "b" {
		t.Fatalf("unexpected batch 1 membership: %+v", batches[0].Agents)
	}
	if len(batches[1].Agents) != 2 || batches[1].Agents[0].ID != "c" || batches[1].Agents[1].ID != "d" {
		t.Fatalf("unexpected batch 2 membership: %+v", batches[1].Agents)
	}
}

func TestGroupIntoBatchesSetsMembership(t *testing.T) {
	spans := []*timeline.AgentSpan{spanAt("a", 12345), spanAt("b", 13000)}

	batches := GroupIntoBatches(spans, 5000)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	for _, s := range spans {
		if s.BatchID != batches[0].ID {
			t.Fatalf("span %s batch id %q, want %q", s.ID, s.BatchID, batches[0].ID)
		}
	}
	// Shared ownership: batch members are the same spans, not copies.
	if batches[0].Agents[0] != spans[0] {
		t.Fatal("batch should reference the input spans")
	}
}

func TestGroupIntoBatchesDeterministic(t *testing.T) {
	build := func(order []int64) []timeline.SpawnBatch {
		spans := make([]*timeline.AgentSpan, 0, len(order))
		for i, start := range order {
			spans = append(spans, spanAt(string(rune('a'+i%26))+"x", start))
		}
		return GroupIntoBatches(spans, 5000)
	}

	a := build([]int64{0, 7000, 3000, 12000, 7500})
	b := build([]int64{12000, 0, 7500, 3000, 7000})
	if len(a) != len(b) {
		t.Fatalf("batch counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].BucketTimestamp != b[i].BucketTimestamp || a[i].BatchNumber != b[i].BatchNumber {
			t.Fatalf("batch %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGroupIntoBatchesMonotonicNumbers(t *testing.T) {
	spans := []*timeline.AgentSpan{
		spanAt("a", 50000), spanAt("b", 0), spanAt("c", 25000), spanAt("d", 26000),
	}
	batches := GroupIntoBatches(spans, 5000)
	for i := 1; i < len(batches); i++ {
		if batches[i].BucketTimestamp <= batches[i-1].BucketTimestamp {
			t.Fatalf("bucket timestamps not increasing at %d", i)
		}
		if batches[i].BatchNumber != batches[i-1].BatchNumber+1 {
			t.Fatalf("batch numbers not sequential at %d", i)
		}
	}
}

func TestGroupIntoBatchesEmptyInput(t *testing.T) {
	if got := GroupIntoBatches(nil, 5000); len(got) != 0 {
		t.Fatalf("expected empty result, got %d batches", len(got))
	}
}

func TestGroupIntoBatchesDefaultsBucketWidth(t *testing.T) {
	spans := []*timeline.AgentSpan{spanAt("a", 2000), spanAt("b", 4900)}
	batches := GroupIntoBatches(spans, 0)
	if len(batches) != 1 {
		t.Fatalf("expected default bucket width to merge spans, got %d batches", len(batches))
	}
}
