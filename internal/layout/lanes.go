package layout

import (
	"sort"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

const (
	// DefaultMaxLanes bounds how many lanes an allocation pass may open.
	// Spans past the cap still get a lane (the overflow lane) rather than
	// failing the pass; lane explosion degrades the view, never crashes it.
	DefaultMaxLanes = 50

	// DefaultMinSpanMs is the synthetic minimum interval width so that very
	// short (or clock-skewed) spans still hold their lane long enough to be
	// visually stable.
	DefaultMinSpanMs = 500
)

// AllocOptions tunes the lane allocator.
type AllocOptions struct {
	MaxLanes  int
	MinSpanMs int64
}

func (o AllocOptions) withDefaults() AllocOptions {
	if o.MaxLanes <= 0 {
		o.MaxLanes = DefaultMaxLanes
	}
	if o.MinSpanMs <= 0 {
		o.MinSpanMs = DefaultMinSpanMs
	}
	return o
}

// OverflowLane returns the shared lane index used once MaxLanes lanes are
// occupied. Intervals there may overlap.
func (o AllocOptions) OverflowLane() int {
	opts := o.withDefaults()
	return opts.MaxLanes + 1
}

type interval struct {
	start, end int64
}

// Occupancy is the transient per-pass allocation state: reserved intervals
// per lane index. It is rebuilt every layout pass because span endpoints
// move while agents are active.
type Occupancy struct {
	lanes map[int][]interval
	max   int
}

// NewOccupancy returns an empty occupancy table.
func NewOccupancy() *Occupancy {
	return &Occupancy{lanes: make(map[int][]interval), max: -1}
}

// Reserve records [start, end) as taken in the given lane.
func (o *Occupancy) Reserve(lane int, start, end int64) {
	if lane < 0 {
		return
	}
	o.lanes[lane] = append(o.lanes[lane], interval{start: start, end: end})
	if lane > o.max {
		o.max = lane
	}
}

// Fits reports whether [start, end) overlaps none of the lane's reserved
// intervals.
func (o *Occupancy) Fits(lane int, start, end int64) bool {
	for _, iv := range o.lanes[lane] {
		if start < iv.end && iv.start < end {
			return false
		}
	}
	return true
}

// MaxLane returns the highest reserved lane index, or -1 when empty.
func (o *Occupancy) MaxLane() int {
	return o.max
}

// AllocateLanes assigns each span a lane so that no two spans sharing a lane
// have overlapping [start, effectiveEnd) intervals. Greedy first-fit over
// lanes in index order after sorting by start time: the classic
// minimum-number-of-rooms heuristic. The lowest free lane always wins, which
// keeps layouts reproducible across passes for identical input regardless of
// input order.
func AllocateLanes(spans []*timeline.AgentSpan, now int64, opts AllocOptions) map[string]int {
	return AllocateInto(NewOccupancy(), spans, now, opts)
}

// AllocateInto is AllocateLanes over a pre-seeded occupancy table. The
// engine seeds it with the intervals of agents whose lanes were assigned in
// earlier passes, so already-drawn paths never jump while new agents pack
// around them.
func AllocateInto(occ *Occupancy, spans []*timeline.AgentSpan, now int64, opts AllocOptions) map[string]int {
	opts = opts.withDefaults()

	ordered := make([]*timeline.AgentSpan, 0, len(spans))
	for _, s := range spans {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].StartTime != ordered[j].StartTime {
			return ordered[i].StartTime < ordered[j].StartTime
		}
		return ordered[i].ID < ordered[j].ID
	})

	assigned := make(map[string]int, len(ordered))
	for _, s := range ordered {
		start, end := AllocationInterval(*s, now, opts)

		lane := -1
		limit := occ.MaxLane() + 1
		if limit > opts.MaxLanes-1 {
			limit = opts.MaxLanes - 1
		}
		for candidate := 0; candidate <= limit; candidate++ {
			if occ.Fits(candidate, start, end) {
				lane = candidate
				break
			}
		}
		if lane == -1 {
			lane = opts.OverflowLane()
		}

		occ.Reserve(lane, start, end)
		assigned[s.ID] = lane
	}
	return assigned
}

// AllocationInterval computes the [start, end) interval a span occupies for
// lane scheduling: the effective end (EndTime, or now while active), widened
// to the synthetic minimum. Timing anomalies clamp instead of erroring.
func AllocationInterval(s timeline.AgentSpan, now int64, opts AllocOptions) (int64, int64) {
	opts = opts.withDefaults()
	start := s.StartTime
	end := s.EffectiveEnd(now)
	if end-start < opts.MinSpanMs {
		end = start + opts.MinSpanMs
	}
	return start, end
}
