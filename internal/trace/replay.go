package trace

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// LayoutFn re-executes one recorded pass and returns the resulting frame.
// The caller owns engine setup; the function is handed the recorded inputs.
type LayoutFn func(ctx context.Context, rec PassRecord) (timeline.Frame, error)

// ReplayAndCompare re-runs every recorded pass and validates that the frame
// geometry matches what was recorded. The first mismatch aborts the replay.
func ReplayAndCompare(ctx context.Context, tr SessionTrace, layout LayoutFn) error {
	if len(tr.Passes) == 0 {
		return errors.New("trace replay: no passes to replay")
	}

	for _, rec := range tr.Passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := layout(ctx, rec)
		if err != nil {
			return fmt.Errorf("trace replay: pass %d: %w", rec.Seq, err)
		}
		actual := FrameHash(frame)
		if actual != rec.FrameHash {
			return fmt.Errorf("trace replay: pass %d frame hash mismatch: got %s want %s",
				rec.Seq, actual, rec.FrameHash)
		}
	}
	return nil
}

// Divergence describes where two traces first differ.
type Divergence struct {
	Seq      int
	Field    string
	Expected string
	Actual   string
}

// Compare two traces pass by pass. An empty list means equivalent
// layout-significant behavior.
func Compare(expected, actual SessionTrace) []Divergence {
	out := make([]Divergence, 0)
	n := len(expected.Passes)
	if len(actual.Passes) > n {
		n = len(actual.Passes)
	}

	for i := 0; i < n; i++ {
		seq := i + 1
		if i >= len(expected.Passes) {
			out = append(out, Divergence{Seq: seq, Field: "missing_expected", Actual: actual.Passes[i].FrameHash})
			continue
		}
		if i >= len(actual.Passes) {
			out = append(out, Divergence{Seq: seq, Field: "missing_actual", Expected: expected.Passes[i].FrameHash})
			continue
		}
		e, a := expected.Passes[i], actual.Passes[i]
		if e.Agents != a.Agents {
			out = append(out, Divergence{Seq: seq, Field: "agents", Expected: fmt.Sprint(e.Agents), Actual: fmt.Sprint(a.Agents)})
		}
		if e.Messages != a.Messages {
			out = append(out, Divergence{Seq: seq, Field: "messages", Expected: fmt.Sprint(e.Messages), Actual: fmt.Sprint(a.Messages)})
		}
		if e.Lanes != a.Lanes {
			out = append(out, Divergence{Seq: seq, Field: "lanes", Expected: fmt.Sprint(e.Lanes), Actual: fmt.Sprint(a.Lanes)})
		}
		if e.FrameHash != a.FrameHash {
			out = append(out, Divergence{Seq: seq, Field: "frame_hash", Expected: e.FrameHash, Actual: a.FrameHash})
		}
	}
	return out
}

func FormatDivergence(div []Divergence) string {
	if len(div) == 0 {
		return "no divergence detected"
	}
	msg := "trace divergence detected:\n"
	for _, d := range div {
		msg += fmt.Sprintf("- pass=%d field=%s expected=%q actual=%q\n", d.Seq, d.Field, d.Expected, d.Actual)
	}
	return msg
}
