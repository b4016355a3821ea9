package trace

import (
	"sync"
	"time"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// Recorder accumulates pass records for one session.
type Recorder struct {
	mu    sync.Mutex
	trace SessionTrace
	seq   int
}

func NewRecorder(sessionID string, start time.Time) *Recorder {
	return &Recorder{trace: SessionTrace{SessionID: sessionID, StartTime: start}}
}

// RecordPass appends one pass. The frame is hashed immediately so the
// caller may reuse its slices.
func (r *Recorder) RecordPass(nowMs int64, vp timeline.Viewport, f timeline.Frame, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.trace.Passes = append(r.trace.Passes, PassRecord{
		Seq:       r.seq,
		NowMs:     nowMs,
		Viewport:  vp,
		Agents:    len(f.Agents),
		Messages:  len(f.Messages),
		Lanes:     f.Stats.Lanes,
		Duration:  d,
		FrameHash: FrameHash(f),
	})
}

// Finalize closes the trace and returns an owned copy.
func (r *Recorder) Finalize(end time.Time) SessionTrace {
	r.mu.Lock()
	defer r.mu.Unlock()

	return SessionTrace{
		SessionID: r.trace.SessionID,
		StartTime: r.trace.StartTime,
		EndTime:   end,
		Total:     end.Sub(r.trace.StartTime),
		Passes:    append([]PassRecord(nil), r.trace.Passes...),
	}
}

// Len reports the number of recorded passes.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trace.Passes)
}
