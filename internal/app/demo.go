package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/agent-timeline/internal/feed"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

// DemoSpec shapes a generated session.
type DemoSpec struct {
	SessionID string
	NowMs     int64
	Batches   int
	PerBatch  int
	Seed      int64
}

var demoAgentTypes = []string{"planner", "researcher", "coder", "reviewer", "tester"}

// GenerateDemoSession writes a synthetic multi-batch session into w. Spans
// overlap within each batch so lane allocation has real work to do; a few
// spans stay open so follow mode has a live edge to track.
func GenerateDemoSession(ctx context.Context, w feed.Writer, spec DemoSpec) (string, error) {
	if spec.SessionID == "" {
		spec.SessionID = "demo-" + uuid.NewString()[:8]
	}
	if spec.Batches <= 0 {
		spec.Batches = 4
	}
	if spec.PerBatch <= 0 {
		spec.PerBatch = 6
	}
	if spec.NowMs == 0 {
		spec.NowMs = time.Now().UnixMilli()
	}
	if spec.Seed == 0 {
		spec.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(spec.Seed))

	const batchGapMs = 30_000
	sessionStart := spec.NowMs - int64(spec.Batches)*batchGapMs
	for b := 0; b < spec.Batches; b++ {
		batchStart := sessionStart + int64(b)*batchGapMs
		for i := 0; i < spec.PerBatch; i++ {
			agentType := demoAgentTypes[rng.Intn(len(demoAgentTypes))]
			start := batchStart + rng.Int63n(4000)
			span := timeline.AgentSpan{
				ID:        uuid.NewString(),
				Name:      fmt.Sprintf("%s-%d%c", agentType, b+1, 'a'+rune(i)),
				Type:      agentType,
				SessionID: spec.SessionID,
				StartTime: start,
				Status:    timeline.StatusInProgress,
			}
			// Last batch keeps a couple of spans open.
			if b < spec.Batches-1 || i >= 2 {
				end := start + 5000 + rng.Int63n(20_000)
				span.EndTime = &end
				span.Status = timeline.StatusCompleted
				if rng.Intn(10) == 0 {
					span.Status = timeline.StatusError
				}
			}
			if err := w.PutSpan(ctx, span); err != nil {
				return "", fmt.Errorf("demo span: %w", err)
			}

			if rng.Intn(3) == 0 {
				msg := timeline.MessageEvent{
					ID:        uuid.NewString(),
					SessionID: spec.SessionID,
					Sender:    span.ID,
					Timestamp: start + 1000 + rng.Int63n(3000),
					Payload:   []byte(fmt.Sprintf(`{"text":"update from %s"}`, span.Name)),
				}
				if err := w.PutMessage(ctx, msg); err != nil {
					return "", fmt.Errorf("demo message: %w", err)
				}
			}
		}
	}
	return spec.SessionID, nil
}
