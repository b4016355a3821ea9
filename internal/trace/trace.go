// Package trace records layout passes so a rendering session can be saved,
// replayed against the current engine, and diffed pass by pass. It also
// owns the OpenTelemetry bootstrap.
package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// PassRecord captures one layout pass: the inputs that drove it and a
// digest of the frame it produced.
type PassRecord struct {
	Seq       int               `json:"seq"`
	NowMs     int64             `json:"now_ms"`
	Viewport  timeline.Viewport `json:"viewport"`
	Agents    int               `json:"agents"`
	Messages  int               `json:"messages"`
	Lanes     int               `json:"lanes"`
	Duration  time.Duration     `json:"duration"`
	FrameHash string            `json:"frame_hash"`
}

// SessionTrace is the ordered pass history of one session.
type SessionTrace struct {
	SessionID string        `json:"session_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Passes    []PassRecord  `json:"passes"`
	Total     time.Duration `json:"total"`
}

// FrameHash digests the geometry a pass produced. Timestamps and wall-clock
// fields are excluded so identical inputs hash identically across runs.
func FrameHash(f timeline.Frame) string {
	canon := struct {
		SessionID string
		NowX      float64
		Detail    timeline.Detail
		Agents    []timeline.AgentPath
		Messages  []timeline.MessagePoint
		Batches   []timeline.BatchMarker
	}{
		SessionID: f.SessionID,
		NowX:      f.NowX,
		Detail:    f.Detail,
		Agents:    f.Agents,
		Messages:  f.Messages,
		Batches:   f.Batches,
	}
	b, err := json.Marshal(canon)
	if err != nil {
		return fmt.Sprintf("unhashable:%v", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
