package adapters

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// record is one line of an orchestrator run log.
type record struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	AgentType string          `json:"agent_type,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Status    string          `json:"status,omitempty"`
	Timestamp int64           `json:"ts"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// AgentLogLoader reads orchestrator run logs: JSONL with agent_start,
// agent_end, and message records. Agents without a matching agent_end are
// imported as still in progress.
type AgentLogLoader struct{}

func NewAgentLogLoader() *AgentLogLoader { return &AgentLogLoader{} }

func (l *AgentLogLoader) Name() string { return "agentlog" }

func (l *AgentLogLoader) Load(ctx context.Context, path string, store Store) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Message payloads can carry full tool outputs.
	const maxCapacity = 8 * 1024 * 1024
	scanner.Buffer(make([]byte, 1024), maxCapacity)

	open := make(map[string]*timeline.AgentSpan)
	sessions := make(map[string]struct{})
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, line, err)
		}

		switch rec.Type {
		case "agent_start":
			if rec.ID == "" || rec.SessionID == "" {
				return nil, fmt.Errorf("%w: line %d: agent_start needs id and session_id", ErrBadRecord, line)
			}
			sessions[rec.SessionID] = struct{}{}
			open[rec.ID] = &timeline.AgentSpan{
				ID:        rec.ID,
				Name:      rec.Name,
				Type:      rec.AgentType,
				SessionID: rec.SessionID,
				StartTime: rec.Timestamp,
				Status:    timeline.StatusInProgress,
			}

		case "agent_end":
			span, ok := open[rec.ID]
			if !ok {
				// End without a start; nothing to attach it to, skip.
				continue
			}
			end := rec.Timestamp
			span.EndTime = &end
			span.Status = parseStatus(rec.Status)
			if err := store.PutSpan(ctx, *span); err != nil {
				return nil, fmt.Errorf("store span %q: %w", span.ID, err)
			}
			delete(open, rec.ID)

		case "message":
			if rec.SessionID == "" {
				continue
			}
			sessions[rec.SessionID] = struct{}{}
			msg := timeline.MessageEvent{
				ID:        rec.ID,
				SessionID: rec.SessionID,
				Sender:    rec.Sender,
				Timestamp: rec.Timestamp,
				Payload:   rec.Payload,
			}
			if msg.ID == "" {
				msg.ID = fmt.Sprintf("%s-msg-%d", rec.SessionID, line)
			}
			if err := store.PutMessage(ctx, msg); err != nil {
				return nil, fmt.Errorf("store message %q: %w", msg.ID, err)
			}

		default:
			// Unknown record kinds are skipped so newer logs stay loadable.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}

	// Whatever never ended is still running.
	for _, span := range open {
		if err := store.PutSpan(ctx, *span); err != nil {
			return nil, fmt.Errorf("store span %q: %w", span.ID, err)
		}
	}

	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	out := make([]string, 0, len(sessions))
	for s := range sessions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func parseStatus(raw string) timeline.Status {
	switch timeline.Status(raw) {
	case timeline.StatusPending, timeline.StatusInProgress, timeline.StatusCompleted,
		timeline.StatusError, timeline.StatusTerminated:
		return timeline.Status(raw)
	default:
		return timeline.StatusCompleted
	}
}
