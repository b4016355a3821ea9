package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// RedisSource reads sessions from a Redis-backed event store.
//
// Key shapes, under a configurable prefix:
//
//	{prefix}:sessions                  zset: session -> last event ms
//	{prefix}:{session}:spans           hash: span id -> span JSON
//	{prefix}:{session}:spans_by_start  zset: span id -> start ms
//	{prefix}:{session}:messages        zset: message JSON -> timestamp ms
type RedisSource struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSource connects and pings the store.
func NewRedisSource(redisURL, prefix string) (*RedisSource, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is empty")
	}
	if prefix == "" {
		prefix = "agent-timeline"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisSource{client: client, prefix: prefix}, nil
}

// NewRedisSourceFromClient wraps an existing client; tests use this with
// miniredis.
func NewRedisSourceFromClient(client redis.UniversalClient, prefix string) *RedisSource {
	if prefix == "" {
		prefix = "agent-timeline"
	}
	return &RedisSource{client: client, prefix: prefix}
}

func (r *RedisSource) Name() string { return "redis" }

func (r *RedisSource) key(parts ...string) string {
	return r.prefix + ":" + strings.Join(parts, ":")
}

func (r *RedisSource) PutSpan(ctx context.Context, span timeline.AgentSpan) error {
	b, err := json.Marshal(span)
	if err != nil {
		return fmt.Errorf("marshal span %q: %w", span.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(span.SessionID, "spans"), span.ID, b)
	pipe.ZAdd(ctx, r.key(span.SessionID, "spans_by_start"), redis.Z{Score: float64(span.StartTime), Member: span.ID})
	last := span.EffectiveEnd(span.StartTime)
	pipe.ZAdd(ctx, r.key("sessions"), redis.Z{Score: float64(last), Member: span.SessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put span: %w", err)
	}
	return nil
}

func (r *RedisSource) PutMessage(ctx context.Context, msg timeline.MessageEvent) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message %q: %w", msg.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, r.key(msg.SessionID, "messages"), redis.Z{Score: float64(msg.Timestamp), Member: b})
	pipe.ZAdd(ctx, r.key("sessions"), redis.Z{Score: float64(msg.Timestamp), Member: msg.SessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put message: %w", err)
	}
	return nil
}

func (r *RedisSource) Sessions(ctx context.Context, from, to int64) ([]string, error) {
	members, err := r.client.ZRevRangeByScore(ctx, r.key("sessions"), &redis.ZRangeBy{
		Min: strconv.FormatInt(from, 10),
		Max: strconv.FormatInt(to, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis sessions: %w", err)
	}
	return members, nil
}

func (r *RedisSource) FetchWindow(ctx context.Context, session string, from, to int64) ([]timeline.AgentSpan, []timeline.MessageEvent, error) {
	// Spans are indexed by start time only: fetch everything starting at or
	// before the window end, then drop spans already over before the window
	// starts. Active spans have no end and always pass the second test.
	ids, err := r.client.ZRangeByScore(ctx, r.key(session, "spans_by_start"), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(to, 10),
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis span index: %w", err)
	}

	spans := make([]timeline.AgentSpan, 0, len(ids))
	if len(ids) > 0 {
		raw, err := r.client.HMGet(ctx, r.key(session, "spans"), ids...).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("redis spans: %w", err)
		}
		for _, v := range raw {
			s, ok := v.(string)
			if !ok {
				continue
			}
			var span timeline.AgentSpan
			if err := json.Unmarshal([]byte(s), &span); err != nil {
				continue // skip corrupt records, never fail the fetch
			}
			if span.EndTime != nil && *span.EndTime < from {
				continue
			}
			spans = append(spans, span)
		}
	}

	rawMsgs, err := r.client.ZRangeByScore(ctx, r.key(session, "messages"), &redis.ZRangeBy{
		Min: strconv.FormatInt(from, 10),
		Max: strconv.FormatInt(to, 10),
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis messages: %w", err)
	}
	msgs := make([]timeline.MessageEvent, 0, len(rawMsgs))
	for _, raw := range rawMsgs {
		var msg timeline.MessageEvent
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return spans, msgs, nil
}

// Close releases the underlying client.
func (r *RedisSource) Close() error {
	return r.client.Close()
}
