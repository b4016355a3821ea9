package feed

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/your-org/agent-timeline/internal/audit"
	"github.com/your-org/agent-timeline/internal/metrics"
	"github.com/your-org/agent-timeline/internal/retry"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

// Sink receives each successfully fetched window.
type Sink interface {
	SetData(spans []timeline.AgentSpan, msgs []timeline.MessageEvent)
}

// PollerOptions tune the refresh loop.
type PollerOptions struct {
	// Interval between fetches. Defaults to 2s, floored at MinInterval.
	Interval time.Duration
	// MinInterval is the throttle floor. Defaults to 500ms.
	MinInterval time.Duration
	// Window selects how far back each fetch reaches.
	Window timeline.Window
	// Retry policy for a single fetch. Zero value means one attempt.
	Retry retry.Policy
	// Breaker wraps the whole loop; tripped fetches are skipped until the
	// reset timeout passes.
	Breaker retry.BreakerPolicy
	// Tracer emits a span per fetch. Defaults to a no-op tracer.
	Tracer oteltrace.Tracer
}

func (o PollerOptions) withDefaults() PollerOptions {
	if o.MinInterval <= 0 {
		o.MinInterval = 500 * time.Millisecond
	}
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.Interval < o.MinInterval {
		o.Interval = o.MinInterval
	}
	if o.Window == "" {
		o.Window = timeline.Window1h
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("feed")
	}
	return o
}

// Poller periodically fetches one session's window from a Source and hands
// it to a Sink. Session selection is external; SetSession switches mid-run.
type Poller struct {
	source   Source
	sink     Sink
	opts     PollerOptions
	breaker  *retry.CircuitBreaker
	recorder metrics.Recorder
	log      *audit.Logger

	sessionCh chan string
}

func NewPoller(source Source, sink Sink, opts PollerOptions, recorder metrics.Recorder, log *audit.Logger) *Poller {
	opts = opts.withDefaults()
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Poller{
		source:    source,
		sink:      sink,
		opts:      opts,
		breaker:   retry.NewCircuitBreaker(opts.Breaker),
		recorder:  recorder,
		log:       log,
		sessionCh: make(chan string, 1),
	}
}

// SetSession switches which session the loop fetches. A pending switch not
// yet consumed is replaced.
func (p *Poller) SetSession(session string) {
	for {
		select {
		case p.sessionCh <- session:
			return
		default:
			select {
			case <-p.sessionCh:
			default:
			}
		}
	}
}

// Run blocks until ctx is done, fetching on the configured cadence.
func (p *Poller) Run(ctx context.Context, session string) error {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.fetchOnce(ctx, session)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-p.sessionCh:
			session = s
			p.fetchOnce(ctx, session)
		case <-ticker.C:
			p.fetchOnce(ctx, session)
		}
	}
}

func (p *Poller) fetchOnce(ctx context.Context, session string) {
	if session == "" {
		return
	}
	now := time.Now()
	if !p.breaker.Allow(now) {
		p.recorder.ObserveFetch(p.source.Name(), "skipped", 0)
		return
	}

	tr := p.opts.Window.Range(now.UnixMilli())

	ctx, span := p.opts.Tracer.Start(ctx, "feed.fetch", oteltrace.WithAttributes(
		attribute.String("source", p.source.Name()),
		attribute.String("session", session),
	))
	defer span.End()

	start := time.Now()
	var spans []timeline.AgentSpan
	var msgs []timeline.MessageEvent
	err := retry.Execute(ctx, p.opts.Retry, func(ctx context.Context) error {
		var ferr error
		spans, msgs, ferr = p.source.FetchWindow(ctx, session, tr.Start, tr.End)
		return ferr
	})
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		p.breaker.RecordFailure(time.Now())
		p.recorder.ObserveFetch(p.source.Name(), "error", elapsed)
		if p.log.Enabled() {
			_ = p.log.Write("fetch_failed", session, fmt.Sprintf("source=%s", p.source.Name()), err)
		}
		return
	}

	p.breaker.RecordSuccess()
	p.recorder.ObserveFetch(p.source.Name(), "ok", elapsed)
	p.sink.SetData(spans, msgs)
}
