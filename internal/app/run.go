// Package app is the composition root: it assembles the manifest, feed
// source, engine, metrics, and serving surfaces into a running dashboard.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/your-org/agent-timeline/internal/audit"
	"github.com/your-org/agent-timeline/internal/config"
	"github.com/your-org/agent-timeline/internal/engine"
	"github.com/your-org/agent-timeline/internal/feed"
	"github.com/your-org/agent-timeline/internal/metrics"
	"github.com/your-org/agent-timeline/internal/retry"
	"github.com/your-org/agent-timeline/internal/server"
	"github.com/your-org/agent-timeline/internal/trace"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

const serviceName = "agent-timeline"

// autoPanTick paces the follow-mode control loop.
const autoPanTick = 100 * time.Millisecond

// Run starts the dashboard daemon and blocks until ctx is done.
func Run(ctx context.Context, manifestPath string) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	env := config.FromEnv()

	logger := audit.NewLogger(auditPath(manifest, env))

	otelRuntime, err := trace.SetupOTelFromEnv(serviceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() { _ = otelRuntime.Shutdown(context.Background()) }()

	memRecorder := metrics.NewMemoryRecorder()
	recorder := metrics.Recorder(memRecorder)
	if envBool("METRICS_ENABLED") {
		promRegistry := prometheus.NewRegistry()
		promRecorder, err := metrics.NewPrometheusRecorder(promRegistry)
		if err != nil {
			return fmt.Errorf("setup prometheus recorder: %w", err)
		}
		recorder = metrics.NewMultiRecorder(memRecorder, promRecorder)
		srv, err := metrics.StartPrometheusServer(metricsAddr(manifest, env), promRegistry)
		if err != nil {
			return fmt.Errorf("start metrics endpoint: %w", err)
		}
		defer func() { _ = metrics.StopServer(context.Background(), srv) }()
	}

	source, closeSource, err := buildSource(manifest)
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	eng := engine.New(manifest.EngineOptions(), recorder, logger)
	eng.SetTracer(otelRuntime.Tracer)
	nowMs := time.Now().UnixMilli()
	eng.SetWindow(manifest.Window(), nowMs)

	session, err := pickSession(ctx, manifest, source)
	if err != nil {
		return err
	}
	eng.SetSession(session)

	poller := feed.NewPoller(source, eng, feed.PollerOptions{
		Interval:    manifest.RefreshInterval(),
		MinInterval: manifest.MinRefresh(),
		Window:      manifest.Window(),
		Retry:       retry.Policy{MaxAttempts: 3, Backoff: retry.BackoffExponentialJitter},
		Tracer:      otelRuntime.Tracer,
	}, recorder, logger)

	httpServer := server.New(eng, source, poller, server.Options{})

	go func() { _ = poller.Run(ctx, session) }()
	go func() {
		ticker := time.NewTicker(autoPanTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now()
				eng.TickAutoPan(now.UnixMilli(), now)
			}
		}
	}()

	if err := startServer(ctx, httpServer, listenAddr(manifest, env)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunSnapshot fetches one window, runs a single layout pass, and writes the
// frame as JSON. A non-empty recordPath additionally saves the pass as a
// session trace that ReplayTrace can verify later.
func RunSnapshot(ctx context.Context, manifestPath, session, recordPath string, out io.Writer) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	source, closeSource, err := buildSource(manifest)
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	if session == "" {
		session, err = pickSession(ctx, manifest, source)
		if err != nil {
			return err
		}
	}

	nowMs := time.Now().UnixMilli()
	tr := manifest.Window().Range(nowMs)
	spans, msgs, err := source.FetchWindow(ctx, session, tr.Start, tr.End)
	if err != nil {
		return fmt.Errorf("fetch window: %w", err)
	}

	eng := engine.New(manifest.EngineOptions(), nil, nil)
	eng.SetSession(session)
	eng.SetWindow(manifest.Window(), nowMs)
	eng.SetData(spans, msgs)
	frame := eng.Layout(nowMs)

	if recordPath != "" {
		rec := trace.NewRecorder(session, time.Now())
		rec.RecordPass(nowMs, eng.Viewport(), frame, frame.Stats.LayoutDuration)
		if err := trace.SaveToFile(recordPath, rec.Finalize(time.Now())); err != nil {
			return fmt.Errorf("record trace: %w", err)
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(frame)
}

// ValidateManifest loads and validates a manifest only.
func ValidateManifest(manifestPath string) error {
	_, err := config.LoadManifest(manifestPath)
	return err
}

// ReplayTrace re-executes a recorded session against the current engine and
// reports the first divergence.
func ReplayTrace(ctx context.Context, manifestPath, tracePath string, out io.Writer) error {
	tr, err := trace.LoadFromFile(tracePath)
	if err != nil {
		return err
	}

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	source, closeSource, err := buildSource(manifest)
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	from, to := replayExtent(tr)
	spans, msgs, err := source.FetchWindow(ctx, tr.SessionID, from, to)
	if err != nil {
		return fmt.Errorf("fetch session %q: %w", tr.SessionID, err)
	}

	eng := engine.New(manifest.EngineOptions(), nil, nil)
	eng.SetSession(tr.SessionID)
	eng.SetData(spans, msgs)

	layoutFn := func(_ context.Context, rec trace.PassRecord) (timeline.Frame, error) {
		eng.RestoreViewport(rec.Viewport)
		return eng.Layout(rec.NowMs), nil
	}
	if err := trace.ReplayAndCompare(ctx, tr, layoutFn); err != nil {
		return fmt.Errorf("replay compare failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "replay matched recorded frames for %d pass(es)\n", len(tr.Passes))
	return nil
}

// replayExtent covers every recorded viewport range so the replay engine
// sees the same records the recording did.
func replayExtent(tr trace.SessionTrace) (int64, int64) {
	if len(tr.Passes) == 0 {
		return 0, 0
	}
	from := tr.Passes[0].Viewport.TimeRange.Start
	to := tr.Passes[0].Viewport.TimeRange.End
	for _, p := range tr.Passes[1:] {
		if p.Viewport.TimeRange.Start < from {
			from = p.Viewport.TimeRange.Start
		}
		if p.Viewport.TimeRange.End > to {
			to = p.Viewport.TimeRange.End
		}
	}
	return from, to
}

func buildSource(m config.Manifest) (feed.Source, func() error, error) {
	noop := func() error { return nil }
	switch m.Feed.Source {
	case "", "memory":
		return feed.NewMemorySource(), noop, nil
	case "redis":
		src, err := feed.NewRedisSource(m.Feed.RedisURL, m.Feed.RedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("build redis feed: %w", err)
		}
		return src, src.Close, nil
	case "archive":
		src, err := feed.OpenArchive(m.Feed.ArchivePath)
		if err != nil {
			return nil, nil, fmt.Errorf("build archive feed: %w", err)
		}
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrManifestUnknownFeed, m.Feed.Source)
	}
}

// pickSession honors the manifest pin, otherwise takes the most recent
// session the source knows about.
func pickSession(ctx context.Context, m config.Manifest, source feed.Source) (string, error) {
	if m.Feed.Session != "" {
		return m.Feed.Session, nil
	}
	tr := timeline.Window24h.Range(time.Now().UnixMilli())
	sessions, err := source.Sessions(ctx, tr.Start, tr.End)
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "", feed.ErrUnknownSession
	}
	return sessions[0], nil
}

func startServer(ctx context.Context, s *server.Server, addr string) error {
	if envBool("TIMELINE_TLS_ENABLED") {
		return s.StartTLS(
			ctx,
			addr,
			os.Getenv("TIMELINE_TLS_CERT_FILE"),
			os.Getenv("TIMELINE_TLS_KEY_FILE"),
			os.Getenv("TIMELINE_TLS_CA_FILE"),
			envBool("TIMELINE_TLS_REQUIRE_CLIENT_CERT"),
		)
	}
	return s.Start(ctx, addr)
}

func auditPath(m config.Manifest, env config.EnvOverrides) string {
	if env.AuditLogPath != "" {
		return env.AuditLogPath
	}
	return m.Dashboard.AuditLogPath
}

func listenAddr(m config.Manifest, env config.EnvOverrides) string {
	if env.Listen != "" {
		return env.Listen
	}
	if m.Dashboard.Listen != "" {
		return m.Dashboard.Listen
	}
	return ":8090"
}

func metricsAddr(m config.Manifest, env config.EnvOverrides) string {
	if env.MetricsListen != "" {
		return env.MetricsListen
	}
	if m.Dashboard.MetricsListen != "" {
		return m.Dashboard.MetricsListen
	}
	return ":2112"
}

func envBool(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
