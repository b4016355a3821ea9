package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder reports engine metrics using Prometheus primitives.
type PrometheusRecorder struct {
	layoutPasses   prometheus.Histogram
	visibleGauges  *prometheus.GaugeVec
	culled         *prometheus.CounterVec
	fetches        *prometheus.HistogramVec
	lodDowngrades  prometheus.Counter
	controlActions *prometheus.CounterVec
}

func NewPrometheusRecorder(registry *prometheus.Registry) (*PrometheusRecorder, error) {
	if registry == nil {
		return nil, fmt.Errorf("prometheus registry is nil")
	}

	r := &PrometheusRecorder{
		layoutPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timeline_layout_pass_duration_seconds",
			Help:    "Layout pass latency in seconds",
			Buckets: []float64{.001, .002, .004, .008, .016, .025, .05, .1, .25},
		}),
		visibleGauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timeline_visible_elements",
			Help: "Elements emitted by the last layout pass",
		}, []string{"kind"}),
		culled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timeline_culled_elements_total",
			Help: "Elements dropped by viewport culling",
		}, []string{"kind"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timeline_feed_fetch_duration_seconds",
			Help:    "Feed fetch latency in seconds by source and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"source", "status"}),
		lodDowngrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeline_lod_downgrades_total",
			Help: "Times the LOD governor engaged the auto performance mode",
		}),
		controlActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timeline_control_actions_total",
			Help: "Control surface actions by action name",
		}, []string{"action"}),
	}

	for _, collector := range []prometheus.Collector{
		r.layoutPasses, r.visibleGauges, r.culled, r.fetches, r.lodDowngrades, r.controlActions,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) ObserveLayoutPass(d time.Duration, agents, messages, lanes int) {
	r.layoutPasses.Observe(d.Seconds())
	r.visibleGauges.WithLabelValues("agents").Set(float64(agents))
	r.visibleGauges.WithLabelValues("messages").Set(float64(messages))
	r.visibleGauges.WithLabelValues("lanes").Set(float64(lanes))
}

func (r *PrometheusRecorder) ObserveCulled(agents, messages int) {
	if agents > 0 {
		r.culled.WithLabelValues("agents").Add(float64(agents))
	}
	if messages > 0 {
		r.culled.WithLabelValues("messages").Add(float64(messages))
	}
}

func (r *PrometheusRecorder) ObserveFetch(source, status string, d time.Duration) {
	r.fetches.WithLabelValues(source, status).Observe(d.Seconds())
}

func (r *PrometheusRecorder) ObserveLODDowngrade() {
	r.lodDowngrades.Inc()
}

func (r *PrometheusRecorder) ObserveControlAction(action string) {
	r.controlActions.WithLabelValues(action).Inc()
}

// StartPrometheusServer exposes the registry on its own listener.
func StartPrometheusServer(addr string, registry *prometheus.Registry) (*http.Server, error) {
	if addr == "" {
		addr = ":2112"
	}
	if registry == nil {
		return nil, fmt.Errorf("prometheus registry is nil")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics endpoint %q: %w", addr, err)
	}

	srv := &http.Server{
		Addr:    ln.Addr().String(),
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		_ = srv.Serve(ln)
	}()
	return srv, nil
}

// StopServer shuts down a metrics listener started by StartPrometheusServer.
func StopServer(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
