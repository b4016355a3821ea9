package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/your-org/agent-timeline/internal/autopan"
	"github.com/your-org/agent-timeline/internal/engine"
	"github.com/your-org/agent-timeline/internal/layout"
	"github.com/your-org/agent-timeline/internal/view"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

var (
	ErrManifestUnknownFeed   = errors.New("manifest: unknown feed source")
	ErrManifestMissingRedis  = errors.New("manifest: redis feed requires redis_url")
	ErrManifestMissingDBPath = errors.New("manifest: archive feed requires archive_path")
)

// Manifest is the top-level dashboard manifest file.
type Manifest struct {
	Dashboard DashboardSettings `yaml:"dashboard"`
	Layout    LayoutSettings    `yaml:"layout"`
	Viewport  ViewportSettings  `yaml:"viewport"`
	AutoPan   AutoPanSettings   `yaml:"autopan"`
	LOD       LODSettings       `yaml:"lod"`
	Feed      FeedSettings      `yaml:"feed"`
}

// DashboardSettings configures the serving surfaces.
type DashboardSettings struct {
	Listen        string `yaml:"listen"`
	MetricsListen string `yaml:"metrics_listen"`
	Window        string `yaml:"window"`
	AuditLogPath  string `yaml:"audit_log_path"`
}

// LayoutSettings configures the geometry constants.
type LayoutSettings struct {
	LaneHeight    float64 `yaml:"lane_height"`
	TrunkY        float64 `yaml:"trunk_y"`
	MarginLeft    float64 `yaml:"margin_left"`
	MarginRight   float64 `yaml:"margin_right"`
	BucketWidthMs int64   `yaml:"bucket_width_ms"`
	MaxLanes      int     `yaml:"max_lanes"`
	MinSpanMs     int64   `yaml:"min_span_ms"`
}

// ViewportSettings bounds the view transform.
type ViewportSettings struct {
	ZoomMin  float64 `yaml:"zoom_min"`
	ZoomMax  float64 `yaml:"zoom_max"`
	ZoomStep float64 `yaml:"zoom_step"`
}

// AutoPanSettings tunes the follow loop.
type AutoPanSettings struct {
	EdgeFraction    float64 `yaml:"edge_fraction"`
	Smoothing       float64 `yaml:"smoothing"`
	StopThresholdPx float64 `yaml:"stop_threshold_px"`
	SuspendTimeout  string  `yaml:"suspend_timeout"`
}

// LODSettings tunes the detail governor.
type LODSettings struct {
	FrameBudget    string `yaml:"frame_budget"`
	AgentThreshold int    `yaml:"agent_threshold"`
}

// FeedSettings selects and configures the data source.
type FeedSettings struct {
	Source          string `yaml:"source"` // memory | redis | archive
	RedisURL        string `yaml:"redis_url"`
	RedisPrefix     string `yaml:"redis_prefix"`
	ArchivePath     string `yaml:"archive_path"`
	Session         string `yaml:"session"`
	RefreshInterval string `yaml:"refresh_interval"`
	MinRefresh      string `yaml:"min_refresh"`
}

// LoadManifest parses and validates a YAML manifest.
func LoadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read %q: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: unmarshal %q: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks the cross-field constraints; missing values are fine and
// fall back to defaults at build time.
func (m Manifest) Validate() error {
	switch m.Feed.Source {
	case "", "memory":
	case "redis":
		if m.Feed.RedisURL == "" {
			return ErrManifestMissingRedis
		}
	case "archive":
		if m.Feed.ArchivePath == "" {
			return ErrManifestMissingDBPath
		}
	default:
		return fmt.Errorf("%w: %q", ErrManifestUnknownFeed, m.Feed.Source)
	}

	if m.Dashboard.Window != "" {
		if _, err := timeline.ParseWindow(m.Dashboard.Window); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}
	return nil
}

// Window returns the configured nominal window, defaulting to one hour.
func (m Manifest) Window() timeline.Window {
	if m.Dashboard.Window == "" {
		return timeline.Window1h
	}
	w, err := timeline.ParseWindow(m.Dashboard.Window)
	if err != nil {
		return timeline.Window1h
	}
	return w
}

// EngineOptions maps the manifest onto engine tuning, filling defaults for
// anything unset.
func (m Manifest) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()

	if m.Layout.LaneHeight > 0 {
		opts.LaneHeight = m.Layout.LaneHeight
	}
	if m.Layout.TrunkY > 0 {
		opts.TrunkY = m.Layout.TrunkY
	}
	if m.Layout.MarginLeft > 0 {
		opts.Margins.Left = m.Layout.MarginLeft
	}
	if m.Layout.MarginRight > 0 {
		opts.Margins.Right = m.Layout.MarginRight
	}
	if m.Layout.BucketWidthMs > 0 {
		opts.BucketWidthMs = m.Layout.BucketWidthMs
	}
	opts.Alloc = layout.AllocOptions{
		MaxLanes:  m.Layout.MaxLanes,
		MinSpanMs: m.Layout.MinSpanMs,
	}
	opts.View = view.Config{
		ZoomMin:  m.Viewport.ZoomMin,
		ZoomMax:  m.Viewport.ZoomMax,
		ZoomStep: m.Viewport.ZoomStep,
	}
	opts.AutoPan = autopan.Config{
		EdgeFraction:    m.AutoPan.EdgeFraction,
		Smoothing:       m.AutoPan.Smoothing,
		StopThresholdPx: m.AutoPan.StopThresholdPx,
		SuspendTimeout:  parseDuration(m.AutoPan.SuspendTimeout, 3*time.Second),
		Margins:         opts.Margins,
	}
	opts.FrameBudget = parseDuration(m.LOD.FrameBudget, 25*time.Millisecond)
	opts.AgentThreshold = m.LOD.AgentThreshold
	return opts
}

// RefreshInterval returns the feed polling cadence.
func (m Manifest) RefreshInterval() time.Duration {
	return parseDuration(m.Feed.RefreshInterval, 2*time.Second)
}

// MinRefresh returns the fetch throttle floor.
func (m Manifest) MinRefresh() time.Duration {
	return parseDuration(m.Feed.MinRefresh, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
