package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
dashboard:
  listen: ":8080"
  window: "15m"
layout:
  lane_height: 52
  bucket_width_ms: 10000
  max_lanes: 30
autopan:
  edge_fraction: 0.9
  suspend_timeout: "5s"
feed:
  source: memory
  refresh_interval: "1.5s"
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Window() != timeline.Window15m {
		t.Fatalf("window = %v", m.Window())
	}

	opts := m.EngineOptions()
	if opts.LaneHeight != 52 || opts.BucketWidthMs != 10000 {
		t.Fatalf("layout settings not applied: %+v", opts)
	}
	if opts.Alloc.MaxLanes != 30 {
		t.Fatalf("max lanes = %d", opts.Alloc.MaxLanes)
	}
	if opts.AutoPan.EdgeFraction != 0.9 || opts.AutoPan.SuspendTimeout != 5*time.Second {
		t.Fatalf("autopan settings not applied: %+v", opts.AutoPan)
	}
	if m.RefreshInterval() != 1500*time.Millisecond {
		t.Fatalf("refresh interval = %v", m.RefreshInterval())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	path := writeManifest(t, "dashboard: {}\n")
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Window() != timeline.Window1h {
		t.Fatalf("default window = %v", m.Window())
	}
	opts := m.EngineOptions()
	if opts.LaneHeight != 44 || opts.Margins.Left != 120 {
		t.Fatalf("defaults not applied: %+v", opts)
	}
	if m.MinRefresh() != 500*time.Millisecond {
		t.Fatalf("min refresh default = %v", m.MinRefresh())
	}
}

func TestValidateRejectsBadFeed(t *testing.T) {
	path := writeManifest(t, "feed:\n  source: carrier-pigeon\n")
	if _, err := LoadManifest(path); !errors.Is(err, ErrManifestUnknownFeed) {
		t.Fatalf("expected ErrManifestUnknownFeed, got %v", err)
	}

	path = writeManifest(t, "feed:\n  source: redis\n")
	if _, err := LoadManifest(path); !errors.Is(err, ErrManifestMissingRedis) {
		t.Fatalf("expected ErrManifestMissingRedis, got %v", err)
	}

	path = writeManifest(t, "feed:\n  source: archive\n")
	if _, err := LoadManifest(path); !errors.Is(err, ErrManifestMissingDBPath) {
		t.Fatalf("expected ErrManifestMissingDBPath, got %v", err)
	}
}

func TestValidateRejectsBadWindow(t *testing.T) {
	path := writeManifest(t, "dashboard:\n  window: \"90m\"\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected an error for an unsupported window")
	}
}
