// Package scaffold writes a starter dashboard manifest.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Generate creates a manifests/ directory with an example dashboard
// manifest in targetDir.
func Generate(targetDir string, dashboardName string) error {
	if strings.TrimSpace(targetDir) == "" {
		return fmt.Errorf("target directory is empty")
	}
	if strings.TrimSpace(dashboardName) == "" {
		dashboardName = "dashboard"
	}

	if err := os.MkdirAll(filepath.Join(targetDir, "manifests"), 0o755); err != nil {
		return fmt.Errorf("mkdir manifests: %w", err)
	}

	manifest := `dashboard:
  listen: ":8090"
  metrics_listen: ":2112"
  window: 1h
  audit_log_path: ""

layout:
  lane_height: 44
  trunk_y: 40
  margin_left: 120
  margin_right: 50
  bucket_width_ms: 5000
  max_lanes: 50
  min_span_ms: 1000

viewport:
  zoom_min: 0.1
  zoom_max: 10
  zoom_step: 1.2

autopan:
  edge_fraction: 0.92
  smoothing: 0.15
  stop_threshold_px: 0.5
  suspend_timeout: 3s

lod:
  frame_budget: 25ms
  agent_threshold: 200

feed:
  source: memory
  refresh_interval: 2s
  min_refresh: 500ms
`

	path := filepath.Join(targetDir, "manifests", dashboardName+".yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
