// Package config loads the dashboard manifest and environment overrides.
package config

import (
	"os"
	"time"
)

// EnvOverrides are runtime knobs read from the environment with safe
// defaults, applied on top of the manifest.
type EnvOverrides struct {
	AuditLogPath    string
	Listen          string
	MetricsListen   string
	RefreshInterval time.Duration
}

// FromEnv loads baseline runtime settings from the environment.
func FromEnv() EnvOverrides {
	o := EnvOverrides{
		RefreshInterval: 2 * time.Second,
	}
	o.AuditLogPath = os.Getenv("AUDIT_LOG_PATH")
	o.Listen = os.Getenv("TIMELINE_LISTEN")
	o.MetricsListen = os.Getenv("METRICS_LISTEN")
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			o.RefreshInterval = d
		}
	}
	return o
}
