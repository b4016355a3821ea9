package timeline

import (
	"fmt"
	"time"
)

// Window is one of the supported nominal time windows. Selecting a window
// resets the viewport's time range and, by convention, re-enables follow
// mode.
type Window string

const (
	Window15m Window = "15m"
	Window1h  Window = "1h"
	Window6h  Window = "6h"
	Window24h Window = "24h"
)

// Windows lists the supported windows in ascending duration order.
func Windows() []Window {
	return []Window{Window15m, Window1h, Window6h, Window24h}
}

// Duration returns the window length. Unknown windows fall back to one hour.
func (w Window) Duration() time.Duration {
	switch w {
	case Window15m:
		return 15 * time.Minute
	case Window1h:
		return time.Hour
	case Window6h:
		return 6 * time.Hour
	case Window24h:
		return 24 * time.Hour
	}
	return time.Hour
}

// Range returns the window's time range ending at now (Unix milliseconds).
func (w Window) Range(nowMs int64) TimeRange {
	return TimeRange{Start: nowMs - w.Duration().Milliseconds(), End: nowMs}
}

// ParseWindow validates a window label.
func ParseWindow(s string) (Window, error) {
	for _, w := range Windows() {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unsupported time window %q", s)
}

// Next returns the next larger window, wrapping around to the smallest.
func (w Window) Next() Window {
	all := Windows()
	for i, cur := range all {
		if cur == w {
			return all[(i+1)%len(all)]
		}
	}
	return Window1h
}
