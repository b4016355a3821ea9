// Package version carries build metadata injected at link time via
// -ldflags "-X ...".
package version

import "fmt"

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String formats the build metadata on a single line.
func String() string {
	return fmt.Sprintf("agent-timeline %s (commit=%s build_date=%s)", Version, Commit, BuildDate)
}
