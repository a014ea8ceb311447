// Package version holds the build metadata release builds inject with
// -ldflags "-X github.com/tabdeck/tabdeck/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the short git hash the binary was built from.
	Commit = "none"

	// BuildDate defaults to process start so local builds still carry a
	// plausible timestamp.
	BuildDate = time.Now().Format(time.RFC3339)

	// GoVersion records the toolchain that produced the binary.
	GoVersion = runtime.Version()
)

// Human renders the build metadata as one log-friendly line.
func Human() string {
	return fmt.Sprintf("%s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
