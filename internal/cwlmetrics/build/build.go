package build

import "runtime"

// Overridden at link time, e.g.,
// go build -ldflags "-X github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/build.ReleaseVersion=v1.2.0"
var (
	ReleaseVersion = "UNKNOWN_VERSION"
	GitCommit      = "UNKNOWN_GITCOMMIT"
	BuildTime      = "UNKNOWN_BUILDTIME"
	GoVersion      = runtime.Version()
)
