package buildinfo

import (
	"fmt"

	"github.com/TamimulAhsan/sentineliam/core/infra/logging"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a single-line build summary.
func Info() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", Version, Commit, Date)
}

// Log writes the build summary for the named tool.
func Log(tool string) {
	logging.Info(tool, "build summary", "version", Version, "commit", Commit, "date", Date)
}
