// Package version carries build metadata injected via ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/docpublish/internal/version.Version=v1.2.0"
package version

import "fmt"

var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("docpublish %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
