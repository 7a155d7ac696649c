// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "tripdex <version> (<commit>, <date>)".
func String() string {
	return fmt.Sprintf("tripdex %s (%s, %s)", Version, Commit, Date)
}

// ClientName identifies this build to peers such as the NATS server.
func ClientName() string {
	return "tripdex/" + Version
}
