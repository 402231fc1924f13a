// Package version carries build information stamped in with -ldflags, e.g.
//
//	-X github.com/banshee-data/lidar2d/internal/version.Version=v0.3.0
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build information for -version output and for tagging
// stored sessions.
func String() string {
	return fmt.Sprintf("lidar2d %s (%s, built %s)", Version, GitSHA, BuildTime)
}
