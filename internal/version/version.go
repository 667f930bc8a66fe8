package version

import "fmt"

// These variables are set at build time using -ldflags
// Example: go build -ldflags "-X github.com/agerpk/estructural/internal/version.Version=1.0.0"
var (
	// Version is the semantic version of the application
	Version = "0.3.0"

	// BuildTime is the time the binary was built (set via ldflags)
	BuildTime = "unknown"

	// GitCommit is the git commit hash (set via ldflags)
	GitCommit = "unknown"

	// Standard the calculations follow
	Standard = "AEA 95301-2007"
)

// String renders the build metadata on one line
func String() string {
	return fmt.Sprintf("estructural v%s (%s, commit %s, built %s)", Version, Standard, GitCommit, BuildTime)
}
