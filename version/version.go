package version

import "fmt"

// These variables are set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GetVersion returns the version string
func GetVersion() string {
	return Version
}

// GetFullVersion returns the version with commit and build date
func GetFullVersion() string {
	if Version == "dev" {
		return fmt.Sprintf("arview dev (%s)", GitCommit)
	}
	return fmt.Sprintf("arview %s (%s, built %s)", Version, GitCommit, BuildDate)
}
