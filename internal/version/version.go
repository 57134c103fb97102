// Package version reports build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Name is the service name reported by /version and the server banner
const Name = "hostwatch"

var (
	// Version is the current version of the application
	Version = "v0.1.0-dev"
	// GitCommit is the git commit that was compiled
	GitCommit = "unknown"
	// BuildDate is the date the binary was built
	BuildDate = "unknown"
)

// Info represents version information
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the version information
func Get() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a one-line banner, e.g. "hostwatch v0.1.0 (abc123, built 2024-03-14, go1.24.3 linux/amd64)"
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s, built %s, %s %s)",
		i.Name, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
