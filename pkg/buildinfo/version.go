// Package buildinfo reports the version of the running binary.
//
// Release builds stamp the variables through ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/chainflow/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/chainflow/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/chainflow/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds fall back to the VCS settings the Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build information served by the status endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go"`
}

// Get returns the stamped build information, filling unstamped fields from
// the embedded VCS settings when present.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String returns the build information, one field per line.
func String() string {
	i := Get()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s", i.Version, i.Commit, i.Date, i.GoVersion)
}

// Template returns the cobra version template.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} version %s (%s)\n", i.Version, i.Commit)
}
