// Package version exposes build version information for the operator API
// and logs.
package version

import (
	"runtime/debug"
	"strings"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Info is the version payload served to operators.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get assembles version information from the linker variable and the
// embedded VCS build info.
func Get() Info {
	info := Info{Version: Version}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit := setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
			info.GitCommit = commit
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// String renders a short version tag like "dev-1a2b3c4-dirty".
func String() string {
	info := Get()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
	}
	if info.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}
