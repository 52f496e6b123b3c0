// Package version provides build and version information for indexpanel.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of indexpanel.
// Set via ldflags at build time, or defaults to dev.
// Makefile sets: -X github.com/Aman-CERP/indexpanel/pkg/version.Version=$(VERSION)
var Version = "dev"

// Build information set via ldflags at build time.
var (
	// Commit is the git commit hash.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"

	// GoVersion is the Go version used to build the binary (set at runtime).
	GoVersion = runtime.Version()
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String returns a formatted version string with all build info.
func String() string {
	return fmt.Sprintf("indexpanel %s (commit: %s, built: %s, go: %s)",
		Version, resolveCommit(), resolveCommitDate(), GoVersion)
}

// Short returns just the version string.
func Short() string {
	return Version
}

// UserAgent is sent with every backend request.
func UserAgent() string {
	return "indexpanel/" + Version
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    resolveCommit(),
		Date:      resolveCommitDate(),
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// resolveCommit falls back to the VCS stamp of `go install` builds.
func resolveCommit() string {
	if Commit != "unknown" {
		return Commit
	}
	if rev := buildSetting("vcs.revision"); rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		return rev
	}
	return Commit
}

func resolveCommitDate() string {
	if Date != "unknown" {
		return Date
	}
	if t := buildSetting("vcs.time"); t != "" {
		return t
	}
	return Date
}

func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
