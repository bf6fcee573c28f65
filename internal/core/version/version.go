// Package version reports build information stamped in with -ldflags
//
//	-X peacekeeper/internal/core/version.version=v0.3.0
//	-X peacekeeper/internal/core/version.commit=abc123
//	-X peacekeeper/internal/core/version.date=2026-10-01
package version

import "runtime/debug"

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the stamped values; an unstamped commit falls back to the
// vcs revision recorded by the go toolchain
func Info() BuildInfo {
	bi := BuildInfo{Version: version, Commit: commit, Date: date}
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return bi
	}
	bi.GoVersion = info.GoVersion
	if bi.Commit == "none" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				bi.Commit = s.Value
			}
		}
	}
	return bi
}
