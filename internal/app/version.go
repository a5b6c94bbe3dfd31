package app

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/tejashwikalptaru/carplayer/internal/app.Version=…".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	Modified  bool
}

// GetVersionInfo returns the ldflags values, completed from the VCS
// stamp of the Go build info when they were not set.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}

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
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// FullString returns a detailed version string for logging.
func (v VersionInfo) FullString() string {
	commit := v.GitCommit
	if commit == "" {
		commit = "unknown"
	} else if len(commit) > 12 {
		commit = commit[:12]
	}
	if v.Modified {
		commit += "-dirty"
	}
	built := v.BuildTime
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("CarPlayer %s (commit: %s, built: %s)", v.Version, commit, built)
}
