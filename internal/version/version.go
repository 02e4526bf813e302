// Package version reports the build version of the crawler binary.
package version

import "runtime/debug"

// Version is set at build time via
// -ldflags "-X github.com/alvmarrod/wiki-weaver/internal/version.Version=..."
var Version = ""

// Get returns the version string.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func Get() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Commit returns the VCS revision recorded in the binary, or "unknown"
func Commit() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "unknown"
}

// UserAgent returns the default User-Agent sent with every request
func UserAgent() string {
	return "wiki-weaver/" + Get()
}
