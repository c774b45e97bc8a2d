// Package version reports what build of the cajoler is running.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags "-X bennypowers.dev/cajoler/internal/version.Version=v1.2.3"
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes a build.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	Dirty     bool
}

// Get combines the linker flags with the module and VCS information the Go
// toolchain embeds. Linker flags win.
func Get() Info {
	return fromBuildInfo(debug.ReadBuildInfo())
}

func fromBuildInfo(bi *debug.BuildInfo, ok bool) Info {
	info := Info{Version: Version, Commit: GitCommit, BuildTime: BuildTime}
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String is the version, suffixed with the short commit for development
// builds.
func (i Info) String() string {
	v := i.Version
	if v == "dev" && i.Commit != "" {
		v += "-" + shortCommit(i.Commit)
	}
	if i.Dirty {
		v += "-dirty"
	}
	return v
}

// Full adds the commit and build time when known.
func (i Info) Full() string {
	s := i.String()
	if i.Commit != "" {
		s += fmt.Sprintf(" (commit: %s", shortCommit(i.Commit))
		if i.BuildTime != "" {
			s += ", built: " + i.BuildTime
		}
		s += ")"
	}
	return s
}

// GetVersion returns the version string for the running build.
func GetVersion() string {
	return Get().String()
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
