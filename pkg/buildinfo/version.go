// Package buildinfo reports which spangrid build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/spangrid/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/spangrid/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Unstamped builds fall back to the VCS data the go tool embeds.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the resolved build identity.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	Dirty   bool   `json:"dirty,omitempty"`
	Go      string `json:"go,omitempty"`
}

// Get merges the ldflags values with debug.ReadBuildInfo. Stamped values win.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Go = bi.GoVersion
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
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String renders "v0.3.0 (abc1234, 2026-01-02T03:04:05Z)", leaving out
// whatever is unknown.
func (i Info) String() string {
	var meta []string
	if i.Commit != "" {
		c := i.Commit
		if len(c) > 12 {
			c = c[:12]
		}
		if i.Dirty {
			c += "-dirty"
		}
		meta = append(meta, c)
	}
	if i.Date != "" {
		meta = append(meta, i.Date)
	}
	if len(meta) == 0 {
		return i.Version
	}
	return fmt.Sprintf("%s (%s)", i.Version, strings.Join(meta, ", "))
}

// Template is the cobra version template.
func Template() string {
	return "{{.Name}} " + Get().String() + "\n"
}
