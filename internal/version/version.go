// Package version exposes build metadata stamped at link time with
// -ldflags "-X .../internal/version.Version=..." and falls back to the
// module build info recorded by the go tool.
package version

import (
	"fmt"
	"runtime/debug"
)

const AppName = "celestialexplorer-web"

var (
	Version    = "dev"
	Commit     = "none"
	CommitDate string
	BuildDate  string
	BuildID    string
	GoVersion  string
	VCSDirty   *bool
)

type Info struct {
	App        string `json:"app"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	CommitDate string `json:"commit_date,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	BuildID    string `json:"build_id,omitempty"`
	GoVersion  string `json:"go_version"`
	VCSDirty   *bool  `json:"vcs_dirty,omitempty"`
}

// String is the one-line form printed by -V.
func (i Info) String() string {
	s := fmt.Sprintf("%s %s (commit %s, %s)", i.App, i.Version, shortCommit(i.Commit), i.GoVersion)
	if i.VCSDirty != nil && *i.VCSDirty {
		s += " dirty"
	}
	return s
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}

func Get() Info {
	out := Info{
		App:        AppName,
		Version:    Version,
		Commit:     Commit,
		CommitDate: CommitDate,
		BuildDate:  BuildDate,
		BuildID:    BuildID,
		GoVersion:  GoVersion,
		VCSDirty:   VCSDirty,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "none" && s.Value != "" {
				out.Commit = s.Value
			}
		case "vcs.time":
			if out.CommitDate == "" {
				out.CommitDate = s.Value
			}
		case "vcs.modified":
			if out.VCSDirty == nil && (s.Value == "true" || s.Value == "false") {
				dirty := s.Value == "true"
				out.VCSDirty = &dirty
			}
		}
	}
	return out
}
