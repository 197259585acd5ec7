// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Set via -ldflags "-X .../internal/version.Version=..." at release time.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

var (
	once sync.Once

	// Swapped in tests.
	readBuildInfo = debug.ReadBuildInfo
	git           = runGit
)

// resolve fills whatever ldflags left empty: first from the module build
// info stamped by `go build`, then from the git checkout, then defaults.
func resolve() {
	once.Do(func() {
		if info, ok := readBuildInfo(); ok {
			fromBuildInfo(info)
		}
		if Commit == "" {
			if out, err := git("rev-parse", "--short=12", "HEAD"); err == nil && out != "" {
				Commit = out
			} else {
				Commit = "unknown"
			}
		}
		if Version == "" {
			if out, err := git("describe", "--tags", "--abbrev=0"); err == nil && out != "" {
				Version = out
			} else {
				Version = "dev"
			}
		}
		if Date == "" {
			Date = time.Now().Format(time.DateOnly)
		}
	})
}

func fromBuildInfo(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "" && len(s.Value) >= 12 {
				Commit = s.Value[:12]
			} else if Commit == "" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "" {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					Date = t.Format(time.DateOnly)
				}
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if modified && Commit != "" && !strings.HasSuffix(Commit, "-dirty") {
		Commit += "-dirty"
	}
}

// Reset clears resolved values so they are computed again on next access.
func Reset() {
	once = sync.Once{}
	Version, Commit, Date = "", "", ""
}

func runGit(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

// GetVersion returns the release tag, or "dev".
func GetVersion() string {
	resolve()
	return Version
}

// GetCommit returns the short commit hash, or "unknown".
func GetCommit() string {
	resolve()
	return Commit
}

// GetDate returns the build or commit date as YYYY-MM-DD.
func GetDate() string {
	resolve()
	return Date
}

func Info() string {
	resolve()
	return fmt.Sprintf("doublers %s (commit: %s, built: %s, %s, %s/%s)",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
