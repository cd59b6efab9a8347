package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PathState is the validation state of a configured path.
type PathState int

const (
	// PathUnset means the user has not configured the path.
	PathUnset PathState = iota
	// PathInvalid means the path is configured but fails its existence/shape check.
	PathInvalid
	// PathValid means the path is usable.
	PathValid
)

func (s PathState) String() string {
	switch s {
	case PathUnset:
		return "unset"
	case PathInvalid:
		return "invalid"
	case PathValid:
		return "valid"
	default:
		return "unknown"
	}
}

// State is the evaluated view of a Config that query and action handling branch on.
type State struct {
	SteamDir      string
	SteamAppsDir  string
	SteamDirState PathState
	AppsDirState  PathState
}

// Evaluate checks both configured paths against the filesystem.
func Evaluate(cfg *Config) State {
	if cfg == nil {
		cfg = &Config{}
	}
	return State{
		SteamDir:      cfg.SteamDir,
		SteamAppsDir:  cfg.SteamAppsDir,
		SteamDirState: steamDirState(cfg.SteamDir),
		AppsDirState:  appsDirState(cfg.SteamAppsDir),
	}
}

// Ready reports whether both paths are valid.
func (s State) Ready() bool {
	return s.SteamDirState == PathValid && s.AppsDirState == PathValid
}

func appsDirState(p string) PathState {
	if p == "" {
		return PathUnset
	}
	if !isDir(p) {
		return PathInvalid
	}
	return PathValid
}

func steamDirState(p string) PathState {
	if p == "" {
		return PathUnset
	}
	if !isDir(p) {
		return PathInvalid
	}
	if _, ok := FindSteamExecutable(p); !ok {
		return PathInvalid
	}
	return PathValid
}

// SteamExecutableNames lists the client executable names accepted on this platform.
func SteamExecutableNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"steam.exe"}
	}
	return []string{"steam", "steam.sh"}
}

// FindSteamExecutable returns the client executable inside dir, if any.
func FindSteamExecutable(dir string) (string, bool) {
	for _, name := range SteamExecutableNames() {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
