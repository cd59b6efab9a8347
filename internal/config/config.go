package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// HomeEnv overrides the directory holding config, cache, icons and logs.
const HomeEnv = "STEAMLAUNCH_HOME"

// Config is the in-memory representation of <home>/config.yaml.
type Config struct {
	// SteamDir is the Steam client install directory (holds the client executable).
	SteamDir string `yaml:"steam_dir"`
	// SteamAppsDir is the library root holding appmanifest_*.acf files.
	SteamAppsDir string `yaml:"steamapps_dir"`
}

var homeOverride string

// SetHome forces the home directory, typically from the --home flag.
func SetHome(dir string) {
	homeOverride = dir
}

// HomeDir returns the directory holding steamlaunch's files.
//
// Resolution order: SetHome, $STEAMLAUNCH_HOME, then the directory of the
// running executable (plugin hosts start plugins from their own folder).
func HomeDir() (string, error) {
	if homeOverride != "" {
		return ExpandPath(homeOverride)
	}
	if v := os.Getenv(HomeEnv); v != "" {
		return ExpandPath(v)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot determine executable path: %w", err)
	}
	return filepath.Dir(exe), nil
}

// ConfigPath returns the absolute path to <home>/config.yaml.
func ConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// CachePath returns the absolute path to <home>/cache.json.
func CachePath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.json"), nil
}

// IconDir returns the absolute path to <home>/icon.
func IconDir() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "icon"), nil
}

// LogPath returns the absolute path to <home>/steamlaunch.log.
func LogPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "steamlaunch.log"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

var separatorRun = regexp.MustCompile(`[/\\]+`)

// NormalizePath rewrites p with forward slashes and exactly one trailing slash.
//
//	C:\Program Files (x86)\Steam\\  →  C:/Program Files (x86)/Steam/
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, `/\`)
	return separatorRun.ReplaceAllString(p, "/") + "/"
}

// Load reads and parses <home>/config.yaml. A missing file yields an empty Config.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to <home>/config.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
