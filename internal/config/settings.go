package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variables, also accepted in <home>/.env, that tune a run.
const (
	KeyIconBaseURL = "STEAMLAUNCH_ICON_BASE_URL"
	KeyUserAgent   = "STEAMLAUNCH_USER_AGENT"
	KeyWorkers     = "STEAMLAUNCH_WORKERS"
	KeyLogLevel    = "STEAMLAUNCH_LOG_LEVEL"
)

// ErrInvalidSetting marks a setting whose value could not be used.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings are the runtime overrides. Zero values mean "use the built-in default".
type Settings struct {
	IconBaseURL string
	UserAgent   string
	Workers     int
	LogLevel    string
}

// LoadSettings merges <home>/.env with the process environment, the
// environment winning. A missing .env is fine. A bad worker count leaves
// Workers at zero and is reported as ErrInvalidSetting alongside the other,
// still usable, settings.
func LoadSettings() (Settings, error) {
	file, err := readSettingsFile()
	if err != nil {
		return Settings{}, err
	}
	lookup := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return file[key]
	}

	s := Settings{
		IconBaseURL: strings.TrimRight(lookup(KeyIconBaseURL), "/"),
		UserAgent:   lookup(KeyUserAgent),
		LogLevel:    strings.ToLower(lookup(KeyLogLevel)),
	}
	if v := lookup(KeyWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return s, fmt.Errorf("%s=%q: %w", KeyWorkers, v, ErrInvalidSetting)
		}
		s.Workers = n
	}
	return s, nil
}

// SettingsPath returns <home>/.env.
func SettingsPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// readSettingsFile returns the KEY=VALUE lines of <home>/.env with both sides
// trimmed and one pair of surrounding quotes removed from the value. Comments,
// blank lines and keys this package does not know are dropped.
func readSettingsFile() (map[string]string, error) {
	p, err := SettingsPath()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot open settings file %s: %w", p, err)
	}
	defer f.Close()

	out := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(strings.TrimPrefix(k, "export "))
		if !ok || !knownSetting(k) {
			continue
		}
		out[k] = unquote(strings.TrimSpace(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read settings file %s: %w", p, err)
	}
	return out, nil
}

func knownSetting(k string) bool {
	switch k {
	case KeyIconBaseURL, KeyUserAgent, KeyWorkers, KeyLogLevel:
		return true
	}
	return false
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
