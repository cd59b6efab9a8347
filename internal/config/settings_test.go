package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, body string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	for _, k := range []string{KeyIconBaseURL, KeyUserAgent, KeyWorkers, KeyLogLevel} {
		t.Setenv(k, "")
	}
	if body == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(home, ".env"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSettings_NoFile(t *testing.T) {
	writeSettings(t, "")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s != (Settings{}) {
		t.Fatalf("expected zero settings, got %+v", s)
	}
}

func TestLoadSettings_ParsesFile(t *testing.T) {
	writeSettings(t, "# icons\n"+
		KeyIconBaseURL+"=http://cdn.local/apps/\n"+
		"export "+KeyUserAgent+` = "steamlaunch test"`+"\n"+
		KeyWorkers+"=3\n"+
		KeyLogLevel+"=DEBUG\n"+
		"UNRELATED=1\n=skip\n")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	want := Settings{
		IconBaseURL: "http://cdn.local/apps",
		UserAgent:   "steamlaunch test",
		Workers:     3,
		LogLevel:    "debug",
	}
	if s != want {
		t.Fatalf("got %+v want %+v", s, want)
	}
}

func TestLoadSettings_EnvOverridesFile(t *testing.T) {
	writeSettings(t, KeyUserAgent+"=fromfile\n"+KeyWorkers+"=2\n")
	t.Setenv(KeyUserAgent, "fromenv")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.UserAgent != "fromenv" || s.Workers != 2 {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestLoadSettings_BadWorkerCount(t *testing.T) {
	for _, v := range []string{"zero", "0", "-4"} {
		writeSettings(t, KeyWorkers+"="+v+"\n"+KeyLogLevel+"=warn\n")

		s, err := LoadSettings()
		if !errors.Is(err, ErrInvalidSetting) {
			t.Fatalf("%q: expected ErrInvalidSetting, got %v", v, err)
		}
		if s.Workers != 0 || s.LogLevel != "warn" {
			t.Fatalf("%q: other settings should survive, got %+v", v, s)
		}
	}
}
