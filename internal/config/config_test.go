package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`C:\Program Files (x86)\Steam`, "C:/Program Files (x86)/Steam/"},
		{`C:\Steam\\steamapps\\`, "C:/Steam/steamapps/"},
		{"/home/me//games///steamapps/", "/home/me/games/steamapps/"},
		{"  /srv/steam  ", "/srv/steam/"},
		{"relative\\dir", "relative/dir/"},
	}
	for _, c := range cases {
		if got := NormalizePath(c.in); got != c.want {
			t.Fatalf("NormalizePath(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SteamDir != "" || cfg.SteamAppsDir != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	in := &Config{SteamDir: "C:/Steam/", SteamAppsDir: "C:/Steam/steamapps/"}
	if err := Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
		t.Fatalf("config.yaml not written: %v", err)
	}
	out, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("steam_dir: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}

func TestSetHome_TakesPrecedence(t *testing.T) {
	envHome := t.TempDir()
	flagHome := t.TempDir()
	t.Setenv(HomeEnv, envHome)
	SetHome(flagHome)
	t.Cleanup(func() { SetHome("") })

	got, err := HomeDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != flagHome {
		t.Fatalf("HomeDir=%q want %q", got, flagHome)
	}
}

func TestEvaluate_TriState(t *testing.T) {
	tmp := t.TempDir()
	steamDir := filepath.Join(tmp, "Steam")
	appsDir := filepath.Join(steamDir, "steamapps")
	if err := os.MkdirAll(appsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	// Steam dir exists but has no client executable yet.
	st := Evaluate(&Config{SteamDir: steamDir, SteamAppsDir: appsDir})
	if st.SteamDirState != PathInvalid {
		t.Fatalf("steam dir without executable: got %s want invalid", st.SteamDirState)
	}
	if st.AppsDirState != PathValid {
		t.Fatalf("apps dir: got %s want valid", st.AppsDirState)
	}

	exe := filepath.Join(steamDir, SteamExecutableNames()[0])
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	st = Evaluate(&Config{SteamDir: steamDir, SteamAppsDir: appsDir})
	if !st.Ready() {
		t.Fatalf("expected ready state, got %+v", st)
	}

	st = Evaluate(&Config{SteamAppsDir: filepath.Join(tmp, "nope")})
	if st.SteamDirState != PathUnset {
		t.Fatalf("steam dir: got %s want unset", st.SteamDirState)
	}
	if st.AppsDirState != PathInvalid {
		t.Fatalf("apps dir: got %s want invalid", st.AppsDirState)
	}

	if st := Evaluate(nil); st.SteamDirState != PathUnset || st.AppsDirState != PathUnset {
		t.Fatalf("nil config should be unset/unset, got %+v", st)
	}
}
