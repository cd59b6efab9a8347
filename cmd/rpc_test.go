package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamusis/steamlaunch/internal/config"
	"github.com/kamusis/steamlaunch/internal/plugin"
)

// setupHome points steamlaunch at a fresh home with a library holding games
// and returns the home and library directories. Icon lookups hit a local 404.
func setupHome(t *testing.T, games map[string]string) (string, string) {
	t.Helper()
	home := t.TempDir()
	config.SetHome(home)
	t.Cleanup(func() { config.SetHome("") })

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	t.Setenv(config.KeyIconBaseURL, srv.URL)

	lib := filepath.Join(home, "steamapps")
	if err := os.MkdirAll(lib, 0o755); err != nil {
		t.Fatal(err)
	}
	for id, name := range games {
		body := fmt.Sprintf("\"AppState\"\n{\n\t\"appid\"\t\t\"%s\"\n\t\"name\"\t\t\"%s\"\n}\n", id, name)
		if err := os.WriteFile(filepath.Join(lib, "appmanifest_"+id+".acf"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return home, lib
}

func decodeResponse(t *testing.T, out string) []plugin.Item {
	t.Helper()
	var resp plugin.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, out)
	}
	return resp.Result
}

func TestServeRPC_QueryListsMatchingGames(t *testing.T) {
	_, lib := setupHome(t, map[string]string{"220": "Half-Life 2", "400": "Portal", "620": "Portal 2"})
	steam := t.TempDir()
	if err := os.WriteFile(filepath.Join(steam, config.SteamExecutableNames()[0]), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := config.Save(&config.Config{SteamDir: steam, SteamAppsDir: lib}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := serveRPC(context.Background(), &out, `{"method":"query","parameters":["PORTAL"]}`); err != nil {
		t.Fatalf("serveRPC: %v", err)
	}
	items := decodeResponse(t, out.String())
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	if strings.Join(titles, ",") != "Portal,Portal 2" {
		t.Fatalf("titles = %v", titles)
	}
	if items[0].JsonRPCAction.Method != plugin.MethodLaunchGame || items[0].JsonRPCAction.Parameters[0] != "400" {
		t.Fatalf("unexpected action %+v", items[0].JsonRPCAction)
	}

	cachePath, _ := config.CachePath()
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache not written: %v", err)
	}
}

func TestServeRPC_QueryUnconfiguredShowsHints(t *testing.T) {
	setupHome(t, nil)

	var out bytes.Buffer
	if err := serveRPC(context.Background(), &out, `{"method":"query","parameters":[""]}`); err != nil {
		t.Fatalf("serveRPC: %v", err)
	}
	items := decodeResponse(t, out.String())
	if len(items) != 2 {
		t.Fatalf("want 2 hint rows, got %d: %+v", len(items), items)
	}
	if items[0].JsonRPCAction.Method != plugin.MethodSaveSteamAppsDirectory ||
		items[1].JsonRPCAction.Method != plugin.MethodSaveSteamDirectory {
		t.Fatalf("unexpected hint order: %+v", items)
	}
}

func TestServeRPC_SaveActionNotifiesAndPersists(t *testing.T) {
	_, lib := setupHome(t, nil)

	var out bytes.Buffer
	req := fmt.Sprintf(`{"method":"saveSteamAppsDirectory","parameters":[%q]}`, lib+"//")
	if err := serveRPC(context.Background(), &out, req); err != nil {
		t.Fatalf("serveRPC: %v", err)
	}
	if !strings.Contains(out.String(), `"Wox.ShowMsg"`) || !strings.Contains(out.String(), "Steam apps directory path has been saved") {
		t.Fatalf("missing notification: %s", out.String())
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SteamAppsDir != config.NormalizePath(lib) {
		t.Fatalf("saved %q want %q", cfg.SteamAppsDir, config.NormalizePath(lib))
	}
}

func TestServeRPC_LaunchFailureIsNotified(t *testing.T) {
	setupHome(t, nil)

	var out bytes.Buffer
	if err := serveRPC(context.Background(), &out, `{"method":"launchGame","parameters":["220"]}`); err != nil {
		t.Fatalf("launch failures must not fail the process: %v", err)
	}
	if !strings.Contains(out.String(), "Steam launcher error") {
		t.Fatalf("missing error notification: %s", out.String())
	}
}

func TestServeRPC_BadRequests(t *testing.T) {
	setupHome(t, nil)

	for _, in := range []string{`nope`, `{"method":"formatDisk","parameters":[]}`, `{"method":"launchGame"}`} {
		var out bytes.Buffer
		if err := serveRPC(context.Background(), &out, in); err == nil {
			t.Fatalf("expected error for %s", in)
		}
		if out.Len() != 0 {
			t.Fatalf("nothing should reach stdout for %s, got %s", in, out.String())
		}
	}
}

func TestWriteQueryJSON_MatchesRPCResponse(t *testing.T) {
	_, lib := setupHome(t, map[string]string{"400": "Portal"})
	if err := config.Save(&config.Config{SteamAppsDir: lib}); err != nil {
		t.Fatal(err)
	}

	var viaRPC bytes.Buffer
	if err := serveRPC(context.Background(), &viaRPC, `{"method":"query","parameters":["por"]}`); err != nil {
		t.Fatalf("serveRPC: %v", err)
	}

	a, err := openApp(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var viaQuery bytes.Buffer
	if err := writeQuery(&viaQuery, a, "por", true); err != nil {
		t.Fatalf("writeQuery: %v", err)
	}
	if viaQuery.String() != viaRPC.String() {
		t.Fatalf("query --json differs from rpc:\n got: %s\nwant: %s", viaQuery.String(), viaRPC.String())
	}
	if !strings.HasPrefix(viaQuery.String(), `{"result":`) {
		t.Fatalf("missing result envelope: %s", viaQuery.String())
	}
}

func TestServeRPC_SaveBlankPathIsNotified(t *testing.T) {
	setupHome(t, nil)

	var out bytes.Buffer
	if err := serveRPC(context.Background(), &out, `{"method":"saveSteamAppsDirectory","parameters":[""]}`); err != nil {
		t.Fatalf("serveRPC: %v", err)
	}
	if !strings.Contains(out.String(), "Steam launcher error") {
		t.Fatalf("missing error notification: %s", out.String())
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SteamAppsDir != "" {
		t.Fatalf("blank path was saved as %q", cfg.SteamAppsDir)
	}
}
