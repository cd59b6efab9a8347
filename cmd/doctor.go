package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamusis/steamlaunch/internal/config"
	"github.com/kamusis/steamlaunch/internal/icon"
	"github.com/kamusis/steamlaunch/internal/manifest"
	"github.com/kamusis/steamlaunch/internal/search/index"
	"github.com/spf13/cobra"
)

// stateFullyInstalled is the StateFlags value Steam writes once an app is
// downloaded and up to date.
const stateFullyInstalled = "4"

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, library manifests, cache and icons",
	Long: `Check that steamlaunch is configured and that its library, cache and icon
files are healthy. Run this command when games are missing from the launcher.`,
	RunE: runDoctor,
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the steamlaunch home directory.

Currently fixes:
  - Leftover *.tmp files from interrupted cache or icon writes
  - Missing bundled icons (missing.png, launcher.png)

Run 'steamlaunch doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

// libraryReport summarizes the manifests under a library root.
type libraryReport struct {
	Manifests    int
	MissingTitle []string // app ids indexed under a placeholder title
	Malformed    []string // file names without an app id
	Unreadable   []string
	NotInstalled []string // "<id> (<name>)" whose StateFlags say an update or download is pending
	MissingDir   []string // "<id> (<name>)" whose common/<installdir> is absent
}

func inspectLibrary(root string) (libraryReport, error) {
	var rep libraryReport
	paths, err := index.ListManifests(root)
	if err != nil {
		return rep, err
	}
	rep.Manifests = len(paths)
	for _, p := range paths {
		m, err := manifest.Parse(p)
		switch {
		case errors.Is(err, manifest.ErrMalformedFilename):
			rep.Malformed = append(rep.Malformed, filepath.Base(p))
			continue
		case errors.Is(err, manifest.ErrMissingTitle):
			rep.MissingTitle = append(rep.MissingTitle, m.AppID)
		case err != nil:
			rep.Unreadable = append(rep.Unreadable, filepath.Base(p))
			continue
		}
		label := m.AppID
		if m.Name != "" {
			label = fmt.Sprintf("%s (%s)", m.AppID, m.Name)
		}
		if m.StateFlags != "" && m.StateFlags != stateFullyInstalled {
			rep.NotInstalled = append(rep.NotInstalled, label)
		}
		if m.InstallDir != "" {
			if _, err := os.Stat(filepath.Join(root, "common", m.InstallDir)); errors.Is(err, os.ErrNotExist) {
				rep.MissingDir = append(rep.MissingDir, label)
			}
		}
	}
	return rep, nil
}

// findTempFiles returns leftovers of interrupted atomic writes in dir.
func findTempFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tmp") {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	return found
}

func homeTempFiles() []string {
	var found []string
	if home, err := config.HomeDir(); err == nil {
		found = append(found, findTempFiles(home)...)
	}
	if dir, err := config.IconDir(); err == nil {
		found = append(found, findTempFiles(dir)...)
	}
	return found
}

func runDoctorFix(_ *cobra.Command, _ []string) error {
	printSection("steamlaunch doctor fix")

	// ── Fix: delete leftover temp files ──────────────────────────────────────
	fmt.Println("\n[ Temp files ]")
	var failed int
	tmps := homeTempFiles()
	if len(tmps) == 0 {
		printOK("", "no leftover temp files")
	}
	for _, p := range tmps {
		if err := os.Remove(p); err != nil {
			printErr("", fmt.Sprintf("cannot delete %s: %v", p, err))
			failed++
		} else {
			printOK("", fmt.Sprintf("deleted %s", p))
		}
	}

	// ── Fix: restore bundled icons ───────────────────────────────────────────
	fmt.Println("\n[ Bundled icons ]")
	r, err := newResolver(loadSettings())
	if err != nil {
		return err
	}
	if err := r.EnsureAssets(); err != nil {
		printErr("", err.Error())
		failed++
	} else {
		printOK("", fmt.Sprintf("%s and %s present in %s", icon.MissingIcon, icon.LauncherIcon, r.Dir))
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d issue(s) could not be fixed", failed)
	}
	return nil
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("steamlaunch doctor")
	fmt.Println()

	// ── Check 1: home directory and config.yaml ──────────────────────────────
	fmt.Println("[ config.yaml ]")
	cfg, loadErr := config.Load()
	if loadErr != nil {
		failD("cannot parse config: %v", loadErr)
	} else {
		p, _ := config.ConfigPath()
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			printMiss("", fmt.Sprintf("%s not found; defaults in use", p))
		} else {
			printOK("", p)
		}
	}
	fmt.Println()

	var st config.State
	if loadErr == nil {
		st = config.Evaluate(cfg)
	}

	// ── Check 2: Steam client ────────────────────────────────────────────────
	fmt.Println("[ Steam client ]")
	switch {
	case loadErr != nil:
		printWarn("", "skipped (config not loaded)")
	case st.SteamDirState == config.PathUnset:
		failD("steam_dir not set (run 'steamlaunch config set-launcher <steam dir>')")
	case st.SteamDirState == config.PathInvalid:
		failD("no %s in %s", strings.Join(config.SteamExecutableNames(), " or "), st.SteamDir)
	default:
		exe, _ := config.FindSteamExecutable(st.SteamDir)
		printOK("", exe)
	}
	fmt.Println()

	// ── Check 3: library manifests ───────────────────────────────────────────
	fmt.Println("[ Library ]")
	switch {
	case loadErr != nil:
		printWarn("", "skipped (config not loaded)")
	case st.AppsDirState == config.PathUnset:
		failD("steamapps_dir not set (run 'steamlaunch config set-library <steamapps dir>')")
	case st.AppsDirState == config.PathInvalid:
		failD("%s is not a directory", st.SteamAppsDir)
	default:
		rep, err := inspectLibrary(st.SteamAppsDir)
		if err != nil {
			failD("cannot list manifests: %v", err)
			break
		}
		printOK("", fmt.Sprintf("%d manifest(s) in %s", rep.Manifests, st.SteamAppsDir))
		for _, id := range rep.MissingTitle {
			printWarn(id, fmt.Sprintf("no title; listed as %q", index.PlaceholderTitle(id)))
		}
		for _, f := range rep.Malformed {
			printSkip(f, "no app id in file name; ignored")
		}
		for _, f := range rep.Unreadable {
			failD("[%s] cannot read manifest", f)
		}
		for _, g := range rep.NotInstalled {
			printInfo(g, "download or update pending")
		}
		for _, g := range rep.MissingDir {
			printWarn(g, "install folder missing under common/")
		}
	}
	fmt.Println()

	// ── Check 4: cache ───────────────────────────────────────────────────────
	fmt.Println("[ Cache ]")
	cachePath, err := config.CachePath()
	if err != nil {
		failD("cannot determine cache path: %v", err)
	} else {
		c := index.NewCache(cachePath)
		c.Logger = logger
		rec, ok := c.Load()
		switch {
		case !ok:
			printMiss("", fmt.Sprintf("%s absent or unreadable; it is rebuilt on next use", cachePath))
		case st.AppsDirState == config.PathValid && rec.StaleFor(st.SteamAppsDir):
			printWarn("", fmt.Sprintf("stale (%d entries for %s); run 'steamlaunch reload'", len(rec.Entries), rec.LibraryRoot))
		default:
			printOK("", fmt.Sprintf("%d entries, built %s", len(rec.Entries), rec.CreatedAt))
		}
		if tmps := findTempFiles(filepath.Dir(cachePath)); len(tmps) > 0 {
			printWarn("", fmt.Sprintf("%d leftover temp file(s); run 'steamlaunch doctor fix'", len(tmps)))
		}
	}
	fmt.Println()

	// ── Check 5: icons ───────────────────────────────────────────────────────
	fmt.Println("[ Icons ]")
	settings, err := config.LoadSettings()
	if err != nil {
		printWarn("", fmt.Sprintf("%v; using defaults", err))
	}
	if r, err := newResolver(settings); err != nil {
		failD("cannot determine icon dir: %v", err)
	} else {
		for _, p := range []string{r.FallbackPath(), r.LauncherIconPath()} {
			if _, err := os.Stat(p); err != nil {
				failD("%s missing; run 'steamlaunch doctor fix'", p)
			} else {
				printOK("", p)
			}
		}
		printInfo("", fmt.Sprintf("icons fetched from %s", r.BaseURL))
	}
	fmt.Println()

	// ── Summary ──────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. steamlaunch is ready to use.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}
