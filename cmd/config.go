package cmd

import (
	"fmt"

	"github.com/kamusis/steamlaunch/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the Steam paths",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configured paths and where steamlaunch keeps its files",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetLibraryCmd = &cobra.Command{
	Use:   "set-library <steamapps-dir>",
	Short: "Set the steamapps directory holding appmanifest_*.acf files",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetLibrary,
}

var configSetLauncherCmd = &cobra.Command{
	Use:   "set-launcher <steam-dir>",
	Short: "Set the Steam client directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetLauncher,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetLibraryCmd, configSetLauncherCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	st := config.Evaluate(cfg)

	printSection("Paths")
	printPathState("steam_dir", st.SteamDir, st.SteamDirState)
	printPathState("steamapps_dir", st.SteamAppsDir, st.AppsDirState)

	printSection("Files")
	for _, f := range []struct {
		name string
		path func() (string, error)
	}{
		{"home", config.HomeDir},
		{"config", config.ConfigPath},
		{"cache", config.CachePath},
		{"icons", config.IconDir},
		{"log", config.LogPath},
	} {
		p, err := f.path()
		if err != nil {
			printErr(f.name, err.Error())
			continue
		}
		printInfo(f.name, p)
	}
	return nil
}

func printPathState(name, path string, s config.PathState) {
	switch s {
	case config.PathUnset:
		printMiss(name, "not set")
	case config.PathInvalid:
		printWarn(name, fmt.Sprintf("%s (invalid)", path))
	default:
		printOK(name, path)
	}
}

func runConfigSetLibrary(_ *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	p, err := a.SaveSteamAppsDir(args[0])
	if err != nil {
		return fmt.Errorf("cannot save config: %w", err)
	}
	printPathState("steamapps_dir", p, a.State().AppsDirState)
	if a.State().AppsDirState == config.PathValid {
		printInfo("", "run 'steamlaunch reload' to index it")
	}
	return nil
}

func runConfigSetLauncher(_ *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	p, err := a.SaveSteamDir(args[0])
	if err != nil {
		return fmt.Errorf("cannot save config: %w", err)
	}
	printPathState("steam_dir", p, a.State().SteamDirState)
	return nil
}
