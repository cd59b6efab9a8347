package cmd

import (
	"fmt"
	"time"

	"github.com/kamusis/steamlaunch/internal/config"
	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Rescan the Steam library and rewrite the cache",
	Long: `Rebuild the library index from every appmanifest_*.acf in the configured
steamapps directory, fetching icons that are not cached yet, and replace the
cache file.`,
	Args: cobra.NoArgs,
	RunE: runReload,
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, _ []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	st := a.State()
	if st.AppsDirState != config.PathValid {
		return fmt.Errorf("library path is %s: run 'steamlaunch config set-library <steamapps dir>' first", st.AppsDirState)
	}

	printSection("Reload")
	printInfo("", fmt.Sprintf("scanning %s", st.SteamAppsDir))
	start := time.Now()
	idx, err := a.Reload(cmd.Context(), st.SteamAppsDir)
	if err != nil {
		printErr("", err.Error())
		return fmt.Errorf("reload failed")
	}
	printOK("", fmt.Sprintf("%d game(s) indexed in %s", len(idx), time.Since(start).Round(time.Millisecond)))
	return nil
}
