package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kamusis/steamlaunch/internal/app"
	"github.com/kamusis/steamlaunch/internal/plugin"
	"github.com/kamusis/steamlaunch/internal/search"
	"github.com/spf13/cobra"
)

var flagQueryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [text...]",
	Short: "List installed games whose title contains text",
	Long: `Match text against the titles in the library index, case-insensitively.
With no text every game is listed. When the Steam paths are not configured the
same hints the launcher host would show are printed instead.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&flagQueryJSON, "json", false, "Print the rpc query response JSON instead of a table")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	return writeQuery(os.Stdout, a, text, flagQueryJSON)
}

// writeQuery prints the answer to text, either as the exact response the rpc
// command would send or as a table.
func writeQuery(out io.Writer, a *app.App, text string, asJSON bool) error {
	if asJSON {
		return plugin.WriteResponse(out, a.Items(text))
	}
	printResults(out, a.State().Ready(), a.Query(text))
	return nil
}

// printResults writes games as a numbered table followed by any hints.
func printResults(out io.Writer, ready bool, results []search.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	n := 0
	var hints []string
	for _, r := range results {
		switch r := r.(type) {
		case search.LaunchableGame:
			n++
			fmt.Fprintf(w, "  %d.\t%s\t%s\n", n, r.ID, r.Title)
		case search.ReloadAction:
			hints = append(hints, fmt.Sprintf("  ~  run 'steamlaunch reload' to rescan %s", r.LibraryPath))
		case search.ConfigureSourcePath:
			hints = append(hints, "  ⚠  library path not set (run 'steamlaunch config set-library <steamapps dir>')")
		case search.InvalidSourcePath:
			hints = append(hints, fmt.Sprintf("  ⚠  library path %q is not a directory (run 'steamlaunch config set-library <steamapps dir>')", r.Suggested))
		case search.ConfigureLauncherPath:
			hints = append(hints, "  ⚠  Steam path not set (run 'steamlaunch config set-launcher <steam dir>')")
		case search.InvalidLauncherPath:
			hints = append(hints, fmt.Sprintf("  ⚠  Steam path %q has no Steam executable (run 'steamlaunch config set-launcher <steam dir>')", r.Suggested))
		}
	}
	_ = w.Flush()

	if n == 0 && ready {
		fmt.Fprintln(out, "  -  no matching games")
	}
	for _, h := range hints {
		fmt.Fprintln(out, h)
	}
}
