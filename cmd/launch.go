package cmd

import (
	"fmt"

	"github.com/kamusis/steamlaunch/internal/search/index"
	"github.com/spf13/cobra"
)

var launchCmd = &cobra.Command{
	Use:   "launch <app-id>",
	Short: "Start an installed game through the Steam client",
	Args:  cobra.ExactArgs(1),
	RunE:  runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	id := args[0]
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	name := id
	if e, ok := findEntry(a.Index(), id); ok {
		name = e.Title
	} else {
		printWarn(id, "not in the library index; asking Steam anyway")
	}

	if err := a.LaunchGame(id); err != nil {
		printErr(name, err.Error())
		return fmt.Errorf("launch failed")
	}
	printOK(name, "launched")
	return nil
}

func findEntry(idx index.Index, id string) (index.Entry, bool) {
	for _, e := range idx {
		if e.ID == id {
			return e, true
		}
	}
	return index.Entry{}, false
}
