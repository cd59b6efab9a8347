package plugin

import (
	"fmt"

	"github.com/kamusis/steamlaunch/internal/search"
)

// Render turns search results into host items. launcherIcon decorates every
// non-game row.
func Render(results []search.Result, launcherIcon string) []Item {
	items := make([]Item, 0, len(results))
	for _, r := range results {
		items = append(items, renderOne(r, launcherIcon))
	}
	return items
}

func renderOne(r search.Result, launcherIcon string) Item {
	switch r := r.(type) {
	case search.LaunchableGame:
		return item(r.Title, r.ID, r.IconPath, LaunchGame{ID: r.ID}, false)
	case search.ReloadAction:
		return item("Reload steam library", "Press enter to reload the steam library to the plugin",
			launcherIcon, ReloadLibrary{Root: r.LibraryPath}, true)
	case search.ConfigureLauncherPath:
		return item("Can't find Steam Directory.", fmt.Sprintf("Please add Steam Path:'%s'", r.Suggested),
			launcherIcon, SaveSteamDir{Path: r.Suggested}, true)
	case search.ConfigureSourcePath:
		return item("Can't find Steamapps Directory.", fmt.Sprintf("Please add Steamapps Path:'%s'", r.Suggested),
			launcherIcon, SaveSteamAppsDir{Path: r.Suggested}, true)
	case search.InvalidLauncherPath:
		return item("Steam path is invalid.", fmt.Sprintf("Try add Steam Path again:'%s'", r.Suggested),
			launcherIcon, SaveSteamDir{Path: r.Suggested}, true)
	case search.InvalidSourcePath:
		return item("Steamapps path is invalid.", fmt.Sprintf("Try add Steamapps Path again:'%s'", r.Suggested),
			launcherIcon, SaveSteamAppsDir{Path: r.Suggested}, true)
	default:
		panic(fmt.Sprintf("plugin: unhandled result type %T", r))
	}
}

func item(title, subtitle, icon string, a Action, dontHide bool) Item {
	return Item{
		Title:    title,
		SubTitle: subtitle,
		IcoPath:  icon,
		JsonRPCAction: RPCAction{
			Method:              a.method(),
			Parameters:          a.params(),
			DontHideAfterAction: dontHide,
		},
	}
}
