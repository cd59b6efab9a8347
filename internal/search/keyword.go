package search

import (
	"strings"

	"github.com/kamusis/steamlaunch/internal/config"
	"github.com/kamusis/steamlaunch/internal/search/index"
	"golang.org/x/text/cases"
)

// ReloadKeyword is matched in reverse: any query that is a substring of it
// (including the empty query) offers a library reload.
const ReloadKeyword = "/STEAM"

// Search answers query against idx given the evaluated configuration.
//
// Games are only returned when both paths are valid, in index order, filtered
// by case-insensitive substring match on the title. Otherwise one diagnostic
// result is returned per failing condition, in the order: source unset,
// source invalid, launcher unset, launcher invalid. Games and diagnostics are
// never mixed.
func Search(query string, st config.State, idx index.Index) []Result {
	fold := cases.Fold()
	q := fold.String(query)
	out := []Result{}

	if st.AppsDirState == config.PathValid && strings.Contains(fold.String(ReloadKeyword), q) {
		out = append(out, ReloadAction{LibraryPath: st.SteamAppsDir})
	}

	if st.Ready() {
		for _, e := range idx {
			if strings.Contains(fold.String(e.Title), q) {
				out = append(out, LaunchableGame{ID: e.ID, Title: e.Title, IconPath: e.IconPath})
			}
		}
		return out
	}

	if st.AppsDirState == config.PathUnset {
		out = append(out, ConfigureSourcePath{Suggested: query})
	}
	if st.AppsDirState == config.PathInvalid {
		out = append(out, InvalidSourcePath{Suggested: query})
	}
	if st.SteamDirState == config.PathUnset {
		out = append(out, ConfigureLauncherPath{Suggested: query})
	}
	if st.SteamDirState == config.PathInvalid {
		out = append(out, InvalidLauncherPath{Suggested: query})
	}
	return out
}
