package search

// Result is one entry of a query answer. The set of implementations is closed.
type Result interface {
	isResult()
}

// LaunchableGame is an installed game matching the query.
type LaunchableGame struct {
	ID       string
	Title    string
	IconPath string
}

// ReloadAction offers a full rebuild of the library index.
type ReloadAction struct {
	LibraryPath string
}

// ConfigureSourcePath asks the user to set the library (steamapps) path.
type ConfigureSourcePath struct {
	Suggested string
}

// ConfigureLauncherPath asks the user to set the Steam client path.
type ConfigureLauncherPath struct {
	Suggested string
}

// InvalidSourcePath reports a library path that does not exist.
type InvalidSourcePath struct {
	Suggested string
}

// InvalidLauncherPath reports a Steam client path without a client executable.
type InvalidLauncherPath struct {
	Suggested string
}

func (LaunchableGame) isResult()        {}
func (ReloadAction) isResult()          {}
func (ConfigureSourcePath) isResult()   {}
func (ConfigureLauncherPath) isResult() {}
func (InvalidSourcePath) isResult()     {}
func (InvalidLauncherPath) isResult()   {}
