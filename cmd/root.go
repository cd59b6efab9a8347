package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kamusis/steamlaunch/internal/app"
	"github.com/kamusis/steamlaunch/internal/config"
	"github.com/kamusis/steamlaunch/internal/icon"
	"github.com/kamusis/steamlaunch/internal/logging"
	"github.com/kamusis/steamlaunch/internal/search/index"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagHome    string
	flagVerbose bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:          "steamlaunch",
	Short:        "steamlaunch: find and launch installed Steam games",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `steamlaunch indexes the games in a Steam library folder and launches them.

It runs as a plugin for Wox-style launchers ('steamlaunch rpc <json>') and as a
plain command-line tool over the same library.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		config.SetHome(flagHome)
		logger = newLogger()
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Directory holding config, cache, icons and logs (default: $"+config.HomeEnv+" or the executable's directory)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")
}

// Execute is called by main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// newLogger opens <home>/steamlaunch.log. Logging is never a reason to fail a
// command, so any problem falls back to a no-op logger.
func newLogger() *zap.Logger {
	level := "info"
	if s, _ := config.LoadSettings(); s.LogLevel != "" {
		level = s.LogLevel
	}
	if flagVerbose {
		level = "debug"
	}
	path, err := config.LogPath()
	if err != nil {
		return zap.NewNop()
	}
	l, err := logging.New(level, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "steamlaunch: logging disabled: %v\n", err)
		return zap.NewNop()
	}
	return l
}

// loadSettings returns the .env and environment overrides. Unusable values
// are logged and left at their defaults.
func loadSettings() config.Settings {
	s, err := config.LoadSettings()
	if err != nil {
		logger.Warn("ignoring invalid settings", zap.Error(err))
	}
	return s
}

// newResolver builds the icon resolver for <home>/icon, applying overrides.
func newResolver(s config.Settings) (*icon.Resolver, error) {
	dir, err := config.IconDir()
	if err != nil {
		return nil, err
	}
	r := icon.New(dir)
	r.Logger = logger
	if s.IconBaseURL != "" {
		r.BaseURL = s.IconBaseURL
	}
	if s.UserAgent != "" {
		r.UserAgent = s.UserAgent
	}
	return r, nil
}

// newApp wires an App from the files under home without loading the index.
func newApp(notifier app.Notifier) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	settings := loadSettings()
	resolver, err := newResolver(settings)
	if err != nil {
		return nil, err
	}
	cachePath, err := config.CachePath()
	if err != nil {
		return nil, err
	}
	cache := index.NewCache(cachePath)
	cache.Logger = logger

	return app.New(app.Options{
		Config:   cfg,
		Cache:    cache,
		Icons:    resolver,
		Workers:  settings.Workers,
		Logger:   logger,
		Notifier: notifier,
	}), nil
}

// openApp is newApp plus the cached or freshly built index, ready for queries.
func openApp(ctx context.Context, notifier app.Notifier) (*app.App, error) {
	a, err := newApp(notifier)
	if err != nil {
		return nil, err
	}
	if err := a.Open(ctx); err != nil {
		return nil, fmt.Errorf("cannot load library index: %w", err)
	}
	return a, nil
}
