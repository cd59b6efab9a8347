// Package app holds steamlaunch's runtime state and routes host queries and
// actions to the indexer, query engine, config store and launcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kamusis/steamlaunch/internal/config"
	"github.com/kamusis/steamlaunch/internal/icon"
	"github.com/kamusis/steamlaunch/internal/launcher"
	"github.com/kamusis/steamlaunch/internal/plugin"
	"github.com/kamusis/steamlaunch/internal/search"
	"github.com/kamusis/steamlaunch/internal/search/index"
	"go.uber.org/zap"
)

// Notifier shows a short confirmation to the user.
type Notifier interface {
	Notify(title, subtitle string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, subtitle string)

// Notify calls f.
func (f NotifierFunc) Notify(title, subtitle string) { f(title, subtitle) }

// Options wires an App. Zero-valued hooks fall back to the real implementations.
type Options struct {
	Config   *config.Config
	Cache    *index.Cache
	Icons    *icon.Resolver
	Workers  int
	Logger   *zap.Logger
	Notifier Notifier

	// Launch starts a game; defaults to launcher.Launch.
	Launch func(steamDir, id string) error
	// SaveConfig persists the config; defaults to config.Save.
	SaveConfig func(*config.Config) error
}

// App is the state shared by every query and action for the life of the process.
type App struct {
	mu    sync.RWMutex // guards cfg, state, idx
	cfg   config.Config
	state config.State
	idx   index.Index

	reloadMu sync.Mutex // one rebuild at a time

	cache      *index.Cache
	icons      *icon.Resolver
	workers    int
	logger     *zap.Logger
	notifier   Notifier
	launch     func(steamDir, id string) error
	saveConfig func(*config.Config) error
}

// New builds an App from opts. Call Open before serving queries.
func New(opts Options) *App {
	a := &App{
		cache:      opts.Cache,
		icons:      opts.Icons,
		workers:    opts.Workers,
		logger:     opts.Logger,
		notifier:   opts.Notifier,
		launch:     opts.Launch,
		saveConfig: opts.SaveConfig,
	}
	if opts.Config != nil {
		a.cfg = *opts.Config
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.notifier == nil {
		a.notifier = NotifierFunc(func(string, string) {})
	}
	if a.launch == nil {
		a.launch = launcher.Launch
	}
	if a.saveConfig == nil {
		a.saveConfig = config.Save
	}
	a.state = config.Evaluate(&a.cfg)
	return a
}

// Open makes the index available: the cached record when it still matches the
// library, otherwise a fresh scan that is then written to the cache. Actions
// other than queries do not need it.
func (a *App) Open(ctx context.Context) error {
	if err := a.icons.EnsureAssets(); err != nil {
		return err
	}

	a.mu.RLock()
	st := a.state
	a.mu.RUnlock()

	if st.AppsDirState != config.PathValid {
		a.logger.Info("library path not usable, index left empty",
			zap.String("steamapps_dir", st.SteamAppsDir), zap.Stringer("state", st.AppsDirState))
		return nil
	}

	if rec, ok := a.cache.Load(); ok {
		if !rec.StaleFor(st.SteamAppsDir) {
			a.swap(a.verifyIcons(rec))
			return nil
		}
		a.logger.Info("cache is stale, rebuilding", zap.String("cached_root", rec.LibraryRoot), zap.Int("cached_count", rec.ManifestCount))
	}
	_, err := a.rebuild(ctx, st.SteamAppsDir)
	return err
}

// State returns the evaluated configuration.
func (a *App) State() config.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Index returns the active index. The slice must not be modified.
func (a *App) Index() index.Index {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.idx
}

// Query answers text against the active index.
func (a *App) Query(text string) []search.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return search.Search(text, a.state, a.idx)
}

// Items answers text as host result rows.
func (a *App) Items(text string) []plugin.Item {
	return plugin.Render(a.Query(text), a.LauncherIcon())
}

// LauncherIcon is the icon shown on non-game rows and notifications.
func (a *App) LauncherIcon() string {
	return a.icons.LauncherIconPath()
}

// Invoke performs a host action.
func (a *App) Invoke(ctx context.Context, action plugin.Action) error {
	switch act := action.(type) {
	case plugin.ReloadLibrary:
		_, err := a.Reload(ctx, act.Root)
		return err
	case plugin.LaunchGame:
		return a.LaunchGame(act.ID)
	case plugin.SaveSteamDir:
		_, err := a.SaveSteamDir(act.Path)
		return err
	case plugin.SaveSteamAppsDir:
		_, err := a.SaveSteamAppsDir(act.Path)
		return err
	default:
		return fmt.Errorf("%w: %T", plugin.ErrUnknownMethod, action)
	}
}

var (
	// ErrNotDirectory is returned by Reload when root is not a directory.
	ErrNotDirectory = errors.New("library path is not a directory")
	// ErrEmptyPath is returned when a blank path is saved.
	ErrEmptyPath = errors.New("path is empty")
)

// Reload rebuilds the whole index from root, stores it and swaps it in.
// Queries running concurrently keep seeing the previous index until the swap.
func (a *App) Reload(ctx context.Context, root string) (index.Index, error) {
	idx, err := a.rebuild(ctx, root)
	if err != nil {
		return nil, err
	}
	a.notifier.Notify("Steam library has been updated", root)
	return idx, nil
}

func (a *App) rebuild(ctx context.Context, root string) (index.Index, error) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	if err := a.icons.EnsureAssets(); err != nil {
		return nil, err
	}
	a.icons.ResetMisses()
	idx, err := index.Build(ctx, a.icons, index.BuildOptions{Root: root, Workers: a.workers, Logger: a.logger})
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	if err := a.cache.Store(index.NewRecord(root, idx, index.ManifestCount(root))); err != nil {
		a.logger.Warn("cannot write cache, keeping index in memory only", zap.Error(err))
	}
	a.swap(idx)
	return idx, nil
}

// verifyIcons repoints entries whose icon file has gone (home moved, icon dir
// cleared) and rewrites the cache when anything changed.
func (a *App) verifyIcons(rec *index.Record) index.Index {
	idx := make(index.Index, len(rec.Entries))
	fixed := 0
	for i, e := range rec.Entries {
		if p := a.icons.Verify(e.ID, e.IconPath); p != e.IconPath {
			e.IconPath = p
			fixed++
		}
		idx[i] = e
	}
	if fixed == 0 {
		return idx
	}
	a.logger.Info("repointed missing icons from cache", zap.Int("entries", fixed))
	if err := a.cache.Store(index.NewRecord(rec.LibraryRoot, idx, rec.ManifestCount)); err != nil {
		a.logger.Warn("cannot rewrite cache", zap.Error(err))
	}
	return idx
}

func (a *App) swap(idx index.Index) {
	a.mu.Lock()
	a.idx = idx
	a.mu.Unlock()
}

// LaunchGame starts id through the configured Steam client.
func (a *App) LaunchGame(id string) error {
	st := a.State()
	if st.SteamDirState != config.PathValid {
		return fmt.Errorf("cannot launch %s: steam path is %s", id, st.SteamDirState)
	}
	a.logger.Info("launching game", zap.String("app_id", id))
	if err := a.launch(st.SteamDir, id); err != nil {
		a.logger.Error("launch failed", zap.String("app_id", id), zap.Error(err))
		return err
	}
	return nil
}

// SaveSteamDir normalizes and persists the Steam client directory.
func (a *App) SaveSteamDir(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("cannot save steam directory: %w", ErrEmptyPath)
	}
	p := config.NormalizePath(path)
	if err := a.updateConfig(func(c *config.Config) { c.SteamDir = p }); err != nil {
		return "", err
	}
	a.notifier.Notify("Steam directory path has been saved", p)
	return p, nil
}

// SaveSteamAppsDir normalizes and persists the library directory.
func (a *App) SaveSteamAppsDir(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("cannot save steam apps directory: %w", ErrEmptyPath)
	}
	p := config.NormalizePath(path)
	if err := a.updateConfig(func(c *config.Config) { c.SteamAppsDir = p }); err != nil {
		return "", err
	}
	a.notifier.Notify("Steam apps directory path has been saved", p)
	return p, nil
}

func (a *App) updateConfig(mutate func(*config.Config)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.cfg
	mutate(&next)
	if err := a.saveConfig(&next); err != nil {
		return err
	}
	a.cfg = next
	a.state = config.Evaluate(&a.cfg)
	return nil
}
