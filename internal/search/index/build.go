package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kamusis/steamlaunch/internal/manifest"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent icon resolution during a build.
const DefaultWorkers = 8

// IconResolver turns an app id into an existing icon path. It must not fail.
type IconResolver interface {
	Resolve(ctx context.Context, id string) string
}

// BuildOptions controls index building.
type BuildOptions struct {
	Root    string
	Workers int
	Logger  *zap.Logger
}

// Build scans opts.Root for app manifests and resolves an icon for each.
//
// It returns a nil Index (and nil error) when Root is empty or not a directory,
// and an empty non-nil Index when Root holds no manifests. Manifests without a
// readable id are skipped; manifests without a name get a placeholder title.
// Duplicate ids keep the first occurrence.
func Build(ctx context.Context, icons IconResolver, opts BuildOptions) (Index, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Root == "" || !isDir(opts.Root) {
		return nil, nil
	}

	files, err := ListManifests(opts.Root)
	if err != nil {
		return nil, err
	}

	entries := make(Index, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		m, err := manifest.Parse(f)
		switch {
		case err == nil:
		case errors.Is(err, manifest.ErrMissingTitle):
			log.Debug("manifest has no name, using placeholder", zap.String("path", f))
			m.Name = PlaceholderTitle(m.AppID)
		default:
			log.Debug("skipping unreadable manifest", zap.String("path", f), zap.Error(err))
			continue
		}
		if prev, dup := seen[m.AppID]; dup {
			log.Warn("duplicate app id, keeping first manifest",
				zap.String("app_id", m.AppID), zap.String("kept", prev), zap.String("dropped", f))
			continue
		}
		seen[m.AppID] = f
		entries = append(entries, Entry{ID: m.AppID, Title: m.Name})
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entries {
		g.Go(func() error {
			entries[i].IconPath = icons.Resolve(gctx, entries[i].ID)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("library scan interrupted: %w", err)
	}

	log.Info("library scanned", zap.String("root", opts.Root), zap.Int("manifests", len(files)), zap.Int("entries", len(entries)))
	return entries, nil
}

// PlaceholderTitle is the title given to a manifest that carries no name.
func PlaceholderTitle(id string) string {
	return "App " + id
}

// ListManifests returns the manifest files directly under root, sorted by name.
func ListManifests(root string) ([]string, error) {
	des, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("cannot read library dir %s: %w", root, err)
	}
	var out []string
	for _, d := range des {
		if d.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(manifest.Glob, d.Name()); !ok {
			continue
		}
		out = append(out, filepath.Join(root, d.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ManifestCount is the cheap staleness check: the number of manifests under root,
// or -1 when root cannot be read.
func ManifestCount(root string) int {
	files, err := ListManifests(root)
	if err != nil {
		return -1
	}
	return len(files)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
