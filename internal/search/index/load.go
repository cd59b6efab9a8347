package index

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Cache persists a Record as a single JSON file.
type Cache struct {
	Path        string
	LockTimeout time.Duration
	Logger      *zap.Logger
}

// NewCache returns a Cache backed by path.
func NewCache(path string) *Cache {
	return &Cache{Path: path, LockTimeout: 5 * time.Second, Logger: zap.NewNop()}
}

// Load reads the cached record. It reports false when the file is absent,
// unparseable or written by an incompatible version; callers rebuild then.
func (c *Cache) Load() (*Record, bool) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger().Warn("cannot read cache, rebuilding", zap.String("path", c.Path), zap.Error(err))
		}
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		c.logger().Warn("corrupt cache, rebuilding", zap.String("path", c.Path), zap.Error(err))
		return nil, false
	}
	if rec.Version != RecordVersion {
		c.logger().Info("cache version changed, rebuilding", zap.Int("got", rec.Version), zap.Int("want", RecordVersion))
		return nil, false
	}
	if rec.Entries == nil {
		rec.Entries = Index{}
	}
	return &rec, true
}

// StaleFor reports whether the record no longer describes the library at root:
// it was built for another root, or the number of manifests has changed.
func (r *Record) StaleFor(root string) bool {
	if samePath(r.LibraryRoot, root) {
		return ManifestCount(root) != r.ManifestCount
	}
	return true
}

func samePath(a, b string) bool {
	clean := func(p string) string { return filepath.Clean(filepath.FromSlash(p)) }
	return clean(a) == clean(b)
}

func (c *Cache) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
