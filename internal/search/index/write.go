package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// NewRecord wraps idx for storage.
func NewRecord(root string, idx Index, manifestCount int) Record {
	if idx == nil {
		idx = Index{}
	}
	return Record{
		Version:       RecordVersion,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		LibraryRoot:   root,
		ManifestCount: manifestCount,
		Entries:       idx,
	}
}

// Store atomically replaces the cache file with rec.
//
// The record is written to a temp file in the same directory and renamed into
// place, so a reader sees either the old or the new file. Writers in other
// processes are serialised through <path>.lock.
func (c *Cache) Store(rec Record) error {
	if rec.Entries == nil {
		rec.Entries = Index{}
	}
	if rec.Version == 0 {
		rec.Version = RecordVersion
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache dir %s: %w", dir, err)
	}

	unlock, err := c.lock()
	if err != nil {
		return err
	}
	defer unlock()

	b, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("cannot marshal cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot write cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot sync cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := replaceFile(tmpName, c.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot install cache %s: %w", c.Path, err)
	}

	c.logger().Debug("cache written", zap.String("path", c.Path), zap.Int("entries", len(rec.Entries)))
	return nil
}

func (c *Cache) lock() (func(), error) {
	lockPath := c.Path + ".lock"
	l := flock.New(lockPath)
	timeout := c.LockTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire cache lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("%w (lock: %s)", ErrCacheLocked, lockPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
