package index

import "errors"

// ErrCacheLocked indicates another writer held the cache lock past the timeout.
var ErrCacheLocked = errors.New("cache is locked by another process")
