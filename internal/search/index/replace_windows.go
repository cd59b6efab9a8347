//go:build windows

package index

import (
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// replaceFile moves src over dst.
//
// On Windows the launcher host or an indexer can hold a short-lived handle on
// dst; we retry for a short period and finish with a write-through MoveFileEx.
func replaceFile(src, dst string) error {
	var lastErr error
	for i := 0; i < 10; i++ {
		if err := os.Rename(src, dst); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(100 * time.Millisecond)
	}

	from, err := windows.UTF16PtrFromString(src)
	if err != nil {
		return lastErr
	}
	to, err := windows.UTF16PtrFromString(dst)
	if err != nil {
		return lastErr
	}
	if err := windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH); err != nil {
		return lastErr
	}
	return nil
}
