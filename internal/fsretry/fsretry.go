// Package fsretry wraps filesystem mutations with a bounded retry loop.
//
// The host application can keep file handles open inside its plugin
// directory for a short window after being asked to stop. Mutations
// tolerate those transient "file in use" failures by retrying on a fixed
// interval; lock windows come from process teardown and are short, so
// there is no backoff growth and no jitter.
package fsretry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zjrosen/plugman/internal/log"
)

const (
	maxAttempts = 10
	retryDelay  = 50 * time.Millisecond
)

// ErrLocked indicates the retry budget was exhausted without success.
var ErrLocked = errors.New("file locked")

// Do runs op up to maxAttempts times with a fixed delay between attempts.
// The returned error wraps both ErrLocked and the last underlying error.
func Do(op func() error) error {
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		last = err
		log.Debug(log.CatFS, "operation failed, retrying", "attempt", attempt, "error", err)
		if attempt < maxAttempts {
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrLocked, maxAttempts, last)
}

// doValue is Do for operations that return a value.
func doValue[T any](op func() (T, error)) (T, error) {
	var result T
	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	return result, err
}

// Copy is a retrying wrapper around io.Copy.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	return doValue(func() (int64, error) {
		return io.Copy(dst, src)
	})
}

// RemoveAll is a retrying wrapper around os.RemoveAll.
func RemoveAll(path string) error {
	return Do(func() error {
		return os.RemoveAll(path)
	})
}

// Rename is a retrying wrapper around os.Rename.
func Rename(oldpath, newpath string) error {
	return Do(func() error {
		return os.Rename(oldpath, newpath)
	})
}
