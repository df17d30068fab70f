package engine

import (
	"errors"
	"fmt"
)

// ErrStorage is the sentinel every error Authorize can return wraps: a
// genuine backend failure, never a denial (a denial is a zero AccessMask
// with a nil error). Callers use IsStorageErr to tell the two apart
// without inspecting the driver-specific error underneath.
var ErrStorage = errors.New("engine: storage error")

// IsStorageErr returns true if err is or wraps ErrStorage.
func IsStorageErr(err error) bool {
	return errors.Is(err, ErrStorage)
}

// wrapStorageErr annotates an error surfaced by a Storage implementation
// with the operation and key that triggered it, so callers can tell a
// genuine backend failure apart from the engine's own decision logic
// via IsStorageErr - every error it can return originates from Storage.
func wrapStorageErr(op, key string, err error) error {
	return fmt.Errorf("engine: %s %q: %w: %w", op, key, ErrStorage, err)
}
