package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResultType is returned when a cached or fetched value cannot be
	// asserted to the type requested by GetOrFetch.
	ErrInvalidResultType = errors.New("cache: invalid result type")
	// ErrUncacheableKey is returned when a key encodes to blank text.
	ErrUncacheableKey = errors.New("cache: key encodes to blank text")
)

// Backend operations reported in CacheBackendError.Op.
const (
	OpGet   = "get"
	OpPut   = "put"
	OpEvict = "evict"
	OpClear = "clear"
)

// CacheBackendError wraps a failure of the underlying store. It is handed to
// the ErrorHandler and never returned to callers of Cache.
type CacheBackendError struct {
	Op    string
	Cache string
	Key   string
	Err   error
}

func (e *CacheBackendError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s: %s failed: %v", e.Cache, e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s: %s %q failed: %v", e.Cache, e.Op, e.Key, e.Err)
}

func (e *CacheBackendError) Unwrap() error { return e.Err }
