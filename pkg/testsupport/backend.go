package testsupport

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is an in-memory byte store for tests. It honours TTLs against
// Now, and fails every operation with Err when Err is set.
type MemoryBackend struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Err, when non-nil, is returned by every operation.
	Err error

	mu      sync.Mutex
	entries map[string]memoryEntry
	calls   map[string]int
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		Now:     time.Now,
		entries: make(map[string]memoryEntry),
		calls:   make(map[string]int),
	}
}

// NewFailingBackend returns a backend that fails every operation with err.
func NewFailingBackend(err error) *MemoryBackend {
	b := NewMemoryBackend()
	b.Err = err
	return b
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["get"]++
	if b.Err != nil {
		return nil, false, b.Err
	}
	e, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !b.Now().Before(e.expiresAt) {
		delete(b.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (b *MemoryBackend) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["put"]++
	if b.Err != nil {
		return b.Err
	}
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = b.Now().Add(ttl)
	}
	b.entries[key] = e
	return nil
}

func (b *MemoryBackend) Evict(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["evict"]++
	if b.Err != nil {
		return b.Err
	}
	delete(b.entries, key)
	return nil
}

func (b *MemoryBackend) Clear(_ context.Context, prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["clear"]++
	if b.Err != nil {
		return b.Err
	}
	for k := range b.entries {
		if strings.HasPrefix(k, prefix) {
			delete(b.entries, k)
		}
	}
	return nil
}

// Raw returns the stored bytes under key, ignoring expiry.
func (b *MemoryBackend) Raw(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	return e.value, ok
}

// Set stores raw bytes under key without a TTL.
func (b *MemoryBackend) Set(key string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = memoryEntry{value: value}
}

// Keys lists stored keys in order.
func (b *MemoryBackend) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many times op ("get", "put", "evict", "clear") was invoked.
func (b *MemoryBackend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// FakeClock is a manually advanced clock for MemoryBackend.Now.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock stopped at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
