package cacheinfra

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-cache-codec/cache"
	"github.com/viccon/sturdyc"
)

// LocalConfig holds the configuration for the in-process sturdyc backend.
type LocalConfig struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the upper bound for every entry. Per-entry TTLs longer than this
	// are cut to it. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultLocalConfig returns a LocalConfig with sensible defaults for most use cases.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		Capacity:           10000,
		NumShards:          256,
		TTL:                cache.DefaultTTL,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the LocalConfig to sturdyc options.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included.
func (c LocalConfig) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c LocalConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	)
}

// localEntry carries its own deadline so that entries can expire before the
// client-wide TTL.
type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// LocalBackend stores encoded entries in a sturdyc client.
type LocalBackend struct {
	client *sturdyc.Client[localEntry]
	ttl    time.Duration
	now    func() time.Time
}

var _ cache.Backend = (*LocalBackend)(nil)

// NewLocalBackend validates cfg and initializes a sturdyc client with it.
func NewLocalBackend(cfg LocalConfig) (*LocalBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[localEntry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &LocalBackend{client: client, ttl: cfg.TTL, now: time.Now}, nil
}

// Get returns the entry under key unless it is missing or past its deadline.
func (b *LocalBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := b.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !b.now().Before(entry.expiresAt) {
		b.client.Delete(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Put stores value under key for ttl, bounded by the client TTL.
func (b *LocalBackend) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > b.ttl {
		ttl = b.ttl
	}
	b.client.Set(key, localEntry{
		value:     append([]byte(nil), value...),
		expiresAt: b.now().Add(ttl),
	})
	return nil
}

// Evict removes a single entry.
func (b *LocalBackend) Evict(_ context.Context, key string) error {
	b.client.Delete(key)
	return nil
}

// Clear removes all entries that have keys starting with the given prefix.
func (b *LocalBackend) Clear(_ context.Context, prefix string) error {
	for _, key := range b.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			b.client.Delete(key)
		}
	}
	return nil
}

