package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-cache-codec/codec"
	"golang.org/x/sync/singleflight"
)

// Backend is a byte-oriented key-value store. Implementations report
// transport failures as errors; Cache routes them to its ErrorHandler.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Evict(ctx context.Context, key string) error
	// Clear removes every entry whose key starts with prefix.
	Clear(ctx context.Context, prefix string) error
}

// Cache is a named region over a Backend. Values go through a typed codec;
// backend failures degrade to misses and no-ops while codec failures are
// returned to the caller.
type Cache struct {
	cfg     Config
	backend Backend
	codec   *codec.Codec
	errors  ErrorHandler
	logger  Logger
	group   singleflight.Group

	nullBytes []byte
}

var _ CacheService = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithErrorHandler replaces the default LoggingErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Cache) {
		if h != nil {
			c.errors = h
		}
	}
}

// WithLogger sets the logger used for debug output and by the default error handler.
func WithLogger(l Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a region. A nil codec uses a typed codec with default settings.
func New(cfg Config, backend Backend, c *codec.Codec, opts ...Option) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cache: invalid config: %w", err)
	}
	if backend == nil {
		return nil, errors.New("cache: backend is required")
	}
	if c == nil {
		var err error
		if c, err = codec.New(codec.DefaultConfig()); err != nil {
			return nil, err
		}
	}

	nullBytes, err := c.Encode(codec.NullValue{})
	if err != nil {
		return nil, err
	}

	cache := &Cache{
		cfg:       cfg,
		backend:   backend,
		codec:     c,
		nullBytes: nullBytes,
	}
	for _, opt := range opts {
		opt(cache)
	}
	cache.logger = loggerOrDefault(cache.logger)
	if cache.errors == nil {
		cache.errors = NewLoggingErrorHandler(cache.logger)
	}
	return cache, nil
}

// Name returns the region name.
func (c *Cache) Name() string { return c.cfg.Name }

// Config returns the region configuration.
func (c *Cache) Config() Config { return c.cfg }

func (c *Cache) backendKey(key string) string {
	return c.cfg.Prefix() + key
}

// Get returns the value under key, decoding it polymorphically.
// A cached null is reported as (nil, true).
func (c *Cache) Get(ctx context.Context, key string) (any, bool, error) {
	return c.Lookup(ctx, key, nil)
}

// Lookup returns the value under key decoded as target. An unreachable
// backend reads as a miss.
func (c *Cache) Lookup(ctx context.Context, key string, target reflect.Type) (any, bool, error) {
	var (
		data  []byte
		found bool
	)
	ok := c.isolate(OpGet, key, nil, func() error {
		var err error
		data, found, err = c.backend.Get(ctx, c.backendKey(key))
		return err
	})
	if !ok || !found {
		return nil, false, nil
	}

	if len(data) == 0 || bytes.Equal(data, c.nullBytes) {
		return nil, true, nil
	}

	value, err := c.codec.Decode(data, target)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put stores value under key with the region TTL.
func (c *Cache) Put(ctx context.Context, key string, value any) error {
	return c.PutWithTTL(ctx, key, value, c.cfg.TTL)
}

// PutWithTTL stores value under key. A nil value is stored as the Null
// Sentinel when the region allows null values and skipped otherwise.
// A non-positive ttl uses the region TTL.
func (c *Cache) PutWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.cfg.TTL
	}

	data, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		if !c.cfg.AllowNullValues {
			c.logger.Debug("skipping null value", "cache", c.cfg.Name, "key", key)
			return nil
		}
		data = c.nullBytes
	}

	c.isolate(OpPut, key, value, func() error {
		return c.backend.Put(ctx, c.backendKey(key), data, ttl)
	})
	return nil
}

// PutIfAbsent stores value unless key already holds an entry, in which case
// the existing value is returned with found set. The check and the write are
// two backend calls and are not atomic across processes.
func (c *Cache) PutIfAbsent(ctx context.Context, key string, value any) (any, bool, error) {
	existing, found, err := c.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return existing, true, nil
	}
	return nil, false, c.Put(ctx, key, value)
}

// Evict removes key. Backend failures are reported to the ErrorHandler.
func (c *Cache) Evict(ctx context.Context, key string) {
	c.isolate(OpEvict, key, nil, func() error {
		return c.backend.Evict(ctx, c.backendKey(key))
	})
}

// Clear removes every entry of the region.
func (c *Cache) Clear(ctx context.Context) {
	c.isolate(OpClear, "", nil, func() error {
		return c.backend.Clear(ctx, c.cfg.Prefix())
	})
}

// GetOrFetch returns the cached value under key or computes it with fetchFn.
// Concurrent misses on the same key share one fetchFn call. Errors from
// fetchFn are returned and never cached.
func (c *Cache) GetOrFetch(ctx context.Context, key string, target reflect.Type, fetchFn FetchFn[any]) (any, error) {
	value, found, err := c.Lookup(ctx, key, target)
	if err != nil {
		return nil, err
	}
	if found {
		return value, nil
	}

	value, err, _ = c.group.Do(c.backendKey(key), func() (any, error) {
		fresh, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(ctx, key, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	return value, err
}
