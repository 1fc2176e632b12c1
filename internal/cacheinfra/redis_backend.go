package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-cache-codec/cache"
	"github.com/goliatone/go-cache-codec/codec"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection and keyspace settings of the Redis backend.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int

	// KeyPrefix namespaces every key this backend writes, e.g. "svc:".
	KeyPrefix string

	// ScanBatch is the COUNT hint used while scanning keys to clear.
	ScanBatch int64

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns a RedisConfig pointing at a local server.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		ScanBatch:    100,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0)),
		validation.Field(&c.ScanBatch, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.DialTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.WriteTimeout, validation.Min(time.Duration(0))),
	)
}

// NewRedisClient opens a client for cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// RedisBackend stores encoded entries in Redis. Keys are written through the
// plain-text encoder; values are stored as is.
type RedisBackend struct {
	client    redis.UniversalClient
	keys      *codec.PlainText
	keyPrefix string
	scanBatch int64
}

var _ cache.Backend = (*RedisBackend)(nil)

// NewRedisBackend wraps client. A nil keys encoder uses default settings.
func NewRedisBackend(client redis.UniversalClient, keys *codec.PlainText, cfg RedisConfig) (*RedisBackend, error) {
	if client == nil {
		return nil, errors.New("cacheinfra: redis client is required")
	}
	if cfg.ScanBatch <= 0 {
		cfg.ScanBatch = DefaultRedisConfig().ScanBatch
	}
	if keys == nil {
		var err error
		if keys, err = codec.NewPlainText(nil); err != nil {
			return nil, err
		}
	}
	return &RedisBackend{
		client:    client,
		keys:      keys,
		keyPrefix: cfg.KeyPrefix,
		scanBatch: cfg.ScanBatch,
	}, nil
}

func (b *RedisBackend) key(key string) (string, error) {
	raw, err := b.keys.Encode(b.keyPrefix + key)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("%w: %q", cache.ErrUncacheableKey, key)
	}
	return string(raw), nil
}

// Get returns the value under key. redis.Nil is a miss.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := b.key(key)
	if err != nil {
		return nil, false, err
	}
	value, err := b.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", k, err)
	}
	return value, true, nil
}

// Put writes value with SET, expiring it after ttl when ttl is positive.
func (b *RedisBackend) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := b.key(key)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := b.client.Set(ctx, k, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

// Evict deletes key.
func (b *RedisBackend) Evict(ctx context.Context, key string) error {
	k, err := b.key(key)
	if err != nil {
		return err
	}
	if err := b.client.Del(ctx, k).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del %s: %w", k, err)
	}
	return nil
}

// Clear scans for keys starting with prefix and deletes them batch by batch.
func (b *RedisBackend) Clear(ctx context.Context, prefix string) error {
	raw, err := b.keys.Encode(b.keyPrefix + prefix)
	if err != nil {
		return err
	}
	pattern := escapeGlob(string(raw)) + "*"

	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, pattern, b.scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := b.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
