package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-cache-codec/cache"
	"github.com/goliatone/go-cache-codec/codec"
	"github.com/goliatone/go-cache-codec/internal/cacheinfra"
	"github.com/goliatone/go-cache-codec/repositorycache"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/redis/go-redis/v9"
)

// Container provides dependency injection for cache related components.
// It owns one codec pair, one key generator and one backend, and hands out
// named cache regions that share them.
type Container struct {
	config Config
	logger cache.Logger

	registry   *codec.Registry
	codec      *codec.Codec
	structural *codec.Codec
	plainText  *codec.PlainText
	keys       *cache.DefaultKeyGenerator

	backend      cache.Backend
	errorHandler cache.ErrorHandler
	redis        *redis.Client

	mu     sync.Mutex
	caches map[string]*cache.Cache
}

// Option customises a Container.
type Option func(*Container)

// WithLogger replaces the logger built from Config.LogLevel and Config.LogFormat.
func WithLogger(l cache.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegistry supplies the type registry used by the object codec.
func WithRegistry(r *codec.Registry) Option {
	return func(c *Container) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithBackend supplies a backend instead of building one from Config.Backend.
func WithBackend(b cache.Backend) Option {
	return func(c *Container) {
		if b != nil {
			c.backend = b
		}
	}
}

// WithErrorHandler replaces the logging error handler shared by all regions.
func WithErrorHandler(h cache.ErrorHandler) Option {
	return func(c *Container) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// NewContainer validates config and builds every shared component.
func NewContainer(config Config, opts ...Option) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("di: invalid config: %w", err)
	}

	c := &Container{
		config: config,
		caches: make(map[string]*cache.Cache),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = newLogger(config.LogFormat, config.LogLevel)
	}
	if c.registry == nil {
		c.registry = config.Codec.Registry
	}
	if c.registry == nil {
		c.registry = codec.NewRegistry()
	}

	codecCfg := config.Codec
	codecCfg.Registry = c.registry

	var err error
	if c.codec, err = codec.New(codecCfg); err != nil {
		return nil, err
	}
	if c.structural, err = codec.NewStructural(codecCfg); err != nil {
		return nil, err
	}
	if c.plainText, err = codec.NewPlainText(c.structural); err != nil {
		return nil, err
	}
	if c.keys, err = cache.NewKeyGenerator(c.structural); err != nil {
		return nil, err
	}
	if c.errorHandler == nil {
		c.errorHandler = cache.NewLoggingErrorHandler(c.logger)
	}

	if c.backend == nil {
		if err := c.buildBackend(); err != nil {
			return nil, err
		}
	} else {
		c.logger.Info("cache backend selected", "backend", fmt.Sprintf("%T", c.backend))
	}

	return c, nil
}

// NewContainerWithDefaults creates a container from DefaultConfig.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(DefaultConfig(), opts...)
}

func (c *Container) buildBackend() error {
	switch c.config.Backend {
	case BackendRedis:
		client := cacheinfra.NewRedisClient(c.config.Redis)
		backend, err := cacheinfra.NewRedisBackend(client, c.plainText, c.config.Redis)
		if err != nil {
			_ = client.Close()
			return err
		}
		c.redis = client
		c.backend = backend
		c.logger.Info("cache backend selected", "backend", BackendRedis, "addr", c.config.Redis.Addr, "db", c.config.Redis.DB)
	default:
		backend, err := cacheinfra.NewLocalBackend(c.config.Local)
		if err != nil {
			return err
		}
		c.backend = backend
		c.logger.Info("cache backend selected", "backend", BackendLocal, "capacity", c.config.Local.Capacity)
	}
	return nil
}

func newLogger(format, level string) cache.Logger {
	if format == LogFormatJSON {
		return cache.NewJSONLogger(cache.ParseLevel(level))
	}
	return cache.NewTextLogger(cache.ParseLevel(level))
}

// Cache returns the region called name, creating it from the Cache template
// on first use. Later calls return the same region.
func (c *Container) Cache(name string) (*cache.Cache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if region, ok := c.caches[name]; ok {
		return region, nil
	}

	cfg := c.config.Cache
	cfg.Name = name
	region, err := cache.New(cfg, c.backend, c.codec,
		cache.WithLogger(c.logger),
		cache.WithErrorHandler(c.errorHandler),
	)
	if err != nil {
		return nil, err
	}
	c.caches[name] = region
	return region, nil
}

// CacheNames lists the regions created so far.
func (c *Container) CacheNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.caches))
	for name := range c.caches {
		names = append(names, name)
	}
	return names
}

// Registry returns the type registry shared by the object codec.
func (c *Container) Registry() *codec.Registry { return c.registry }

// Codec returns the typed object codec.
func (c *Container) Codec() *codec.Codec { return c.codec }

// StructuralCodec returns the discriminator-free codec used for keys.
func (c *Container) StructuralCodec() *codec.Codec { return c.structural }

// PlainText returns the plain-text key encoder.
func (c *Container) PlainText() *codec.PlainText { return c.plainText }

// KeyGenerator returns the shared key generator.
func (c *Container) KeyGenerator() *cache.DefaultKeyGenerator { return c.keys }

// Backend returns the shared backend.
func (c *Container) Backend() cache.Backend { return c.backend }

// Logger returns the container logger.
func (c *Container) Logger() cache.Logger { return c.logger }

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config { return c.config }

// Ping checks connectivity of a networked backend. It is a no-op for the
// in-process backend.
func (c *Container) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// Close releases the backend connection, if any.
func (c *Container) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// NewCachedRepository wraps base with a cached repository backed by the
// region named after the entity namespace (User gets region "users").
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedRepository[User](container, baseUserRepository)
func NewCachedRepository[T any](container *Container, base repository.Repository[T], opts ...repositorycache.Option) (*repositorycache.CachedRepository[T], error) {
	entity := reflect.TypeFor[T]()
	for entity.Kind() == reflect.Pointer {
		entity = entity.Elem()
	}

	region, err := container.Cache(repositorycache.Namespace(entity))
	if err != nil {
		return nil, err
	}

	opts = append([]repositorycache.Option{repositorycache.WithLogger(container.logger)}, opts...)
	return repositorycache.New(base, region, container.keys, opts...), nil
}
