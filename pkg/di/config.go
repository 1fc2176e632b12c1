package di

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-cache-codec/cache"
	"github.com/goliatone/go-cache-codec/codec"
	"github.com/goliatone/go-cache-codec/internal/cacheinfra"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "CACHECODEC"

// Backend names accepted in Config.Backend.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Log formats accepted in Config.LogFormat.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config aggregates the settings of every component the container builds.
type Config struct {
	// Backend selects where encoded entries live: BackendLocal or BackendRedis.
	Backend string

	LogLevel  string
	LogFormat string

	Codec codec.Config

	// Cache is the template for every region; Name is set per region.
	Cache cache.Config

	Local cacheinfra.LocalConfig
	Redis cacheinfra.RedisConfig
}

// DefaultConfig returns a Config using the in-process backend.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendLocal,
		LogLevel:  "info",
		LogFormat: LogFormatText,
		Codec:     codec.DefaultConfig(),
		Cache:     cache.DefaultConfig(),
		Local:     cacheinfra.DefaultLocalConfig(),
		Redis:     cacheinfra.DefaultRedisConfig(),
	}
}

// Validate checks the container settings and the settings of the selected backend.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendLocal, BackendRedis)),
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	); err != nil {
		return err
	}
	if err := c.Codec.Validate(); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	switch c.Backend {
	case BackendLocal:
		if err := c.Local.Validate(); err != nil {
			return fmt.Errorf("local: %w", err)
		}
	case BackendRedis:
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// LoadConfig reads the configuration from the environment. Each file in
// envFiles (".env" when none is given) is loaded first if it exists; it never
// overrides variables that are already set. Unset keys keep DefaultConfig values.
//
// Keys are upper-cased and prefixed, e.g. CACHECODEC_BACKEND,
// CACHECODEC_CACHE_TTL=30m or CACHECODEC_REDIS_ADDR=redis:6379.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("di: load %s: %w", f, err)
		}
	}

	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := map[string]any{
		"backend":    def.Backend,
		"log_level":  def.LogLevel,
		"log_format": def.LogFormat,

		"codec_format":        string(def.Codec.Format),
		"codec_type_property": def.Codec.TypeProperty,
		"codec_timezone":      "UTC",
		"codec_max_depth":     def.Codec.MaxDepth,

		"cache_ttl":               def.Cache.TTL,
		"cache_allow_null_values": def.Cache.AllowNullValues,
		"cache_key_prefix":        def.Cache.KeyPrefix,

		"local_capacity":            def.Local.Capacity,
		"local_shards":              def.Local.NumShards,
		"local_ttl":                 def.Local.TTL,
		"local_eviction_percentage": def.Local.EvictionPercentage,
		"local_eviction_interval":   def.Local.EvictionInterval,

		"redis_addr":          def.Redis.Addr,
		"redis_username":      def.Redis.Username,
		"redis_password":      def.Redis.Password,
		"redis_db":            def.Redis.DB,
		"redis_key_prefix":    def.Redis.KeyPrefix,
		"redis_scan_batch":    def.Redis.ScanBatch,
		"redis_dial_timeout":  def.Redis.DialTimeout,
		"redis_read_timeout":  def.Redis.ReadTimeout,
		"redis_write_timeout": def.Redis.WriteTimeout,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	loc, err := time.LoadLocation(v.GetString("codec_timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("di: codec timezone: %w", err)
	}

	cfg := Config{
		Backend:   strings.ToLower(v.GetString("backend")),
		LogLevel:  v.GetString("log_level"),
		LogFormat: strings.ToLower(v.GetString("log_format")),
		Codec: codec.Config{
			TypeProperty: v.GetString("codec_type_property"),
			Location:     loc,
			Format:       codec.Format(strings.ToLower(v.GetString("codec_format"))),
			MaxDepth:     v.GetInt("codec_max_depth"),
		},
		Cache: cache.Config{
			Name:            def.Cache.Name,
			TTL:             v.GetDuration("cache_ttl"),
			AllowNullValues: v.GetBool("cache_allow_null_values"),
			KeyPrefix:       v.GetString("cache_key_prefix"),
		},
		Local: cacheinfra.LocalConfig{
			Capacity:           v.GetInt("local_capacity"),
			NumShards:          v.GetInt("local_shards"),
			TTL:                v.GetDuration("local_ttl"),
			EvictionPercentage: v.GetInt("local_eviction_percentage"),
			EvictionInterval:   v.GetDuration("local_eviction_interval"),
		},
		Redis: cacheinfra.RedisConfig{
			Addr:         v.GetString("redis_addr"),
			Username:     v.GetString("redis_username"),
			Password:     v.GetString("redis_password"),
			DB:           v.GetInt("redis_db"),
			KeyPrefix:    v.GetString("redis_key_prefix"),
			ScanBatch:    v.GetInt64("redis_scan_batch"),
			DialTimeout:  v.GetDuration("redis_dial_timeout"),
			ReadTimeout:  v.GetDuration("redis_read_timeout"),
			WriteTimeout: v.GetDuration("redis_write_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("di: invalid config: %w", err)
	}
	return cfg, nil
}
