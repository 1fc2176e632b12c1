package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// KeySeparator joins a cache name and an entry key.
	KeySeparator = "::"
	// DefaultTTL is the time-to-live of entries written without an explicit one.
	DefaultTTL = 2 * time.Hour
)

// Config describes one named cache region.
type Config struct {
	// Name identifies the region and namespaces its keys.
	Name string

	// TTL applies to every Put. Must be greater than 0.
	TTL time.Duration

	// AllowNullValues stores nil results as the Null Sentinel so that a
	// legitimately absent value is not recomputed on every call.
	AllowNullValues bool

	// KeyPrefix is prepended to every backend key, e.g. "app:".
	KeyPrefix string
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Name:            "default",
		TTL:             DefaultTTL,
		AllowNullValues: true,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
	)
}

// Prefix returns the backend key prefix shared by every entry of the region.
func (c Config) Prefix() string {
	return c.KeyPrefix + c.Name + KeySeparator
}
