package codec

import (
	"reflect"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultTypeProperty is the discriminator field name used when none is configured.
const DefaultTypeProperty = "@class"

const (
	// DateTimeLayout is the textual form of time.Time values in encoded documents.
	DateTimeLayout = "2006-01-02 15:04:05"
	// DateLayout is the textual form of Date values in encoded documents.
	DateLayout = "2006-01-02"
)

// Format selects the wire representation of an encoded document.
type Format string

const (
	// FormatJSON renders documents as UTF-8 JSON.
	FormatJSON Format = "json"
	// FormatMsgPack renders documents as MessagePack.
	FormatMsgPack Format = "msgpack"
)

// Config holds the one-time settings of a Codec. A Codec never mutates it after construction.
type Config struct {
	// TypeProperty is the reserved document field that records a value's type name.
	// Empty means DefaultTypeProperty.
	TypeProperty string

	// Location is used to render and parse time.Time values, which carry no zone
	// in the encoded form. Nil means time.UTC.
	Location *time.Location

	// Format selects the wire representation. Empty means FormatJSON.
	Format Format

	// MaxDepth bounds the nesting of encoded and decoded documents.
	MaxDepth int

	// TaggedBuiltins lists standard library types that must still carry a
	// discriminator even though they live in a builtin package.
	TaggedBuiltins []reflect.Type

	// Registry resolves discriminator names. Nil means a fresh registry.
	Registry *Registry
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() Config {
	return Config{
		TypeProperty: DefaultTypeProperty,
		Location:     time.UTC,
		Format:       FormatJSON,
		MaxDepth:     64,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.In(FormatJSON, FormatMsgPack)),
		validation.Field(&c.MaxDepth, validation.Min(0)),
	)
}

func (c Config) withDefaults() Config {
	if c.TypeProperty == "" {
		c.TypeProperty = DefaultTypeProperty
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 64
	}
	if c.Registry == nil {
		c.Registry = NewRegistry()
	}
	return c
}
