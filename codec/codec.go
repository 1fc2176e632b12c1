package codec

import (
	"fmt"
	"reflect"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// Codec converts object graphs to documents and back.
//
// A typed codec embeds a discriminator wherever the Classifier asks for one
// and resolves discriminators through the Registry when decoding into an
// interface target. A structural codec never writes or reads discriminators.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	cfg        Config
	typed      bool
	classifier *Classifier
	schemas    *schemaCache
}

// New returns a typed codec.
func New(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("codec: invalid config: %w", err)
	}
	cfg = cfg.withDefaults()
	return &Codec{
		cfg:        cfg,
		typed:      true,
		classifier: NewClassifier(cfg.TaggedBuiltins...),
		schemas:    newSchemaCache(),
	}, nil
}

// NewStructural returns an untyped JSON codec. It shares the schema rules,
// date layouts and ordering guarantees of the typed codec, which makes its
// output a canonical form for equal values.
func NewStructural(cfg Config) (*Codec, error) {
	cfg.Format = FormatJSON
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c.typed = false
	return c, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *Codec {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Encode renders v. A nil value, including a nil pointer, encodes to zero
// bytes; use NullValue to store an explicit null.
func (c *Codec) Encode(v any) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	node, err := c.toNode(reflect.ValueOf(v), "", 0)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return []byte{}, nil
	}
	out, err := c.render(node)
	if err != nil {
		return nil, encodeErr(reflect.TypeOf(v), "", err)
	}
	return out, nil
}

// Decode parses data into a new value of type target. A nil target means
// `any`: the concrete type is resolved from the top-level discriminator.
// Zero-length data decodes to nil.
func (c *Codec) Decode(data []byte, target reflect.Type) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if target == nil {
		target = anyType
	}
	tree, err := c.parse(data)
	if err != nil {
		return nil, decodeErr(target, "", err)
	}
	v := reflect.New(target).Elem()
	if err := c.assign(v, tree, "", 0); err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// DecodeInto parses data into the value ptr points to. Zero-length data
// leaves it untouched.
func (c *Codec) DecodeInto(data []byte, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return decodeErr(reflect.TypeOf(ptr), "", fmt.Errorf("%w: need a non-nil pointer", ErrTypeMismatch))
	}
	if len(data) == 0 {
		return nil
	}
	tree, err := c.parse(data)
	if err != nil {
		return decodeErr(rv.Type().Elem(), "", err)
	}
	return c.assign(rv.Elem(), tree, "", 0)
}

// Registry returns the type registry consulted by the codec.
func (c *Codec) Registry() *Registry { return c.cfg.Registry }

// Classifier returns the discriminator classifier.
func (c *Codec) Classifier() *Classifier { return c.classifier }

// TypeProperty returns the discriminator field name.
func (c *Codec) TypeProperty() string { return c.cfg.TypeProperty }

// Format returns the wire format.
func (c *Codec) Format() Format { return c.cfg.Format }

// Structural reports whether the codec omits discriminators.
func (c *Codec) Structural() bool { return !c.typed }

// Decode is the generic form of Codec.Decode.
func Decode[T any](c *Codec, data []byte) (T, error) {
	var zero T
	v, err := c.Decode(data, reflect.TypeFor[T]())
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}
