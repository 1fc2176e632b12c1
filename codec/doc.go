// Package codec converts object graphs to self-describing documents suitable
// for an external key-value cache, and back.
//
// # Overview
//
// The package exports three encoders built on one engine:
//
//   - Codec (typed): embeds a discriminator field (default "@class") wherever
//     the concrete type cannot be recovered from the declared type, and
//     resolves it through a Registry when decoding into an interface.
//   - Codec (structural): the same document shape without discriminators. Its
//     output is canonical for equal values and is used to build cache keys.
//   - PlainText: structural text with quotes stripped, for keys and simple values.
//
// # Discriminators
//
// The Classifier decides per type. Containers (pointers, slices, arrays, maps)
// are unwrapped to their leaf type first. Primitive kinds, text scalars
// (types implementing encoding.TextMarshaler and encoding.TextUnmarshaler),
// standard library types and tree nodes (Document, json.RawMessage,
// map[string]any, []any) carry no discriminator. Structs, interfaces and
// `any` do:
//
//	reg := codec.NewRegistry()
//	_ = reg.RegisterName("pkg.Widget", Widget{})
//
//	c := codec.MustNew(codec.Config{Registry: reg})
//	data, _ := c.Encode(Widget{Name: "a", Amount: 10})
//	// {"@class":"pkg.Widget","name":"a","amount":10}
//
//	v, _ := c.Decode(data, nil) // Widget{Name: "a", Amount: 10}
//
// # Null handling
//
// A nil value encodes to zero bytes and zero bytes decode to nil. NullValue is
// the explicit "cached null" marker and round-trips as NullValue.
//
// # Field mapping
//
// Exported fields are encoded under their `cache` tag name, falling back to
// the `json` tag and then the field name. Nil fields are omitted, as are
// zero fields tagged omitempty. time.Time uses DateTimeLayout in the
// configured location and Date uses DateLayout.
package codec
