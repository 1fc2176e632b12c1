package codec

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnsupportedType is returned when a value's type cannot be represented in a document.
	ErrUnsupportedType = errors.New("codec: unsupported type")
	// ErrUnknownType is returned when a discriminator names a type the registry cannot resolve.
	ErrUnknownType = errors.New("codec: unknown type name")
	// ErrMalformed is returned when the input bytes are not a well formed document.
	ErrMalformed = errors.New("codec: malformed document")
	// ErrTypeMismatch is returned when a document node cannot be stored in the target type.
	ErrTypeMismatch = errors.New("codec: document does not match target type")
	// ErrDepthExceeded is returned when an object graph nests deeper than Config.MaxDepth.
	ErrDepthExceeded = errors.New("codec: maximum depth exceeded")
	// ErrReservedField is returned when a struct field collides with the discriminator field.
	ErrReservedField = errors.New("codec: field name collides with type property")
	// ErrDuplicateType is returned when a type name is registered for two different types.
	ErrDuplicateType = errors.New("codec: type name already registered")
)

// EncodingError reports an object graph that could not be converted to the wire form.
//
// The underlying cause can be accessed via errors.Unwrap.
type EncodingError struct {
	Type reflect.Type
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("codec: encode %s at %s: %v", typeString(e.Type), pathOrRoot(e.Path), e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError reports bytes that could not be converted to the requested type.
//
// The underlying cause can be accessed via errors.Unwrap.
type DecodingError struct {
	Target reflect.Type
	Path   string
	Err    error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("codec: decode %s at %s: %v", typeString(e.Target), pathOrRoot(e.Path), e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

func typeString(t reflect.Type) string {
	if t == nil {
		return "<any>"
	}
	return t.String()
}

func pathOrRoot(p string) string {
	if p == "" {
		return "$"
	}
	return p
}

func encodeErr(t reflect.Type, path string, err error) error {
	return &EncodingError{Type: t, Path: path, Err: err}
}

func decodeErr(t reflect.Type, path string, err error) error {
	return &DecodingError{Target: t, Path: path, Err: err}
}
