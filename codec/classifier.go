package codec

import (
	"encoding"
	stdjson "encoding/json"
	"reflect"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	jsonRawType         = reflect.TypeOf(stdjson.RawMessage{})
	msgpackRawType      = reflect.TypeOf(msgpack.RawMessage{})

	treeNodeTypes = map[reflect.Type]struct{}{
		reflect.TypeOf(Document{}):          {},
		jsonRawType:                         {},
		msgpackRawType:                      {},
		reflect.TypeOf(map[string]any(nil)): {},
		reflect.TypeOf([]any(nil)):          {},
	}
)

// Classifier decides whether values of a type need an embedded discriminator.
// The decision is structural and recomputed on every call; the classifier
// itself is immutable.
type Classifier struct {
	tagged map[reflect.Type]struct{}
}

// NewClassifier returns a classifier. taggedBuiltins are standard library
// types that keep their discriminator even though their package is builtin.
func NewClassifier(taggedBuiltins ...reflect.Type) *Classifier {
	tagged := make(map[reflect.Type]struct{}, len(taggedBuiltins))
	for _, t := range taggedBuiltins {
		if t != nil {
			tagged[t] = struct{}{}
		}
	}
	return &Classifier{tagged: tagged}
}

// RequiresDiscriminator reports whether encoding a value declared as t must
// record its concrete type name.
func (c *Classifier) RequiresDiscriminator(t reflect.Type) bool {
	if t == nil || isAnyType(t) {
		return true
	}

	t = resolveContainer(t)
	if isTreeNode(t) {
		return false
	}

	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		// primitives and named "enum" types built on them
		return false
	}

	if _, ok := c.tagged[t]; ok {
		return true
	}

	if isTextual(t) || isBuiltinPackage(t.PkgPath()) {
		return false
	}

	return true
}

// resolveContainer unwraps pointers, slices, arrays and maps down to the
// innermost element type. Tree nodes and text scalars stop the descent.
func resolveContainer(t reflect.Type) reflect.Type {
	for !isTreeNode(t) && !isTextual(t) {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		default:
			return t
		}
	}
	return t
}

func isAnyType(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

func isTreeNode(t reflect.Type) bool {
	_, ok := treeNodeTypes[t]
	return ok
}

// isTextual reports whether t round-trips through a single text scalar.
func isTextual(t reflect.Type) bool {
	marshals := t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)
	return marshals && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// isBuiltinPackage reports whether pkgPath belongs to the standard library:
// the first path element of every non-standard import path contains a dot.
func isBuiltinPackage(pkgPath string) bool {
	if pkgPath == "" || pkgPath == "main" {
		return false
	}
	first, _, _ := strings.Cut(pkgPath, "/")
	return !strings.Contains(first, ".")
}
