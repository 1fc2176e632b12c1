package codec

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

var (
	timeType        = reflect.TypeOf(time.Time{})
	documentPtrType = reflect.TypeOf((*Document)(nil))
	documentType    = documentPtrType.Elem()
)

// numberLiteral is a JSON number carried through the tree without rounding.
type numberLiteral string

// numberLike matches json.Number from both encoding/json and goccy/go-json.
type numberLike interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

var numberLikeType = reflect.TypeOf((*numberLike)(nil)).Elem()

// toNode converts v into the document tree: nil, bool, int64, uint64,
// float32, float64, string, numberLiteral, []any or *Document.
func (c *Codec) toNode(v reflect.Value, path string, depth int) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	t := v.Type()
	if depth > c.cfg.MaxDepth {
		return nil, encodeErr(t, path, ErrDepthExceeded)
	}

	switch t {
	case timeType:
		return v.Interface().(time.Time).In(c.cfg.Location).Format(DateTimeLayout), nil
	case nullValueType:
		return c.nullDocument(), nil
	case documentType:
		d := v.Interface().(Document)
		return c.documentNode(&d, path, depth)
	case documentPtrType:
		if v.IsNil() {
			return nil, nil
		}
		return c.documentNode(v.Interface().(*Document), path, depth)
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return c.toNode(v.Elem(), path, depth+1)
	}

	if isTreeNode(t) && t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return c.rawNode(v, path, depth)
	}

	if t.Kind() == reflect.String && t.Implements(numberLikeType) {
		return numberLiteral(v.String()), nil
	}

	if isTextual(t) {
		return textNode(v, path)
	}

	switch t.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, encodeErr(t, path, fmt.Errorf("%w: non-finite float %v", ErrUnsupportedType, f))
		}
		if t.Kind() == reflect.Float32 {
			return float32(f), nil
		}
		return f, nil
	case reflect.String:
		return v.String(), nil
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if t.Elem().Kind() == reflect.Uint8 && !isTextual(t.Elem()) {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		}
		return c.arrayNode(v, path, depth)
	case reflect.Array:
		return c.arrayNode(v, path, depth)
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		return c.mapNode(v, path, depth)
	case reflect.Struct:
		return c.structNode(v, path, depth)
	}

	return nil, encodeErr(t, path, fmt.Errorf("%w: %s", ErrUnsupportedType, t.Kind()))
}

func (c *Codec) nullDocument() *Document {
	d := NewDocument(1)
	if c.typed {
		d.Set(c.cfg.TypeProperty, c.cfg.Registry.NameOf(nullValueType))
	}
	return d
}

func (c *Codec) documentNode(d *Document, path string, depth int) (any, error) {
	out := NewDocument(d.Len())
	for _, k := range d.keys {
		n, err := c.toNode(reflect.ValueOf(d.values[k]), path+"."+k, depth+1)
		if err != nil {
			return nil, err
		}
		out.Set(k, n)
	}
	return out, nil
}

func (c *Codec) rawNode(v reflect.Value, path string, depth int) (any, error) {
	if v.Len() == 0 {
		return nil, nil
	}
	var (
		tree any
		err  error
	)
	if v.Type() == jsonRawType {
		tree, err = parseJSON(v.Bytes())
	} else {
		tree, err = parseMsgPack(v.Bytes())
	}
	if err != nil {
		return nil, encodeErr(v.Type(), path, err)
	}
	return c.toNode(reflect.ValueOf(tree), path, depth+1)
}

func textNode(v reflect.Value, path string) (any, error) {
	var m encoding.TextMarshaler
	if tm, ok := v.Interface().(encoding.TextMarshaler); ok {
		m = tm
	} else {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		m = p.Interface().(encoding.TextMarshaler)
	}
	text, err := m.MarshalText()
	if err != nil {
		return nil, encodeErr(v.Type(), path, err)
	}
	return string(text), nil
}

func (c *Codec) arrayNode(v reflect.Value, path string, depth int) (any, error) {
	out := make([]any, v.Len())
	for i := range out {
		n, err := c.toNode(v.Index(i), path+"["+strconv.Itoa(i)+"]", depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (c *Codec) mapNode(v reflect.Value, path string, depth int) (any, error) {
	type entry struct {
		key   string
		value reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := mapKeyString(iter.Key())
		if err != nil {
			return nil, encodeErr(v.Type(), path, err)
		}
		entries = append(entries, entry{key: k, value: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	out := NewDocument(len(entries))
	for _, e := range entries {
		n, err := c.toNode(e.value, path+"."+e.key, depth+1)
		if err != nil {
			return nil, err
		}
		out.Set(e.key, n)
	}
	return out, nil
}

func mapKeyString(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", fmt.Errorf("%w: nil map key", ErrUnsupportedType)
		}
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if isTextual(k.Type()) {
		n, err := textNode(k, "")
		if err != nil {
			return "", err
		}
		return n.(string), nil
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	}
	return "", fmt.Errorf("%w: map key of kind %s", ErrUnsupportedType, k.Kind())
}

func (c *Codec) structNode(v reflect.Value, path string, depth int) (any, error) {
	t := v.Type()
	schema := c.schemas.of(t)
	prop := c.cfg.TypeProperty

	out := NewDocument(len(schema.fields) + 1)
	if c.typed && c.classifier.RequiresDiscriminator(t) {
		out.Set(prop, c.cfg.Registry.NameOf(t))
	}

	for _, f := range schema.fields {
		if c.typed && f.name == prop {
			return nil, encodeErr(t, path+"."+f.name, ErrReservedField)
		}
		fv := v.FieldByIndex(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		n, err := c.toNode(fv, path+"."+f.name, depth+1)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		out.Set(f.name, n)
	}
	return out, nil
}
