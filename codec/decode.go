package codec

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// assign stores node into dst, which must be settable.
func (c *Codec) assign(dst reflect.Value, node any, path string, depth int) error {
	t := dst.Type()
	if depth > c.cfg.MaxDepth {
		return decodeErr(t, path, ErrDepthExceeded)
	}
	if node == nil {
		dst.Set(reflect.Zero(t))
		return nil
	}

	switch t {
	case timeType:
		s, ok := node.(string)
		if !ok {
			return mismatch(t, path, node)
		}
		ts, err := time.ParseInLocation(DateTimeLayout, s, c.cfg.Location)
		if err != nil {
			return decodeErr(t, path, err)
		}
		dst.Set(reflect.ValueOf(ts))
		return nil
	case nullValueType:
		dst.Set(reflect.Zero(t))
		return nil
	case documentType, documentPtrType:
		m, ok := asObject(node)
		if !ok {
			return mismatch(t, path, node)
		}
		doc := sortedDocument(m)
		if t == documentType {
			dst.Set(reflect.ValueOf(*doc))
		} else {
			dst.Set(reflect.ValueOf(doc))
		}
		return nil
	case jsonRawType, msgpackRawType:
		return c.assignRaw(dst, node, path)
	}

	switch t.Kind() {
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(t.Elem()))
		}
		return c.assign(dst.Elem(), node, path, depth+1)
	case reflect.Interface:
		return c.assignInterface(dst, node, path, depth)
	}

	if isTextual(t) {
		s, ok := node.(string)
		if !ok {
			return mismatch(t, path, node)
		}
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return decodeErr(t, path, err)
		}
		dst.Set(p.Elem())
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, ok := node.(bool)
		if !ok {
			return mismatch(t, path, node)
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(node)
		if err != nil || dst.OverflowInt(i) {
			return mismatch(t, path, node)
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := toUint64(node)
		if err != nil || dst.OverflowUint(u) {
			return mismatch(t, path, node)
		}
		dst.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(node)
		if err != nil || dst.OverflowFloat(f) {
			return mismatch(t, path, node)
		}
		dst.SetFloat(f)
	case reflect.String:
		s, ok := node.(string)
		if !ok {
			return mismatch(t, path, node)
		}
		dst.SetString(s)
	case reflect.Slice:
		return c.assignSlice(dst, node, path, depth)
	case reflect.Array:
		items, ok := node.([]any)
		if !ok || len(items) > t.Len() {
			return mismatch(t, path, node)
		}
		for i, item := range items {
			if err := c.assign(dst.Index(i), item, path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
				return err
			}
		}
	case reflect.Map:
		return c.assignMap(dst, node, path, depth)
	case reflect.Struct:
		return c.assignStruct(dst, node, path, depth)
	default:
		return decodeErr(t, path, fmt.Errorf("%w: %s", ErrUnsupportedType, t.Kind()))
	}
	return nil
}

func (c *Codec) assignSlice(dst reflect.Value, node any, path string, depth int) error {
	t := dst.Type()
	if t.Elem().Kind() == reflect.Uint8 && !isTextual(t.Elem()) {
		var raw []byte
		switch n := node.(type) {
		case string:
			b, err := base64.StdEncoding.DecodeString(n)
			if err != nil {
				return decodeErr(t, path, err)
			}
			raw = b
		case []byte:
			raw = append([]byte(nil), n...)
		default:
			return mismatch(t, path, node)
		}
		dst.SetBytes(raw)
		return nil
	}

	items, ok := node.([]any)
	if !ok {
		return mismatch(t, path, node)
	}
	out := reflect.MakeSlice(t, len(items), len(items))
	for i, item := range items {
		if err := c.assign(out.Index(i), item, path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (c *Codec) assignMap(dst reflect.Value, node any, path string, depth int) error {
	t := dst.Type()
	m, ok := asObject(node)
	if !ok {
		return mismatch(t, path, node)
	}
	out := reflect.MakeMapWithSize(t, len(m))
	for k, v := range m {
		key, err := mapKeyValue(t.Key(), k)
		if err != nil {
			return decodeErr(t, path+"."+k, err)
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := c.assign(elem, v, path+"."+k, depth+1); err != nil {
			return err
		}
		out.SetMapIndex(key, elem)
	}
	dst.Set(out)
	return nil
}

func (c *Codec) assignStruct(dst reflect.Value, node any, path string, depth int) error {
	t := dst.Type()
	m, ok := asObject(node)
	if !ok {
		return mismatch(t, path, node)
	}
	schema := c.schemas.of(t)
	for k, v := range m {
		if k == c.cfg.TypeProperty {
			continue
		}
		pos, known := schema.byName[k]
		if !known {
			continue
		}
		f := schema.fields[pos]
		if err := c.assign(dst.FieldByIndex(f.index), v, path+"."+k, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// assignInterface resolves the concrete type of an interface-typed position
// from the discriminator, falling back to a generic value for `any`.
func (c *Codec) assignInterface(dst reflect.Value, node any, path string, depth int) error {
	t := dst.Type()
	if c.typed {
		if name, ok := discriminator(node, c.cfg.TypeProperty); ok {
			v, err := c.construct(name, node, path, depth)
			if err != nil {
				return err
			}
			if !v.Type().AssignableTo(t) {
				return decodeErr(t, path, fmt.Errorf("%w: %s does not implement %s", ErrTypeMismatch, v.Type(), t))
			}
			dst.Set(v)
			return nil
		}
	}
	if t.NumMethod() > 0 {
		return decodeErr(t, path, fmt.Errorf("%w: no %q field to resolve %s", ErrTypeMismatch, c.cfg.TypeProperty, t))
	}
	g, err := c.generic(node, path, depth)
	if err != nil {
		return err
	}
	if g == nil {
		dst.Set(reflect.Zero(t))
		return nil
	}
	dst.Set(reflect.ValueOf(g))
	return nil
}

func (c *Codec) construct(name string, node any, path string, depth int) (reflect.Value, error) {
	rt, ok := c.cfg.Registry.Resolve(name)
	if !ok {
		return reflect.Value{}, decodeErr(nil, path, fmt.Errorf("%w: %q", ErrUnknownType, name))
	}
	v := reflect.New(rt).Elem()
	if err := c.assign(v, node, path, depth+1); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

// generic converts node to plain Go values: map[string]any, []any, int64,
// uint64, float64, string, bool or []byte. Typed objects found along the way
// are constructed through the registry.
func (c *Codec) generic(node any, path string, depth int) (any, error) {
	if depth > c.cfg.MaxDepth {
		return nil, decodeErr(nil, path, ErrDepthExceeded)
	}
	switch n := node.(type) {
	case nil, bool, string, []byte:
		return n, nil
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			g, err := c.generic(item, path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	}

	if m, ok := asObject(node); ok {
		if c.typed {
			if name, ok := discriminator(node, c.cfg.TypeProperty); ok {
				v, err := c.construct(name, node, path, depth)
				if err != nil {
					return nil, err
				}
				return v.Interface(), nil
			}
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			g, err := c.generic(v, path+"."+k, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = g
		}
		return out, nil
	}

	if num, ok := node.(numberLike); ok {
		if i, err := num.Int64(); err == nil {
			return i, nil
		}
		f, err := num.Float64()
		if err != nil {
			return nil, decodeErr(nil, path, fmt.Errorf("%w: number %q", ErrMalformed, num.String()))
		}
		return f, nil
	}
	switch n := node.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return n, nil
		}
	}
	if i, err := toInt64(node); err == nil {
		return i, nil
	}
	if f, err := toFloat64(node); err == nil {
		return f, nil
	}
	return nil, decodeErr(nil, path, fmt.Errorf("%w: tree node %T", ErrMalformed, node))
}

func (c *Codec) assignRaw(dst reflect.Value, node any, path string) error {
	var buf bytes.Buffer
	// tree objects from the parser are unordered; sort them for stable output
	ordered := orderTree(node)
	var err error
	if dst.Type() == msgpackRawType {
		err = writeMsgPack(msgpack.NewEncoder(&buf), ordered)
	} else {
		err = writeJSON(&buf, ordered)
	}
	if err != nil {
		return decodeErr(dst.Type(), path, err)
	}
	dst.SetBytes(buf.Bytes())
	return nil
}

func orderTree(node any) any {
	if m, ok := asObject(node); ok {
		doc := NewDocument(len(m))
		for _, k := range sortedKeys(m) {
			doc.Set(k, orderTree(m[k]))
		}
		return doc
	}
	switch n := node.(type) {
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = orderTree(item)
		}
		return out
	case numberLike:
		return numberLiteral(n.String())
	case int8, int16, int32, int, uint8, uint16, uint32, uint:
		i, _ := toInt64(n)
		return i
	}
	return node
}

func sortedDocument(m map[string]any) *Document {
	doc := NewDocument(len(m))
	for _, k := range sortedKeys(m) {
		doc.Set(k, m[k])
	}
	return doc
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asObject normalises parser maps: JSON yields map[string]any, MessagePack
// may yield map[any]any for non-string keys.
func asObject(node any) (map[string]any, bool) {
	switch m := node.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

func discriminator(node any, prop string) (string, bool) {
	m, ok := asObject(node)
	if !ok {
		return "", false
	}
	name, ok := m[prop].(string)
	return name, ok && name != ""
}

func mapKeyValue(t reflect.Type, s string) (reflect.Value, error) {
	if t.Kind() == reflect.String {
		return reflect.ValueOf(s).Convert(t), nil
	}
	if isTextual(t) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("%w: map key %q", ErrTypeMismatch, s)
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil || v.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("%w: map key %q", ErrTypeMismatch, s)
		}
		v.SetUint(u)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: map key %q", ErrTypeMismatch, s)
		}
		v.SetBool(b)
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return reflect.Value{}, fmt.Errorf("%w: map key type %s", ErrUnsupportedType, t)
		}
		v.Set(reflect.ValueOf(s))
	default:
		return reflect.Value{}, fmt.Errorf("%w: map key type %s", ErrUnsupportedType, t)
	}
	return v, nil
}

func toInt64(node any) (int64, error) {
	switch n := node.(type) {
	case numberLike:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	case int64:
		return n, nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, ErrTypeMismatch
		}
		return int64(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, ErrTypeMismatch
		}
		return int64(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	}
	return 0, ErrTypeMismatch
}

func toUint64(node any) (uint64, error) {
	switch n := node.(type) {
	case uint64:
		return n, nil
	case numberLike:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, nil
		}
	}
	i, err := toInt64(node)
	if err != nil || i < 0 {
		return 0, ErrTypeMismatch
	}
	return uint64(i), nil
}

func toFloat64(node any) (float64, error) {
	switch n := node.(type) {
	case numberLike:
		return n.Float64()
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	i, err := toInt64(node)
	if err != nil {
		return 0, err
	}
	return float64(i), nil
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, ErrTypeMismatch
	}
	return int64(f), nil
}

func mismatch(t reflect.Type, path string, node any) error {
	return decodeErr(t, path, fmt.Errorf("%w: cannot store %T in %s", ErrTypeMismatch, node, t))
}
