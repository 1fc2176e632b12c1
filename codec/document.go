package codec

// Document is an ordered object: fields are rendered in insertion order.
// It is the intermediate tree the encoder builds before rendering a wire
// format, and callers may encode one directly when field order matters
// (for example a cache entry identity).
//
// Documents are tree nodes: they never receive a discriminator themselves.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument returns an empty document with room for n fields.
func NewDocument(n int) *Document {
	return &Document{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set assigns key. A new key is appended; an existing key keeps its position.
func (d *Document) Set(key string, value any) *Document {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	return d
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the field names in order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of fields.
func (d *Document) Len() int {
	return len(d.keys)
}
