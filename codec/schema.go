package codec

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vmihailenco/tagparser/v2"
)

// fieldSchema describes one encoded field of a struct type.
type fieldSchema struct {
	name      string
	index     []int
	typ       reflect.Type
	omitEmpty bool
	depth     int
}

// typeSchema is the auditable, per-type description of an encoded struct:
// field name to accessor path, in declaration order.
type typeSchema struct {
	fields []fieldSchema
	byName map[string]int
}

// schemaCache builds each struct schema once and shares it across goroutines.
type schemaCache struct {
	schemas *xsync.MapOf[reflect.Type, *typeSchema]
}

func newSchemaCache() *schemaCache {
	return &schemaCache{schemas: xsync.NewMapOf[reflect.Type, *typeSchema]()}
}

func (c *schemaCache) of(t reflect.Type) *typeSchema {
	s, _ := c.schemas.LoadOrCompute(t, func() *typeSchema {
		return buildSchema(t)
	})
	return s
}

func buildSchema(t reflect.Type) *typeSchema {
	s := &typeSchema{byName: make(map[string]int)}
	collectFields(s, t, nil, 0)
	return s
}

func collectFields(s *typeSchema, t reflect.Type, parent []int, depth int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		name, omitEmpty, skip := fieldTag(f)
		if skip {
			continue
		}

		// flatten untagged, non-pointer embedded structs
		if f.Anonymous && f.Type.Kind() == reflect.Struct && name == "" {
			collectFields(s, f.Type, index, depth+1)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}

		field := fieldSchema{name: name, index: index, typ: f.Type, omitEmpty: omitEmpty, depth: depth}
		if pos, dup := s.byName[name]; dup {
			if s.fields[pos].depth > depth {
				s.fields[pos] = field
			}
			continue
		}
		s.byName[name] = len(s.fields)
		s.fields = append(s.fields, field)
	}
}

// fieldTag reads the cache tag, falling back to the json tag.
func fieldTag(f reflect.StructField) (name string, omitEmpty, skip bool) {
	raw, ok := f.Tag.Lookup("cache")
	if !ok {
		raw, ok = f.Tag.Lookup("json")
	}
	if !ok {
		return "", false, false
	}
	if raw == "-" {
		return "", false, true
	}
	tag := tagparser.Parse(raw)
	return tag.Name, tag.HasOption("omitempty"), false
}
