package codec_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-cache-codec/codec"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClassifier_RequiresDiscriminator(t *testing.T) {
	c := codec.NewClassifier()

	tests := []struct {
		name string
		typ  reflect.Type
		want bool
	}{
		{name: "any", typ: reflect.TypeFor[any](), want: true},
		{name: "nil type", typ: nil, want: true},
		{name: "int", typ: reflect.TypeFor[int](), want: false},
		{name: "pointer to int", typ: reflect.TypeFor[*int](), want: false},
		{name: "string slice", typ: reflect.TypeFor[[]string](), want: false},
		{name: "nested arrays", typ: reflect.TypeFor[[][2]float64](), want: false},
		{name: "enum", typ: reflect.TypeFor[Color](), want: false},
		{name: "duration", typ: reflect.TypeFor[time.Duration](), want: false},
		{name: "time", typ: reflect.TypeFor[time.Time](), want: false},
		{name: "text scalar", typ: reflect.TypeFor[uuid.UUID](), want: false},
		{name: "date", typ: reflect.TypeFor[codec.Date](), want: false},
		{name: "document", typ: reflect.TypeFor[codec.Document](), want: false},
		{name: "document pointer", typ: reflect.TypeFor[*codec.Document](), want: false},
		{name: "raw json", typ: reflect.TypeFor[json.RawMessage](), want: false},
		{name: "generic map", typ: reflect.TypeFor[map[string]any](), want: false},
		{name: "generic slice", typ: reflect.TypeFor[[]any](), want: false},
		{name: "application struct", typ: reflect.TypeFor[Widget](), want: true},
		{name: "slice of struct pointers", typ: reflect.TypeFor[[]*Widget](), want: true},
		{name: "map of struct slices", typ: reflect.TypeFor[map[string][]Widget](), want: true},
		{name: "interface", typ: reflect.TypeFor[Shape](), want: true},
		{name: "error", typ: reflect.TypeFor[error](), want: true},
		{name: "map of any", typ: reflect.TypeFor[map[int]any](), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.RequiresDiscriminator(tt.typ))
		})
	}
}

func TestClassifier_TaggedBuiltins(t *testing.T) {
	c := codec.NewClassifier(reflect.TypeFor[time.Location]())

	assert.True(t, c.RequiresDiscriminator(reflect.TypeFor[*time.Location]()))
	assert.False(t, c.RequiresDiscriminator(reflect.TypeFor[time.Month]()))
}
