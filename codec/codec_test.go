package codec_test

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-cache-codec/codec"
	"github.com/goliatone/go-cache-codec/pkg/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_WidgetScenario(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	data, err := c.Encode(Widget{Name: "a", Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, `{"@class":"pkg.Widget","name":"a","amount":10}`, string(data))

	got, err := c.Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, Widget{Name: "a", Amount: 10}, got)
}

func TestCodec_PolymorphicRoundTrip(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatMsgPack} {
		t.Run(string(format), func(t *testing.T) {
			c := newCodec(format)
			want := sampleDrawing()

			data, err := c.Encode(want)
			require.NoError(t, err)

			got, err := c.Decode(data, nil)
			require.NoError(t, err)
			require.IsType(t, Drawing{}, got)
			assert.Equal(t, want, got)
		})
	}
}

func TestCodec_MsgPackIsBinary(t *testing.T) {
	c := newCodec(codec.FormatMsgPack)

	data, err := c.Encode(Widget{Name: "a", Amount: 10})
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.NotEqual(t, byte('{'), data[0])

	got, err := codec.Decode[Widget](c, data)
	require.NoError(t, err)
	assert.Equal(t, Widget{Name: "a", Amount: 10}, got)
}

func TestCodec_Golden(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	data, err := c.Encode(sampleDrawing())
	require.NoError(t, err)

	testsupport.CompareWithGolden(t, testsupport.GoldenPath("drawing.json"), data)
}

func TestCodec_ConcreteTargetIgnoresDiscriminator(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	got, err := codec.Decode[Widget](c, []byte(`{"@class":"pkg.Circle","name":"b","amount":3}`))
	require.NoError(t, err)
	assert.Equal(t, Widget{Name: "b", Amount: 3}, got)

	ptr, err := codec.Decode[*Widget](c, []byte(`{"name":"c"}`))
	require.NoError(t, err)
	assert.Equal(t, &Widget{Name: "c"}, ptr)
}

func TestCodec_InterfaceTarget(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	data, err := c.Encode(Square{Side: 3})
	require.NoError(t, err)

	shape, err := codec.Decode[Shape](c, data)
	require.NoError(t, err)
	assert.Equal(t, Square{Side: 3}, shape)

	_, err = codec.Decode[Shape](c, []byte(`{"side":3}`))
	assert.ErrorIs(t, err, codec.ErrTypeMismatch)

	_, err = codec.Decode[Shape](c, []byte(`{"@class":"pkg.Widget","name":"x"}`))
	assert.ErrorIs(t, err, codec.ErrTypeMismatch)
}

func TestCodec_MissingDiscriminatorFallsBackToTree(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	got, err := c.Decode([]byte(`{"name":"a","amount":10,"ratio":0.5,"items":[1,{"@class":"pkg.Circle","radius":2}]}`), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":   "a",
		"amount": int64(10),
		"ratio":  0.5,
		"items":  []any{int64(1), Circle{Radius: 2}},
	}, got)
}

func TestCodec_NullHandling(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	t.Run("nil encodes to nothing", func(t *testing.T) {
		data, err := c.Encode(nil)
		require.NoError(t, err)
		assert.Empty(t, data)

		var w *Widget
		data, err = c.Encode(w)
		require.NoError(t, err)
		assert.Empty(t, data)

		got, err := c.Decode(data, nil)
		require.NoError(t, err)
		assert.Nil(t, got)

		typed, err := c.Decode(nil, reflect.TypeOf(Widget{}))
		require.NoError(t, err)
		assert.Nil(t, typed)
	})

	t.Run("sentinel round trips", func(t *testing.T) {
		data, err := c.Encode(codec.NullValue{})
		require.NoError(t, err)
		assert.Equal(t, `{"@class":"`+codec.TypeName(reflect.TypeOf(codec.NullValue{}))+`"}`, string(data))

		got, err := c.Decode(data, nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, codec.IsNull(got))
	})
}

func TestCodec_NoDiscriminatorForScalars(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "int", value: 42, want: `42`},
		{name: "float", value: 2.5, want: `2.5`},
		{name: "string", value: "a<b", want: `"a<b"`},
		{name: "bool", value: true, want: `true`},
		{name: "enum", value: Color(3), want: `3`},
		{name: "date", value: codec.Date{Year: 2023, Month: time.December, Day: 31}, want: `"2023-12-31"`},
		{name: "time", value: time.Date(2023, 12, 31, 23, 59, 1, 0, time.UTC), want: `"2023-12-31 23:59:01"`},
		{name: "string slice", value: []string{"x", "y"}, want: `["x","y"]`},
		{name: "int map", value: map[int]string{2: "b", 1: "a"}, want: `{"1":"a","2":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Encode(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestCodec_TimeUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	cfg := codec.DefaultConfig()
	cfg.Location = loc
	c := codec.MustNew(cfg)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data, err := c.Encode(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-01 08:00:00"`, string(data))

	got, err := codec.Decode[time.Time](c, data)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
}

func TestCodec_SparseAndTags(t *testing.T) {
	type base struct {
		ID    int    `json:"id"`
		Label string `json:"label"`
	}
	type record struct {
		base
		Label    string  `json:"label"`
		Renamed  string  `cache:"alias" json:"ignored"`
		Skipped  string  `json:"-"`
		Optional *string `json:"optional"`
		Empty    int     `json:"empty,omitempty"`
		internal string
	}

	cfg := codec.DefaultConfig()
	c, err := codec.NewStructural(cfg)
	require.NoError(t, err)

	data, err := c.Encode(record{base: base{ID: 7, Label: "inner"}, Label: "outer", Renamed: "r", Skipped: "s", internal: "i"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"label":"outer","alias":"r"}`, string(data))

	var got record
	require.NoError(t, c.DecodeInto(data, &got))
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "outer", got.Label)
	assert.Equal(t, "r", got.Renamed)
	assert.Empty(t, got.Skipped)
}

func TestCodec_StructuralOmitsDiscriminator(t *testing.T) {
	c, err := codec.NewStructural(codec.Config{Registry: newRegistry()})
	require.NoError(t, err)
	assert.True(t, c.Structural())

	data, err := c.Encode(sampleDrawing().Shapes)
	require.NoError(t, err)
	assert.Equal(t, `[{"radius":1.5},{"side":2}]`, string(data))

	got, err := c.Decode([]byte(`{"@class":"pkg.Widget","name":"a"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"@class": "pkg.Widget", "name": "a"}, got)
}

func TestCodec_Errors(t *testing.T) {
	c := newCodec(codec.FormatJSON)

	type reserved struct {
		Class string `json:"@class"`
	}
	type withChan struct {
		C chan int `json:"c"`
	}
	type node struct {
		Next *node `json:"next"`
	}

	t.Run("non-finite float", func(t *testing.T) {
		_, err := c.Encode(Circle{Radius: math.NaN()})
		var encErr *codec.EncodingError
		require.ErrorAs(t, err, &encErr)
		assert.ErrorIs(t, err, codec.ErrUnsupportedType)
		assert.Equal(t, ".radius", encErr.Path)
	})

	t.Run("reserved field", func(t *testing.T) {
		_, err := c.Encode(reserved{Class: "x"})
		assert.ErrorIs(t, err, codec.ErrReservedField)
	})

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := c.Encode(withChan{C: make(chan int)})
		assert.ErrorIs(t, err, codec.ErrUnsupportedType)
	})

	t.Run("depth", func(t *testing.T) {
		cfg := codec.DefaultConfig()
		cfg.MaxDepth = 4
		shallow := codec.MustNew(cfg)

		var head *node
		for i := 0; i < 10; i++ {
			head = &node{Next: head}
		}
		_, err := shallow.Encode(head)
		assert.ErrorIs(t, err, codec.ErrDepthExceeded)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := c.Decode([]byte(`{"@class":"nope.Thing"}`), nil)
		var decErr *codec.DecodingError
		require.ErrorAs(t, err, &decErr)
		assert.ErrorIs(t, err, codec.ErrUnknownType)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := c.Decode([]byte(`{"name":`), nil)
		assert.ErrorIs(t, err, codec.ErrMalformed)

		_, err = c.Decode([]byte(`{} {}`), nil)
		assert.ErrorIs(t, err, codec.ErrMalformed)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := codec.Decode[int](c, []byte(`"abc"`))
		assert.ErrorIs(t, err, codec.ErrTypeMismatch)

		_, err = codec.Decode[int8](c, []byte(`300`))
		assert.ErrorIs(t, err, codec.ErrTypeMismatch)

		_, err = codec.Decode[Widget](c, []byte(`[1,2]`))
		assert.ErrorIs(t, err, codec.ErrTypeMismatch)
	})

	t.Run("decode into non pointer", func(t *testing.T) {
		err := c.DecodeInto([]byte(`1`), 1)
		assert.True(t, errors.Is(err, codec.ErrTypeMismatch))
	})
}

func TestCodec_InvalidConfig(t *testing.T) {
	_, err := codec.New(codec.Config{Format: "xml"})
	assert.Error(t, err)

	_, err = codec.New(codec.Config{MaxDepth: -1})
	assert.Error(t, err)
}

func TestCodec_CustomTypeProperty(t *testing.T) {
	cfg := codec.DefaultConfig()
	cfg.TypeProperty = "_type"
	cfg.Registry = newRegistry()
	c := codec.MustNew(cfg)

	data, err := c.Encode(Widget{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, `{"_type":"pkg.Widget","name":"a","amount":0}`, string(data))
	assert.Equal(t, "_type", c.TypeProperty())
}

func TestCodec_ConcurrentUse(t *testing.T) {
	c := newCodec(codec.FormatJSON)
	want := sampleDrawing()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.Encode(want)
			if !assert.NoError(t, err) {
				return
			}
			got, err := c.Decode(data, nil)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
