package codec_test

import (
	"math"
	"time"

	"github.com/goliatone/go-cache-codec/codec"
	"github.com/google/uuid"
)

type Widget struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

type Shape interface {
	Area() float64
}

type Circle struct {
	Radius float64 `json:"radius"`
}

func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

type Square struct {
	Side float64 `json:"side"`
}

func (s Square) Area() float64 { return s.Side * s.Side }

type Drawing struct {
	Title   string         `json:"title"`
	Shapes  []Shape        `json:"shapes"`
	Owner   *Widget        `json:"owner,omitempty"`
	Day     codec.Date     `json:"day"`
	Created time.Time      `json:"created"`
	ID      uuid.UUID      `json:"id"`
	Meta    map[string]any `json:"meta"`
	Data    []byte         `json:"data"`
	Tags    []string       `json:"tags"`
	Note    *string        `json:"note"`
}

type Color int

func newRegistry() *codec.Registry {
	reg := codec.NewRegistry()
	for name, sample := range map[string]any{
		"pkg.Widget":  Widget{},
		"pkg.Circle":  Circle{},
		"pkg.Square":  Square{},
		"pkg.Drawing": Drawing{},
	} {
		if err := reg.RegisterName(name, sample); err != nil {
			panic(err)
		}
	}
	return reg
}

func newCodec(format codec.Format) *codec.Codec {
	cfg := codec.DefaultConfig()
	cfg.Format = format
	cfg.Registry = newRegistry()
	return codec.MustNew(cfg)
}

func sampleDrawing() Drawing {
	return Drawing{
		Title:   "plan",
		Shapes:  []Shape{Circle{Radius: 1.5}, Square{Side: 2}},
		Owner:   &Widget{Name: "a", Amount: 10},
		Day:     codec.Date{Year: 2024, Month: time.March, Day: 1},
		Created: time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC),
		ID:      uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Meta:    map[string]any{"b": int64(2), "a": "x"},
		Data:    []byte("hi"),
	}
}
