package codec

import (
	"strings"
	"unicode/utf8"
)

// PlainText encodes keys and values that never need type round-tripping.
// Encoding goes through a structural codec and strips every double quote, so
// the string "value" is stored as value. Decoding is deliberately not the
// inverse: it returns the stored text as is.
type PlainText struct {
	structural *Codec
}

// NewPlainText wraps a codec. A typed codec is replaced by a structural one
// with the same configuration.
func NewPlainText(c *Codec) (*PlainText, error) {
	if c == nil || !c.Structural() {
		cfg := DefaultConfig()
		if c != nil {
			cfg = c.cfg
		}
		s, err := NewStructural(cfg)
		if err != nil {
			return nil, err
		}
		c = s
	}
	return &PlainText{structural: c}, nil
}

// Encode returns the stripped structural text of v, or nil when the result is
// blank, which callers read as "do not cache".
func (p *PlainText) Encode(v any) ([]byte, error) {
	b, err := p.structural.Encode(v)
	if err != nil {
		return nil, err
	}
	return plainBytes(string(b)), nil
}

// Decode returns data as text. ok is false for nil input.
func (p *PlainText) Decode(data []byte) (s string, ok bool) {
	if data == nil {
		return "", false
	}
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), true
	}
	return string(data), true
}

func plainBytes(s string) []byte {
	s = strings.ReplaceAll(s, `"`, "")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []byte(s)
}
