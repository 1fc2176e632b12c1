package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

func (c *Codec) render(node any) ([]byte, error) {
	var buf bytes.Buffer
	switch c.cfg.Format {
	case FormatMsgPack:
		if err := writeMsgPack(msgpack.NewEncoder(&buf), node); err != nil {
			return nil, err
		}
	default:
		if err := writeJSON(&buf, node); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (c *Codec) parse(data []byte) (any, error) {
	if c.cfg.Format == FormatMsgPack {
		return parseMsgPack(data)
	}
	return parseJSON(data)
}

func writeJSON(buf *bytes.Buffer, node any) error {
	switch n := node.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(n))
	case int64:
		buf.WriteString(strconv.FormatInt(n, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(n, 10))
	case numberLiteral:
		buf.WriteString(string(n))
	case float32, float64, string:
		b, err := json.MarshalNoEscape(n)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, elem := range n {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Document:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.MarshalNoEscape(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.values[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: tree node %T", ErrUnsupportedType, node)
	}
	return nil
}

func writeMsgPack(enc *msgpack.Encoder, node any) error {
	switch n := node.(type) {
	case nil:
		return enc.EncodeNil()
	case bool:
		return enc.EncodeBool(n)
	case int64:
		return enc.EncodeInt(n)
	case uint64:
		return enc.EncodeUint(n)
	case float32:
		return enc.EncodeFloat32(n)
	case float64:
		return enc.EncodeFloat64(n)
	case string:
		return enc.EncodeString(n)
	case numberLiteral:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return enc.EncodeInt(i)
		}
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return fmt.Errorf("%w: number %q", ErrMalformed, n)
		}
		return enc.EncodeFloat64(f)
	case []any:
		if err := enc.EncodeArrayLen(len(n)); err != nil {
			return err
		}
		for _, elem := range n {
			if err := writeMsgPack(enc, elem); err != nil {
				return err
			}
		}
		return nil
	case *Document:
		if err := enc.EncodeMapLen(n.Len()); err != nil {
			return err
		}
		for _, k := range n.keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := writeMsgPack(enc, n.values[k]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: tree node %T", ErrUnsupportedType, node)
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	return tree, nil
}

func parseMsgPack(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))

	tree, err := dec.DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.DecodeInterface(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	return tree, nil
}
