// Package codec converts overlay descriptors to and from the ordered
// key-value structures carried by method channel messages.
package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Field is one key-value pair.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered key-value structure. It encodes to a msgpack map with
// keys in slice order.
type Fields []Field

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	for _, kv := range f {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (f Fields) Keys() []string {
	keys := make([]string, len(f))
	for i, kv := range f {
		keys[i] = kv.Key
	}
	return keys
}

// Map returns the pairs as an unordered map.
func (f Fields) Map() map[string]any {
	m := make(map[string]any, len(f))
	for _, kv := range f {
		m[kv.Key] = kv.Value
	}
	return m
}

func (f Fields) add(key string, value any) Fields {
	return append(f, Field{Key: key, Value: value})
}

var (
	_ msgpack.CustomEncoder = Fields(nil)
	_ msgpack.CustomDecoder = (*Fields)(nil)
)

// EncodeMsgpack writes the pairs as a map, preserving order.
func (f Fields) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(f)); err != nil {
		return err
	}
	for _, kv := range f {
		if err := enc.EncodeString(kv.Key); err != nil {
			return err
		}
		if err := enc.Encode(kv.Value); err != nil {
			return fmt.Errorf("encoding %q: %w", kv.Key, err)
		}
	}
	return nil
}

// DecodeMsgpack reads a map, keeping the wire order of its keys.
func (f *Fields) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		*f = nil
		return nil
	}
	out := make(Fields, 0, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		value, err := dec.DecodeInterface()
		if err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: value})
	}
	*f = out
	return nil
}
