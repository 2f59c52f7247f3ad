package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/goccy/go-json"

	"github.com/reoring/skemabridge/schema"
)

// Marshal encodes v and renders the wire form as JSON.
func Marshal(s *schema.Node, v any) ([]byte, error) {
	ev := Encode(s, v)
	if schema.IsUndefined(ev) {
		return nil, errors.New("codec: cannot marshal undefined")
	}
	return json.Marshal(ev)
}

// Unmarshal parses JSON wire bytes and decodes them against s. Numbers are
// read exactly and then normalized per schema: BigInt leaves become
// *big.Int, date leaves time.Time, every other number float64.
func Unmarshal(s *schema.Node, data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return Decode(s, normalize(s, raw)), nil
}

// normalize replaces json.Number leaves. Numbers in positions without a
// BigInt or date schema (unions included) become float64.
func normalize(s *schema.Node, v any) any {
	if base := schema.Unwrap(s); base != nil && base.Kind == schema.KindCustom && base.Inner != nil {
		return normalize(base.Inner, v)
	}
	switch t := v.(type) {
	case json.Number:
		base := schema.Unwrap(s)
		if base != nil && base.Kind == schema.KindBigInt {
			if n, ok := new(big.Int).SetString(t.String(), 10); ok {
				return n
			}
		}
		if base != nil && base.Kind == schema.KindDate {
			if i, err := t.Int64(); err == nil {
				return i
			}
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []any:
		var elem func(int) *schema.Node
		base := schema.Unwrap(s)
		switch {
		case base != nil && base.Kind == schema.KindArray:
			elem = func(int) *schema.Node { return base.Elem }
		case base != nil && base.Kind == schema.KindTuple:
			elem = func(i int) *schema.Node {
				if i < len(base.Items) {
					return base.Items[i]
				}
				return nil
			}
		default:
			elem = func(int) *schema.Node { return nil }
		}
		for i := range t {
			t[i] = normalize(elem(i), t[i])
		}
		return t
	case map[string]any:
		base := schema.Unwrap(s)
		for k, val := range t {
			t[k] = normalize(fieldSchema(base, k), val)
		}
		return t
	}
	return v
}

func fieldSchema(base *schema.Node, key string) *schema.Node {
	if base == nil {
		return nil
	}
	switch base.Kind {
	case schema.KindObject:
		f, _ := base.Field(key)
		return f
	case schema.KindRecord:
		return base.Elem
	case schema.KindIntersection:
		if f := fieldSchema(schema.Unwrap(base.Left), key); f != nil {
			return f
		}
		return fieldSchema(schema.Unwrap(base.Right), key)
	}
	return nil
}
