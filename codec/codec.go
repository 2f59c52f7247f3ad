// Package codec converts domain values to their wire-safe representation and
// back, guided by a schema tree.
//
// The only lossy conversion is the date leaf: time.Time values travel as
// int64 milliseconds since the Unix epoch. Everything else passes through.
// The codec assumes its input already satisfies the schema; it never
// validates and never applies defaults.
package codec

import (
	"context"

	"github.com/reoring/skemabridge/internal/values"
	"github.com/reoring/skemabridge/schema"
)

// Encode converts a domain value to its wire form. An Undefined value
// encodes to Undefined so callers can omit the key; object output never
// contains Undefined entries.
func Encode(s *schema.Node, v any) any {
	return convert(s, v, encodeMode)
}

// Decode converts a wire value back to its domain form. Object keys absent
// from the input stay absent.
func Decode(s *schema.Node, v any) any {
	return convert(s, v, decodeMode)
}

type mode uint8

const (
	encodeMode mode = iota
	decodeMode
)

func convert(s *schema.Node, v any, m mode) any {
	if schema.IsUndefined(v) {
		return schema.Undefined
	}
	if s == nil {
		return v
	}
	switch s.Kind {
	case schema.KindOptional, schema.KindNullable, schema.KindDefault:
		if v == nil {
			return nil
		}
		return convert(s.Inner, v, m)
	case schema.KindDate:
		if m == encodeMode {
			return encodeDate(v)
		}
		return decodeDate(v)
	case schema.KindObject:
		return convertObject(s, v, m)
	case schema.KindArray:
		items, ok := values.Slice(v)
		if !ok {
			return v
		}
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = convert(s.Elem, it, m)
		}
		return out
	case schema.KindTuple:
		items, ok := values.Slice(v)
		if !ok {
			return v
		}
		out := make([]any, len(items))
		for i, it := range items {
			var item *schema.Node
			if i < len(s.Items) {
				item = s.Items[i]
			}
			out[i] = convert(item, it, m)
		}
		return out
	case schema.KindRecord:
		mv, ok := values.Map(v)
		if !ok {
			return v
		}
		out := make(map[string]any, len(mv))
		for k, val := range mv {
			if cv := convert(s.Elem, val, m); !schema.IsUndefined(cv) {
				out[k] = cv
			}
		}
		return out
	case schema.KindUnion:
		if member := pickMember(s.Members, v, m); member != nil {
			return convert(member, v, m)
		}
		return v
	case schema.KindDiscriminatedUnion:
		if member := pickTagged(s, v); member != nil {
			return convert(member, v, m)
		}
		return v
	case schema.KindIntersection:
		return convert(s.Right, convert(s.Left, v, m), m)
	case schema.KindCustom:
		if s.Inner != nil {
			return convert(s.Inner, v, m)
		}
	}
	return v
}

// convertObject visits declared fields that are present in v. Keys the
// schema does not declare (system keys such as _id) are copied unchanged.
func convertObject(s *schema.Node, v any, m mode) any {
	mv, ok := values.Map(v)
	if !ok {
		return v
	}
	out := make(map[string]any, len(mv))
	declared := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		declared[f.Name] = struct{}{}
		raw, present := mv[f.Name]
		if !present {
			continue
		}
		if cv := convert(f.Node, raw, m); !schema.IsUndefined(cv) {
			out[f.Name] = cv
		}
	}
	for k, val := range mv {
		if _, ok := declared[k]; ok || schema.IsUndefined(val) {
			continue
		}
		out[k] = val
	}
	return out
}

// pickMember returns the first union member the value fits: the domain
// schema when encoding, the member's wire shape when decoding.
func pickMember(members []*schema.Node, v any, m mode) *schema.Node {
	for _, member := range members {
		if m == encodeMode {
			if schema.Validate(context.Background(), member, v) == nil {
				return member
			}
			continue
		}
		if fitsWire(member, v) {
			return member
		}
	}
	return nil
}

func pickTagged(s *schema.Node, v any) *schema.Node {
	mv, ok := values.Map(v)
	if !ok {
		return nil
	}
	tag, ok := mv[s.Discriminator]
	if !ok {
		return nil
	}
	for _, member := range s.Members {
		field, ok := schema.Unwrap(member).Field(s.Discriminator)
		if !ok {
			continue
		}
		f := schema.Unwrap(field)
		switch {
		case f == nil:
		case f.Kind == schema.KindLiteral && values.Equal(f.Value, tag):
			return member
		case f.Kind == schema.KindEnum:
			for _, want := range f.Values {
				if values.Equal(want, tag) {
					return member
				}
			}
		}
	}
	return nil
}

// fitsWire reports whether a wire value has the shape a member encodes to.
// Dates are numbers on the wire; everything else matches its domain shape.
func fitsWire(s *schema.Node, v any) bool {
	base := schema.Unwrap(s)
	if base == nil {
		return true
	}
	if v == nil {
		return schema.Analyze(s).Nullable || schema.IsNullMember(base) || base.Kind == schema.KindAny
	}
	switch base.Kind {
	case schema.KindDate:
		_, ok := values.Float64(v)
		return ok
	case schema.KindObject:
		mv, ok := values.Map(v)
		if !ok {
			return false
		}
		for _, f := range base.Fields {
			raw, present := mv[f.Name]
			if !present {
				if !schema.Analyze(f.Node).Optional {
					return false
				}
				continue
			}
			if !fitsWire(f.Node, raw) {
				return false
			}
		}
		return true
	case schema.KindArray:
		items, ok := values.Slice(v)
		if !ok {
			return false
		}
		for _, it := range items {
			if !fitsWire(base.Elem, it) {
				return false
			}
		}
		return true
	case schema.KindUnion:
		return pickMember(base.Members, v, decodeMode) != nil
	case schema.KindCustom:
		if base.Inner != nil {
			return fitsWire(base.Inner, v)
		}
	}
	return schema.Validate(context.Background(), base, v) == nil
}

// Codec binds Encode and Decode to one schema.
type Codec struct {
	schema *schema.Node
}

// New returns a Codec for s. A nil schema passes every value through.
func New(s *schema.Node) *Codec { return &Codec{schema: s} }

func (c *Codec) Schema() *schema.Node { return c.schema }

func (c *Codec) Encode(v any) any { return Encode(c.schema, v) }

func (c *Codec) Decode(v any) any { return Decode(c.schema, v) }

// EncodeDocument encodes an object value and returns it as a map. Non-map
// results (a misuse) yield nil.
func (c *Codec) EncodeDocument(v any) map[string]any {
	m, _ := values.Map(c.Encode(v))
	return m
}

// DecodeDocument is the inverse of EncodeDocument.
func (c *Codec) DecodeDocument(v any) map[string]any {
	m, _ := values.Map(c.Decode(v))
	return m
}

func (c *Codec) Marshal(v any) ([]byte, error) { return Marshal(c.schema, v) }

func (c *Codec) Unmarshal(data []byte) (any, error) { return Unmarshal(c.schema, data) }
