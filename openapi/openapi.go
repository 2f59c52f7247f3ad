// Package openapi projects validator trees onto OpenAPI 3.0 component
// schemas and imports component schemas back as table definitions.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/reoring/skemabridge/table"
	"github.com/reoring/skemabridge/validator"
)

// FromValidator converts n into an OpenAPI schema. Null is not a type in
// OpenAPI 3.0, so a union containing Null becomes a nullable schema and a
// bare Null becomes {nullable: true}.
func FromValidator(n *validator.Node) *openapi3.Schema {
	if n == nil {
		return &openapi3.Schema{}
	}
	switch n.Kind {
	case validator.KindString:
		return &openapi3.Schema{Type: openapi3.TypeString}
	case validator.KindFloat64:
		return &openapi3.Schema{Type: openapi3.TypeNumber, Format: "double"}
	case validator.KindInt64:
		return &openapi3.Schema{Type: openapi3.TypeInteger, Format: "int64"}
	case validator.KindBoolean:
		return &openapi3.Schema{Type: openapi3.TypeBoolean}
	case validator.KindNull:
		return &openapi3.Schema{Nullable: true}
	case validator.KindLiteral:
		if n.Value == nil {
			return &openapi3.Schema{Nullable: true}
		}
		return &openapi3.Schema{Type: literalType(n.Value), Enum: []any{n.Value}}
	case validator.KindId:
		return &openapi3.Schema{Type: openapi3.TypeString, Format: "id", Description: "id of " + n.Collection}
	case validator.KindOptional:
		return FromValidator(n.Elem)
	case validator.KindUnion:
		return fromUnion(n.Members)
	case validator.KindArray:
		return &openapi3.Schema{Type: openapi3.TypeArray, Items: FromValidator(n.Elem).NewRef()}
	case validator.KindRecord:
		return &openapi3.Schema{
			Type:                 openapi3.TypeObject,
			AdditionalProperties: openapi3.AdditionalProperties{Schema: FromValidator(n.Elem).NewRef()},
		}
	case validator.KindObject:
		out := &openapi3.Schema{
			Type:       openapi3.TypeObject,
			Properties: make(openapi3.Schemas, len(n.Fields)),
		}
		for _, f := range n.Fields {
			out.Properties[f.Name] = FromValidator(f.Node).NewRef()
			if f.Node == nil || f.Node.Kind != validator.KindOptional {
				out.Required = append(out.Required, f.Name)
			}
		}
		return out
	}
	return &openapi3.Schema{}
}

func fromUnion(members []*validator.Node) *openapi3.Schema {
	nullable := false
	var rest []*validator.Node
	for _, m := range members {
		if isNull(m) {
			nullable = true
			continue
		}
		rest = append(rest, m)
	}
	switch len(rest) {
	case 0:
		return &openapi3.Schema{Nullable: true}
	case 1:
		s := FromValidator(rest[0])
		s.Nullable = s.Nullable || nullable
		return s
	}
	if enum, ok := literalEnum(rest); ok {
		enum.Nullable = nullable
		return enum
	}
	out := &openapi3.Schema{Nullable: nullable, AnyOf: make(openapi3.SchemaRefs, len(rest))}
	for i, m := range rest {
		out.AnyOf[i] = FromValidator(m).NewRef()
	}
	return out
}

// literalEnum folds a union of same-typed literals into a single enum.
func literalEnum(members []*validator.Node) (*openapi3.Schema, bool) {
	typ := ""
	vals := make([]any, 0, len(members))
	for _, m := range members {
		if m.Kind != validator.KindLiteral {
			return nil, false
		}
		t := literalType(m.Value)
		if typ != "" && t != typ {
			return nil, false
		}
		typ = t
		vals = append(vals, m.Value)
	}
	return &openapi3.Schema{Type: typ, Enum: vals}, true
}

func isNull(n *validator.Node) bool {
	return n != nil && (n.Kind == validator.KindNull || (n.Kind == validator.KindLiteral && n.Value == nil))
}

func literalType(v any) string {
	switch v.(type) {
	case string:
		return openapi3.TypeString
	case bool:
		return openapi3.TypeBoolean
	case int, int64:
		return openapi3.TypeInteger
	case float64, float32:
		return openapi3.TypeNumber
	}
	return ""
}

// Components returns one component schema per table, keyed by table name.
// Documents carry the system keys, so each schema also lists _id and
// _creationTime.
func Components(descs ...*table.Descriptor) openapi3.Components {
	c := openapi3.Components{Schemas: make(openapi3.Schemas, len(descs))}
	for _, d := range descs {
		s := FromValidator(d.Document())
		if s.Properties == nil {
			s.Properties = openapi3.Schemas{}
		}
		s.Properties[table.KeyID] = (&openapi3.Schema{Type: openapi3.TypeString, Format: "id", Description: "id of " + d.Name()}).NewRef()
		s.Properties[table.KeyCreationTime] = (&openapi3.Schema{Type: openapi3.TypeNumber, Format: "double"}).NewRef()
		c.Schemas[d.Name()] = s.NewRef()
	}
	return c
}

// Document wraps Components in a minimal OpenAPI 3.0 root, ready to be
// marshaled.
func Document(title, version string, descs ...*table.Descriptor) map[string]any {
	return map[string]any{
		"openapi":    "3.0.3",
		"info":       &openapi3.Info{Title: title, Version: version},
		"paths":      openapi3.Paths{},
		"components": Components(descs...),
	}
}
