package jsonschema

import (
	"github.com/reoring/skemabridge/validator"
)

// SystemKeyPattern admits the backend-managed keys (_id, _creationTime) on
// every object.
const SystemKeyPattern = "^_"

// FromValidator converts a validator tree to JSON Schema. Optional fields
// are left out of "required"; an Optional outside an object is exported as
// its inner schema.
func FromValidator(n *validator.Node) *Schema {
	if n == nil {
		return &Schema{}
	}
	switch n.Kind {
	case validator.KindString:
		return &Schema{Type: "string"}
	case validator.KindFloat64:
		return &Schema{Type: "number"}
	case validator.KindInt64:
		return &Schema{Type: "integer", Format: "int64"}
	case validator.KindBoolean:
		return &Schema{Type: "boolean"}
	case validator.KindNull:
		return &Schema{Type: "null"}
	case validator.KindLiteral:
		v := n.Value
		return &Schema{Const: &v}
	case validator.KindId:
		return &Schema{Type: "string", Format: "id", Description: "id of " + n.Collection}
	case validator.KindOptional:
		return FromValidator(n.Elem)
	case validator.KindUnion:
		out := &Schema{AnyOf: make([]*Schema, len(n.Members))}
		for i, m := range n.Members {
			out.AnyOf[i] = FromValidator(m)
		}
		return out
	case validator.KindArray:
		return &Schema{Type: "array", Items: FromValidator(n.Elem)}
	case validator.KindRecord:
		return &Schema{Type: "object", AdditionalProperties: FromValidator(n.Elem)}
	case validator.KindObject:
		out := &Schema{
			Type:                 "object",
			Properties:           make(map[string]*Schema, len(n.Fields)),
			PatternProperties:    map[string]*Schema{SystemKeyPattern: {}},
			AdditionalProperties: false,
		}
		for _, f := range n.Fields {
			out.Properties[f.Name] = FromValidator(f.Node)
			if f.Node == nil || f.Node.Kind != validator.KindOptional {
				out.Required = append(out.Required, f.Name)
			}
		}
		return out
	}
	return &Schema{}
}

// Document is FromValidator with $schema and title set, for a standalone
// file.
func Document(title string, n *validator.Node) *Schema {
	s := FromValidator(n)
	s.SchemaURI = Draft
	s.Title = title
	return s
}
