// Package schema defines the source schema tree: a tagged variant of
// combinator nodes (primitives, modifiers, containers, unions, identifiers),
// the modifier Analyzer, and zod-like parsing of domain values.
//
// Nodes are built with the constructors in this file and then treated as
// immutable; the mapper, codec and table descriptors share them freely across
// goroutines.
package schema

import (
	"context"
	"sort"
)

// Kind is the discriminant of a Node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBigInt
	KindBoolean
	KindDate
	KindNull
	KindLiteral
	KindEnum
	KindOptional
	KindNullable
	KindDefault
	KindArray
	KindObject
	KindRecord
	KindUnion
	KindDiscriminatedUnion
	KindTuple
	KindIntersection
	KindIdentifier
	KindAny
	KindCustom
)

var kindNames = [...]string{
	KindInvalid:            "invalid",
	KindString:             "string",
	KindNumber:             "number",
	KindBigInt:             "bigint",
	KindBoolean:            "boolean",
	KindDate:               "date",
	KindNull:               "null",
	KindLiteral:            "literal",
	KindEnum:               "enum",
	KindOptional:           "optional",
	KindNullable:           "nullable",
	KindDefault:            "default",
	KindArray:              "array",
	KindObject:             "object",
	KindRecord:             "record",
	KindUnion:              "union",
	KindDiscriminatedUnion: "discriminatedUnion",
	KindTuple:              "tuple",
	KindIntersection:       "intersection",
	KindIdentifier:         "id",
	KindAny:                "any",
	KindCustom:             "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsModifier reports whether nodes of this kind wrap exactly one inner node
// without changing its shape.
func (k Kind) IsModifier() bool {
	return k == KindOptional || k == KindNullable || k == KindDefault
}

// CheckFunc validates a value for a Custom node.
type CheckFunc func(ctx context.Context, v any) error

// Field is one named property of an Object node.
type Field struct {
	Name string
	Node *Node
}

// Node is one node of the schema tree. Which fields are meaningful depends on
// Kind:
//
//	Optional/Nullable/Default: Inner (Default also uses Value)
//	Literal: Value        Enum: Values
//	Array/Record: Elem    Object: Fields (declaration order)
//	Union/DiscriminatedUnion: Members (+ Discriminator)
//	Tuple: Items          Intersection: Left, Right
//	Identifier: Collection
//	Custom: Name, Check (+ Inner when built by Refine)
type Node struct {
	Kind          Kind
	Inner         *Node
	Value         any
	Values        []any
	Elem          *Node
	Fields        []Field
	Members       []*Node
	Discriminator string
	Items         []*Node
	Left, Right   *Node
	Collection    string
	Name          string
	Check         CheckFunc
}

func String() *Node  { return &Node{Kind: KindString} }
func Number() *Node  { return &Node{Kind: KindNumber} }
func BigInt() *Node  { return &Node{Kind: KindBigInt} }
func Boolean() *Node { return &Node{Kind: KindBoolean} }
func Date() *Node    { return &Node{Kind: KindDate} }
func Null() *Node    { return &Node{Kind: KindNull} }
func Any() *Node     { return &Node{Kind: KindAny} }

// Literal matches exactly v.
func Literal(v any) *Node { return &Node{Kind: KindLiteral, Value: v} }

// Enum matches any of vals; order is preserved through mapping.
func Enum(vals ...any) *Node {
	return &Node{Kind: KindEnum, Values: append([]any(nil), vals...)}
}

// Optional accepts an absent value in addition to inner.
func Optional(inner *Node) *Node { return &Node{Kind: KindOptional, Inner: inner} }

// Nullable accepts null in addition to inner.
func Nullable(inner *Node) *Node { return &Node{Kind: KindNullable, Inner: inner} }

// Default substitutes v for an absent value at parse time.
func Default(inner *Node, v any) *Node { return &Node{Kind: KindDefault, Inner: inner, Value: v} }

// Array matches a list whose elements match elem.
func Array(elem *Node) *Node { return &Node{Kind: KindArray, Elem: elem} }

// Object matches a map with the given fields; unknown keys are stripped by Parse.
func Object(fields ...Field) *Node {
	return &Node{Kind: KindObject, Fields: append([]Field(nil), fields...)}
}

// Record matches a map whose values all match value.
func Record(value *Node) *Node { return &Node{Kind: KindRecord, Elem: value} }

// Union matches the first member that accepts the value.
func Union(members ...*Node) *Node {
	return &Node{Kind: KindUnion, Members: append([]*Node(nil), members...)}
}

// DiscriminatedUnion selects an Object member by the literal value of the
// discriminator key.
func DiscriminatedUnion(discriminator string, members ...*Node) *Node {
	return &Node{Kind: KindDiscriminatedUnion, Discriminator: discriminator, Members: append([]*Node(nil), members...)}
}

// Tuple matches a fixed-length list with per-position schemas.
func Tuple(items ...*Node) *Node {
	return &Node{Kind: KindTuple, Items: append([]*Node(nil), items...)}
}

// Intersection matches values accepted by both sides; object results are merged.
func Intersection(left, right *Node) *Node {
	return &Node{Kind: KindIntersection, Left: left, Right: right}
}

// Identifier matches a document id of the named collection.
func Identifier(collection string) *Node {
	return &Node{Kind: KindIdentifier, Collection: collection}
}

// Custom matches values accepted by check. The mapper has no rule for it.
func Custom(name string, check CheckFunc) *Node {
	return &Node{Kind: KindCustom, Name: name, Check: check}
}

// Refine parses n and then runs check on the parsed value. Issues returned
// by check are relative to the refined value. Mapping and encoding follow n;
// keep modifiers outside the refinement.
func Refine(n *Node, name string, check CheckFunc) *Node {
	return &Node{Kind: KindCustom, Inner: n, Name: name, Check: check}
}

// Optional enables fluent chaining: schema.Number().Optional()
func (n *Node) Optional() *Node { return Optional(n) }

// Nullable enables fluent chaining: schema.String().Nullable()
func (n *Node) Nullable() *Node { return Nullable(n) }

// Default enables fluent chaining: schema.Boolean().Default(true)
func (n *Node) Default(v any) *Node { return Default(n, v) }

// Field returns the node of the named object field.
func (n *Node) Field(name string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Node, true
		}
	}
	return nil, false
}

// FieldNames lists object field names in declaration order.
func (n *Node) FieldNames() []string {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	out := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		out[i] = f.Name
	}
	return out
}

// Fields is the plain name-to-node mapping form of an object schema.
type Fields map[string]*Node

// Object normalizes the mapping into an Object node with keys in sorted order.
func (fs Fields) Object() *Node {
	keys := make([]string, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Name: k, Node: fs[k]})
	}
	return &Node{Kind: KindObject, Fields: out}
}

// undefined is the type of the Undefined sentinel.
type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined marks an absent value. Absent map keys are undefined as well;
// nil is null.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}
