// Package validator holds the destination validator vocabulary and the mapper
// that translates schema trees into it.
//
// The destination vocabulary is deliberately small (String, Float64, Int64,
// Boolean, Null, Literal, Union, Array, Object, Record, Id, Any and the
// Optional presence combinator) and every schema node maps to something:
// constructs without a rule become Any.
package validator

import (
	"strings"

	"github.com/goccy/go-json"
)

// Kind is the discriminant of a validator Node. The zero Kind is Any.
type Kind uint8

const (
	KindAny Kind = iota
	KindString
	KindFloat64
	KindInt64
	KindBoolean
	KindNull
	KindLiteral
	KindUnion
	KindArray
	KindObject
	KindRecord
	KindId
	KindOptional
)

var kindNames = [...]string{
	KindAny:      "any",
	KindString:   "string",
	KindFloat64:  "float64",
	KindInt64:    "int64",
	KindBoolean:  "boolean",
	KindNull:     "null",
	KindLiteral:  "literal",
	KindUnion:    "union",
	KindArray:    "array",
	KindObject:   "object",
	KindRecord:   "record",
	KindId:       "id",
	KindOptional: "optional",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "any"
}

// Field is one named property of an Object validator.
type Field struct {
	Name string
	Node *Node
}

// Node is one node of a validator tree.
//
//	Literal: Value            Union: Members
//	Array/Optional: Elem      Record: Key, Elem
//	Object: Fields            Id: Collection
type Node struct {
	Kind       Kind
	Value      any
	Members    []*Node
	Elem       *Node
	Key        *Node
	Fields     []Field
	Collection string
}

func String() *Node  { return &Node{Kind: KindString} }
func Float64() *Node { return &Node{Kind: KindFloat64} }
func Int64() *Node   { return &Node{Kind: KindInt64} }
func Boolean() *Node { return &Node{Kind: KindBoolean} }
func Null() *Node    { return &Node{Kind: KindNull} }
func Any() *Node     { return &Node{Kind: KindAny} }

func Literal(v any) *Node { return &Node{Kind: KindLiteral, Value: v} }

func Union(members ...*Node) *Node {
	return &Node{Kind: KindUnion, Members: append([]*Node(nil), members...)}
}

func Array(elem *Node) *Node { return &Node{Kind: KindArray, Elem: elem} }

func Object(fields ...Field) *Node {
	return &Node{Kind: KindObject, Fields: append([]Field(nil), fields...)}
}

func Record(key, value *Node) *Node { return &Node{Kind: KindRecord, Key: key, Elem: value} }

func Id(collection string) *Node { return &Node{Kind: KindId, Collection: collection} }

// Optional marks an object field as possibly absent. It must be the
// outermost layer of a field validator.
func Optional(inner *Node) *Node { return &Node{Kind: KindOptional, Elem: inner} }

// Field returns the validator of the named object field.
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

// String renders the tree in a compact constructor notation, for example
// v.optional(v.union(v.string(), v.null())).
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("v.any()")
		return
	}
	b.WriteString("v.")
	b.WriteString(n.Kind.String())
	b.WriteByte('(')
	switch n.Kind {
	case KindLiteral:
		raw, err := json.Marshal(n.Value)
		if err != nil {
			raw = []byte("?")
		}
		b.Write(raw)
	case KindId:
		raw, _ := json.Marshal(n.Collection)
		b.Write(raw)
	case KindUnion:
		for i, m := range n.Members {
			if i > 0 {
				b.WriteString(", ")
			}
			m.write(b)
		}
	case KindArray, KindOptional:
		n.Elem.write(b)
	case KindRecord:
		n.Key.write(b)
		b.WriteString(", ")
		n.Elem.write(b)
	case KindObject:
		b.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Node.write(b)
		}
		b.WriteByte('}')
	}
	b.WriteByte(')')
}

type fieldJSON struct {
	Name string `json:"name"`
	Node *Node  `json:"validator"`
}

type nodeJSON struct {
	Kind       string      `json:"kind"`
	Value      any         `json:"value,omitempty"`
	Members    []*Node     `json:"members,omitempty"`
	Elem       *Node       `json:"element,omitempty"`
	Key        *Node       `json:"key,omitempty"`
	Fields     []fieldJSON `json:"fields,omitempty"`
	Collection string      `json:"tableName,omitempty"`
}

// MarshalJSON renders the tree as {"kind": ..., ...}. Object fields keep
// their declaration order.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte(`{"kind":"any"}`), nil
	}
	out := nodeJSON{
		Kind:       n.Kind.String(),
		Members:    n.Members,
		Elem:       n.Elem,
		Key:        n.Key,
		Collection: n.Collection,
	}
	if n.Kind == KindLiteral {
		out.Value = n.Value
	}
	for _, f := range n.Fields {
		out.Fields = append(out.Fields, fieldJSON{Name: f.Name, Node: f.Node})
	}
	return json.Marshal(out)
}
