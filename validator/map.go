package validator

import (
	"github.com/reoring/skemabridge/schema"
)

// Map translates a schema node, modifiers included, into a validator tree.
//
// Nullable wraps the core as Union(core, Null) and Optional wraps the result,
// so the presence combinator is always the outermost layer. Object fields and
// array elements recurse through Map on their original nodes, so a child's
// own modifiers survive independently of the parent's.
func Map(n *schema.Node) *Node {
	a := schema.Analyze(n)
	core := MapBase(a.Base)
	if a.Nullable && core.Kind != KindNull {
		core = Union(core, Null())
	}
	if a.Optional {
		core = Optional(core)
	}
	return core
}

// MapBase translates only the unwrapped shape of n; modifiers on n itself
// are ignored. It never fails: constructs without a rule map to Any.
func MapBase(n *schema.Node) *Node {
	base := schema.Unwrap(n)
	if base == nil {
		return Any()
	}
	switch base.Kind {
	case schema.KindString:
		return String()
	case schema.KindNumber:
		return Float64()
	case schema.KindBigInt:
		return Int64()
	case schema.KindBoolean:
		return Boolean()
	case schema.KindDate:
		// epoch milliseconds
		return Float64()
	case schema.KindNull:
		return Null()
	case schema.KindLiteral:
		return Literal(base.Value)
	case schema.KindEnum:
		ms := make([]*Node, len(base.Values))
		for i, v := range base.Values {
			ms[i] = Literal(v)
		}
		return Union(ms...)
	case schema.KindUnion, schema.KindDiscriminatedUnion:
		return mapUnion(base.Members)
	case schema.KindArray:
		return Array(Map(base.Elem))
	case schema.KindObject:
		fields := make([]Field, len(base.Fields))
		for i, f := range base.Fields {
			fields[i] = Field{Name: f.Name, Node: Map(f.Node)}
		}
		return Object(fields...)
	case schema.KindRecord:
		return Record(String(), MapBase(base.Elem))
	case schema.KindTuple:
		// No fixed-arity construct on the destination side: any item
		// schema is accepted at any position.
		if len(base.Items) == 0 {
			return Array(Any())
		}
		ms := make([]*Node, len(base.Items))
		for i, it := range base.Items {
			ms[i] = Map(it)
		}
		return Array(Union(ms...))
	case schema.KindIntersection:
		return mapIntersection(base.Left, base.Right)
	case schema.KindIdentifier:
		return Id(base.Collection)
	case schema.KindCustom:
		if base.Inner != nil {
			return Map(base.Inner)
		}
	}
	return Any()
}

// mapUnion maps the non-null members. Null members are dropped because
// nullability is represented by the wrapper step in Map.
func mapUnion(members []*schema.Node) *Node {
	ms := make([]*Node, 0, len(members))
	for _, m := range members {
		if schema.IsNullMember(m) {
			continue
		}
		ms = append(ms, Map(m))
	}
	if len(ms) == 0 {
		return Null()
	}
	return Union(ms...)
}

// mapIntersection merges two object schemas. Keys present on both sides
// become Union(left, right); other keys keep their side's mapping. Left keys
// come first, in declaration order.
func mapIntersection(left, right *schema.Node) *Node {
	l, r := schema.Unwrap(left), schema.Unwrap(right)
	if l == nil || r == nil || l.Kind != schema.KindObject || r.Kind != schema.KindObject {
		return Any()
	}
	fields := make([]Field, 0, len(l.Fields)+len(r.Fields))
	for _, f := range l.Fields {
		mapped := Map(f.Node)
		if other, ok := r.Field(f.Name); ok {
			mapped = Union(mapped, Map(other))
		}
		fields = append(fields, Field{Name: f.Name, Node: mapped})
	}
	for _, f := range r.Fields {
		if _, ok := l.Field(f.Name); ok {
			continue
		}
		fields = append(fields, Field{Name: f.Name, Node: Map(f.Node)})
	}
	return Object(fields...)
}

// MapFields maps each field of an object schema once, keyed by field name.
// Non-object nodes yield nil.
func MapFields(obj *schema.Node) map[string]*Node {
	base := schema.Unwrap(obj)
	if base == nil || base.Kind != schema.KindObject {
		return nil
	}
	out := make(map[string]*Node, len(base.Fields))
	for _, f := range base.Fields {
		out[f.Name] = Map(f.Node)
	}
	return out
}
