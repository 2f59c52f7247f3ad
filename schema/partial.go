package schema

// Partial returns a copy of an object schema whose fields are all optional.
// Fields already wrapped in Optional are kept as they are; fields with a
// Default are wrapped too, so an absent key stays absent instead of receiving
// the default. Non-object nodes are returned unchanged.
func Partial(obj *Node) *Node {
	if obj == nil || obj.Kind != KindObject {
		return obj
	}
	fields := make([]Field, len(obj.Fields))
	for i, f := range obj.Fields {
		if f.Node != nil && f.Node.Kind == KindOptional {
			fields[i] = f
			continue
		}
		fields[i] = Field{Name: f.Name, Node: Optional(f.Node)}
	}
	return &Node{Kind: KindObject, Fields: fields}
}

// Omit returns a copy of an object schema without the named fields.
func Omit(obj *Node, names ...string) *Node {
	if obj == nil || obj.Kind != KindObject {
		return obj
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	fields := make([]Field, 0, len(obj.Fields))
	for _, f := range obj.Fields {
		if _, ok := drop[f.Name]; ok {
			continue
		}
		fields = append(fields, f)
	}
	return &Node{Kind: KindObject, Fields: fields}
}

// Extend returns a copy of an object schema with extra fields appended.
// Extra fields replace existing fields of the same name in place.
func Extend(obj *Node, extra ...Field) *Node {
	if obj == nil || obj.Kind != KindObject {
		return obj
	}
	fields := append([]Field(nil), obj.Fields...)
	for _, e := range extra {
		replaced := false
		for i := range fields {
			if fields[i].Name == e.Name {
				fields[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			fields = append(fields, e)
		}
	}
	return &Node{Kind: KindObject, Fields: fields}
}
