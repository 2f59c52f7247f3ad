// Package table binds a named object schema to its derived validators and
// codec. Descriptors are computed once at definition time and are read-only
// afterwards, so they can be shared across goroutines without locking.
package table

import (
	"fmt"

	"github.com/reoring/skemabridge/codec"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/validator"
)

// System-managed document keys. They are assigned by the storage backend and
// never accepted from callers on create.
const (
	KeyID           = "_id"
	KeyCreationTime = "_creationTime"
)

// SystemKeys lists the system-managed keys.
var SystemKeys = []string{KeyID, KeyCreationTime}

// Descriptor is the immutable bundle {name, schema, validators, codec} for
// one collection.
type Descriptor struct {
	name       string
	schema     *schema.Node
	validators map[string]*validator.Node
	document   *validator.Node
	codec      *codec.Codec

	createSchema  *schema.Node
	partialSchema *schema.Node
	partialCodec  *codec.Codec
}

// Define builds a Descriptor from either a root Object node or a
// schema.Fields mapping.
func Define[S *schema.Node | schema.Fields](name string, s S) (*Descriptor, error) {
	var obj *schema.Node
	switch t := any(s).(type) {
	case *schema.Node:
		obj = t
	case schema.Fields:
		obj = t.Object()
	}
	if name == "" {
		return nil, fmt.Errorf("table: empty name")
	}
	if obj == nil || obj.Kind != schema.KindObject {
		return nil, fmt.Errorf("table %s: schema must be an object", name)
	}

	fields := make([]validator.Field, len(obj.Fields))
	vs := make(map[string]*validator.Node, len(obj.Fields))
	for i, f := range obj.Fields {
		mapped := validator.Map(f.Node)
		fields[i] = validator.Field{Name: f.Name, Node: mapped}
		vs[f.Name] = mapped
	}
	create := schema.Omit(obj, SystemKeys...)
	partial := schema.Partial(create)
	return &Descriptor{
		name:          name,
		schema:        obj,
		validators:    vs,
		document:      validator.Object(fields...),
		codec:         codec.New(obj),
		createSchema:  create,
		partialSchema: partial,
		partialCodec:  codec.New(partial),
	}, nil
}

// MustDefine is like Define but panics on error. Intended for package-level
// table declarations.
func MustDefine[S *schema.Node | schema.Fields](name string, s S) *Descriptor {
	d, err := Define(name, s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Descriptor) Name() string { return d.name }

// Schema returns the root object schema as declared.
func (d *Descriptor) Schema() *schema.Node { return d.schema }

// Validators returns the mapped validator of every field, keyed by name. The
// returned map is a copy.
func (d *Descriptor) Validators() map[string]*validator.Node {
	out := make(map[string]*validator.Node, len(d.validators))
	for k, v := range d.validators {
		out[k] = v
	}
	return out
}

// Validator returns the mapped validator of one field.
func (d *Descriptor) Validator(field string) (*validator.Node, bool) {
	v, ok := d.validators[field]
	return v, ok
}

// Document returns the Object validator for a whole stored document, fields
// in declaration order.
func (d *Descriptor) Document() *validator.Node { return d.document }

// Codec returns the codec bound to the root schema.
func (d *Descriptor) Codec() *codec.Codec { return d.codec }

// CreateSchema is the root schema without system-managed keys.
func (d *Descriptor) CreateSchema() *schema.Node { return d.createSchema }

// Partial is CreateSchema with every field optional. Absent keys stay absent:
// defaults are not applied through it.
func (d *Descriptor) Partial() *schema.Node { return d.partialSchema }

// PartialCodec is the codec bound to Partial.
func (d *Descriptor) PartialCodec() *codec.Codec { return d.partialCodec }
