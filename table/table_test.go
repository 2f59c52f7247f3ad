package table_test

import (
	"testing"

	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/table"
	"github.com/reoring/skemabridge/validator"
)

func TestDefine_FromFields(t *testing.T) {
	d, err := table.Define("profiles", schema.Fields{
		"name":   schema.String(),
		"age":    schema.Number().Optional(),
		"joined": schema.Date(),
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if d.Name() != "profiles" {
		t.Fatalf("name: %s", d.Name())
	}
	if got := d.Schema().FieldNames(); len(got) != 3 || got[0] != "age" {
		t.Fatalf("fields must be normalized in sorted order: %v", got)
	}
	vs := d.Validators()
	if vs["age"].String() != "v.optional(v.float64())" || vs["joined"].String() != "v.float64()" {
		t.Fatalf("unexpected validators: %v", vs)
	}
	// Validators hands out a copy.
	delete(vs, "age")
	if _, ok := d.Validator("age"); !ok {
		t.Fatalf("descriptor mutated through Validators()")
	}
	want := "v.object({age: v.optional(v.float64()), joined: v.float64(), name: v.string()})"
	if got := d.Document().String(); got != want {
		t.Fatalf("document: got %s want %s", got, want)
	}
	if d.Codec().Schema() != d.Schema() {
		t.Fatalf("codec must be bound to the root schema")
	}
}

func TestDefine_ObjectAndSystemKeys(t *testing.T) {
	obj := schema.Object(
		schema.Field{Name: "_id", Node: schema.Identifier("profiles")},
		schema.Field{Name: "name", Node: schema.String()},
		schema.Field{Name: "active", Node: schema.Boolean().Default(true)},
	)
	d := table.MustDefine("profiles", obj)
	if _, ok := d.CreateSchema().Field("_id"); ok {
		t.Fatalf("system keys must be stripped from the create schema")
	}
	if v, _ := d.Validator("_id"); v.Kind != validator.KindId {
		t.Fatalf("declared _id still maps: %v", v)
	}
	for _, name := range d.Partial().FieldNames() {
		n, _ := d.Partial().Field(name)
		if n.Kind != schema.KindOptional {
			t.Fatalf("partial field %s not optional", name)
		}
	}
	if d.PartialCodec().Schema() != d.Partial() {
		t.Fatalf("partial codec mismatch")
	}
}

func TestDefine_Errors(t *testing.T) {
	if _, err := table.Define("x", schema.String()); err == nil {
		t.Fatalf("non-object schema must be rejected")
	}
	if _, err := table.Define("", schema.Fields{}); err == nil {
		t.Fatalf("empty name must be rejected")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("MustDefine should panic")
		}
	}()
	table.MustDefine("x", schema.Array(schema.String()))
}
