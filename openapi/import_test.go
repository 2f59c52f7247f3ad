package openapi_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	"github.com/reoring/skemabridge/openapi"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/table"
)

const petstore = `{
  "openapi": "3.0.3",
  "info": {"title": "pets", "version": "1"},
  "paths": {},
  "components": {
    "schemas": {
      "pets": {
        "type": "object",
        "required": ["name", "tags"],
        "properties": {
          "_id": {"type": "string", "format": "id", "description": "id of pets"},
          "name": {"type": "string"},
          "age": {"type": "integer", "format": "int64", "nullable": true},
          "tags": {"type": "array", "items": {"type": "string"}},
          "kind": {"type": "string", "enum": ["cat", "dog"]},
          "owner": {"$ref": "#/components/schemas/owner"},
          "labels": {"type": "object", "additionalProperties": {"type": "boolean"}}
        }
      },
      "owner": {
        "type": "object",
        "required": ["handle"],
        "properties": {"handle": {"type": "string"}, "since": {"type": "string", "format": "date-time"}}
      },
      "status": {"type": "string"}
    }
  }
}`

func TestImport(t *testing.T) {
	defs, diag, err := openapi.Import([]byte(petstore))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "owner" || defs[1].Name != "pets" {
		t.Fatalf("defs: %+v", defs)
	}
	if len(diag.Warnings) != 1 {
		t.Fatalf("warnings: %v", diag.Warnings)
	}

	pets := defs[1].Schema
	if _, ok := pets.Field(table.KeyID); ok {
		t.Fatalf("system key must be dropped")
	}
	age, _ := pets.Field("age")
	if age.Kind != schema.KindOptional || age.Inner.Kind != schema.KindNullable || age.Inner.Inner.Kind != schema.KindBigInt {
		t.Fatalf("age: %+v", age)
	}
	owner, _ := pets.Field("owner")
	if owner.Kind != schema.KindOptional || owner.Inner.Kind != schema.KindObject {
		t.Fatalf("owner: %+v", owner)
	}
	labels, _ := pets.Field("labels")
	if labels.Inner.Kind != schema.KindRecord || labels.Inner.Elem.Kind != schema.KindBoolean {
		t.Fatalf("labels: %+v", labels)
	}

	desc, err := table.Define("pets", pets)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if _, err := schema.Parse(context.Background(), desc.Schema(), map[string]any{"name": "tama", "tags": []any{}}); err != nil {
		t.Fatalf("parse: %v", err)
	}
}

func TestImport_RoundTripsComponents(t *testing.T) {
	users := table.MustDefine("users", schema.Fields{
		"name":    schema.String(),
		"manager": schema.Identifier("users").Optional(),
	})
	data, err := json.Marshal(openapi.Document("api", "1", users))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	defs, _, err := openapi.Import(data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("defs: %+v", defs)
	}
	mgr, ok := defs[0].Schema.Field("manager")
	if !ok || mgr.Inner.Kind != schema.KindIdentifier || mgr.Inner.Collection != "users" {
		t.Fatalf("manager: %+v", mgr)
	}
	if _, ok := defs[0].Schema.Field(table.KeyCreationTime); ok {
		t.Fatalf("system key must be dropped")
	}
}

func TestImportFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	doc := "components:\n  schemas:\n    notes:\n      type: object\n      properties:\n        body: {type: string}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	defs, _, err := openapi.ImportFile(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	body, ok := defs[0].Schema.Field("body")
	if !ok || body.Kind != schema.KindOptional || body.Inner.Kind != schema.KindString {
		t.Fatalf("body: %+v", body)
	}
}

func TestImportSchema_Unsupported(t *testing.T) {
	n, diag := openapi.ImportSchema(&openapi3.Schema{Type: "file"})
	if n.Kind != schema.KindAny || len(diag.Warnings) != 1 {
		t.Fatalf("got %v %v", n.Kind, diag.Warnings)
	}
}

func TestImport_NoComponents(t *testing.T) {
	if _, _, err := openapi.Import([]byte(`{"openapi":"3.0.3"}`)); err == nil {
		t.Fatalf("expected error")
	}
}
