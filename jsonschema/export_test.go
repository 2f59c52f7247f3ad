package jsonschema_test

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/reoring/skemabridge/jsonschema"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/validator"
)

func TestFromValidator_Object(t *testing.T) {
	v := validator.Map(schema.Object(
		schema.Field{Name: "name", Node: schema.String()},
		schema.Field{Name: "age", Node: schema.Number().Optional()},
		schema.Field{Name: "role", Node: schema.Enum("admin", "member")},
		schema.Field{Name: "owner", Node: schema.Identifier("users").Nullable()},
	))
	s := jsonschema.Document("profiles", v)
	if s.Type != "object" || s.Title != "profiles" || s.SchemaURI != jsonschema.Draft {
		t.Fatalf("unexpected root: %+v", s)
	}
	if strings.Join(s.Required, ",") != "name,role,owner" {
		t.Fatalf("required: %v", s.Required)
	}
	if s.Properties["age"].Type != "number" {
		t.Fatalf("age: %+v", s.Properties["age"])
	}
	role := s.Properties["role"]
	if len(role.AnyOf) != 2 || *role.AnyOf[0].Const != "admin" {
		t.Fatalf("role: %+v", role)
	}
	owner := s.Properties["owner"]
	if len(owner.AnyOf) != 2 || owner.AnyOf[0].Format != "id" || owner.AnyOf[1].Type != "null" {
		t.Fatalf("owner: %+v", owner)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	js := string(raw)
	for _, want := range []string{`"additionalProperties":false`, `"patternProperties":{"^_":{}}`, `"const":"admin"`} {
		if !strings.Contains(js, want) {
			t.Fatalf("missing %s in %s", want, js)
		}
	}
}

func TestFromValidator_Leaves(t *testing.T) {
	cases := map[string]struct {
		in   *validator.Node
		want string
	}{
		"int64":  {validator.Int64(), `{"type":"integer","format":"int64"}`},
		"null":   {validator.Literal(nil), `{"const":null}`},
		"record": {validator.Record(validator.String(), validator.Boolean()), `{"type":"object","additionalProperties":{"type":"boolean"}}`},
		"array":  {validator.Array(validator.Any()), `{"type":"array","items":{}}`},
		"any":    {validator.Any(), `{}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(jsonschema.FromValidator(tc.in))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(raw) != tc.want {
				t.Fatalf("got %s want %s", raw, tc.want)
			}
		})
	}
}
