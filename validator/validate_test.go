package validator_test

import (
	"math/big"
	"testing"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/validator"
)

func TestValidate_Document(t *testing.T) {
	doc := validator.Map(schema.Object(
		schema.Field{Name: "name", Node: schema.String()},
		schema.Field{Name: "age", Node: schema.Number().Optional()},
		schema.Field{Name: "joined", Node: schema.Date()},
		schema.Field{Name: "owner", Node: schema.Identifier("users").Nullable()},
		schema.Field{Name: "score", Node: schema.BigInt()},
	))

	ok := map[string]any{
		"_id":           "p1",
		"_creationTime": int64(1),
		"name":          "Ada",
		"joined":        int64(1700000000000),
		"owner":         nil,
		"score":         big.NewInt(9),
	}
	if err := validator.Validate(doc, ok); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	bad := map[string]any{"name": 1, "joined": "yesterday", "score": 1.5, "extra": true}
	err := validator.Validate(doc, bad)
	iss, isIssues := sb.AsIssues(err)
	if !isIssues {
		t.Fatalf("expected Issues, got %v", err)
	}
	codes := map[string]string{}
	for _, it := range iss {
		codes[it.Path] = it.Code
	}
	want := map[string]string{
		"/name":   sb.CodeInvalidType,
		"/joined": sb.CodeInvalidType,
		"/owner":  sb.CodeRequired,
		"/score":  sb.CodeInvalidType,
		"/extra":  sb.CodeUnknownKey,
	}
	for p, c := range want {
		if codes[p] != c {
			t.Fatalf("path %s: got %q want %q (all: %v)", p, codes[p], c, iss)
		}
	}
}

func TestValidate_ContainersAndUnions(t *testing.T) {
	n := validator.Object(
		validator.Field{Name: "tags", Node: validator.Array(validator.String())},
		validator.Field{Name: "meta", Node: validator.Record(validator.String(), validator.Float64())},
		validator.Field{Name: "kind", Node: validator.Union(validator.Literal("a"), validator.Literal("b"))},
	)
	if err := validator.Validate(n, map[string]any{
		"tags": []any{"x"},
		"meta": map[string]any{"k": 1.5},
		"kind": "b",
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := validator.Validate(n, map[string]any{
		"tags": []any{"x", 2},
		"meta": map[string]any{"k": "v"},
		"kind": "c",
	})
	iss, _ := sb.AsIssues(err)
	if len(iss) != 3 {
		t.Fatalf("expected 3 issues, got %v", iss)
	}
	if iss[0].Path != "/tags/1" || iss[1].Path != "/meta/k" || iss[2].Code != sb.CodeInvalidUnion {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestValidate_AnyAndNil(t *testing.T) {
	if err := validator.Validate(validator.Any(), map[string]any{"x": 1}); err != nil {
		t.Fatalf("any accepts all: %v", err)
	}
	if err := validator.Validate(nil, 1); err != nil {
		t.Fatalf("nil validator accepts all: %v", err)
	}
}
