package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/store/memory"
	"github.com/reoring/skemabridge/validator"
)

var notes = validator.Object(
	validator.Field{Name: "text", Node: validator.String()},
	validator.Field{Name: "pinned", Node: validator.Optional(validator.Boolean())},
)

func TestDB_InsertStampsSystemKeys(t *testing.T) {
	ctx := context.Background()
	at := time.UnixMilli(1700000000000)
	db := memory.New(memory.WithClock(func() time.Time { return at }))
	db.Register("notes", notes)

	src := map[string]any{"text": "hi"}
	id, err := db.Insert(ctx, "notes", src)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, ok := src["_id"]; ok {
		t.Fatalf("caller document must not be mutated")
	}
	doc, _ := db.Get(ctx, "notes", id)
	if doc["_id"] != id || doc["_creationTime"] != float64(1700000000000) {
		t.Fatalf("system keys: %#v", doc)
	}
	doc["text"] = "changed"
	again, _ := db.Get(ctx, "notes", id)
	if again["text"] != "hi" {
		t.Fatalf("Get must return a copy")
	}
}

func TestDB_ValidationAndErrors(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	db.Register("notes", notes)

	_, err := db.Insert(ctx, "notes", map[string]any{"text": "x", "color": "red"})
	iss, ok := sb.AsIssues(err)
	if !ok || iss[0].Code != sb.CodeUnknownKey || iss[0].Path != "/color" {
		t.Fatalf("expected unknown_key at /color, got %v", err)
	}
	id, _ := db.Insert(ctx, "notes", map[string]any{"text": "x"})
	if err := db.Patch(ctx, "notes", id, map[string]any{"pinned": "yes"}); err == nil {
		t.Fatalf("patched document must be validated")
	}
	if err := db.Patch(ctx, "notes", "nope", nil); err == nil {
		t.Fatalf("missing id must be reported")
	}
	if err := db.Delete(ctx, "notes", "nope"); err != nil {
		t.Fatalf("delete of missing id is not an error: %v", err)
	}
	if _, err := db.Get(ctx, "other", id); err == nil {
		t.Fatalf("unregistered table must fail")
	}
}

func TestMutation_Serialized(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	db.Register("counters", validator.Object(validator.Field{Name: "n", Node: validator.Float64()}))
	id, _ := db.Insert(ctx, "counters", map[string]any{"n": 0})

	incr := memory.Mutation(db)(func(ctx context.Context, c crud.MutationCtx, _ map[string]any) (any, error) {
		doc, err := c.DB.Get(ctx, "counters", id)
		if err != nil {
			return nil, err
		}
		return nil, c.DB.Patch(ctx, "counters", id, map[string]any{"n": doc["n"].(int) + 1})
	})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := incr(ctx, nil); err != nil {
				t.Errorf("incr: %v", err)
			}
		}()
	}
	wg.Wait()
	doc, _ := db.Get(ctx, "counters", id)
	if doc["n"] != 50 {
		t.Fatalf("lost updates: %v", doc["n"])
	}
}
