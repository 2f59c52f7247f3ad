package httpapi_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/fnwrap"
	"github.com/reoring/skemabridge/httpapi"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/store/memory"
	"github.com/reoring/skemabridge/table"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	profiles := table.MustDefine("profiles", schema.Fields{
		"name":   schema.String(),
		"age":    schema.Number().Optional(),
		"joined": schema.Date(),
	})
	db := memory.New()
	db.RegisterTable(profiles)
	ops := crud.Generate(profiles, memory.Query(db), memory.Mutation(db))
	srv := httptest.NewServer(httpapi.Router(zerolog.Nop(), ops))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return resp.StatusCode, m, string(raw)
}

func TestRouter_CRUD(t *testing.T) {
	srv := newServer(t)
	base := srv.URL + "/profiles"

	status, _, raw := do(t, http.MethodPost, base, `{"name":"Ada","joined":1709296215123}`)
	if status != http.StatusOK {
		t.Fatalf("create: %d %s", status, raw)
	}
	var id string
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id == "" {
		t.Fatalf("create must respond with the id: %s", raw)
	}

	status, doc, raw := do(t, http.MethodGet, base+"/"+id, "")
	if status != http.StatusOK || doc["name"] != "Ada" || doc["joined"] != float64(1709296215123) {
		t.Fatalf("read: %d %s", status, raw)
	}

	status, _, raw = do(t, http.MethodPatch, base+"/"+id, `{"age":36}`)
	if status != http.StatusOK {
		t.Fatalf("update: %d %s", status, raw)
	}
	_, doc, _ = do(t, http.MethodGet, base+"/"+id, "")
	if doc["age"] != float64(36) || doc["name"] != "Ada" {
		t.Fatalf("patched: %v", doc)
	}

	status, page, raw := do(t, http.MethodGet, base+"?numItems=10", "")
	if status != http.StatusOK || page["isDone"] != true || len(page["page"].([]any)) != 1 {
		t.Fatalf("paginate: %d %s", status, raw)
	}

	status, _, raw = do(t, http.MethodDelete, base+"/"+id, "")
	if status != http.StatusOK || !strings.Contains(raw, `"Ada"`) {
		t.Fatalf("destroy: %d %s", status, raw)
	}
	if status, _, _ := do(t, http.MethodGet, base+"/"+id, ""); status != http.StatusNotFound {
		t.Fatalf("read after destroy: %d", status)
	}
}

func TestRouter_Errors(t *testing.T) {
	srv := newServer(t)
	base := srv.URL + "/profiles"

	status, body, raw := do(t, http.MethodPost, base, `{"name":1}`)
	if status != http.StatusBadRequest || body["error"] != fnwrap.KindArgumentValidation {
		t.Fatalf("invalid create: %d %s", status, raw)
	}
	report := body["report"].(map[string]any)["fieldErrors"].(map[string]any)
	if _, ok := report["name"]; !ok {
		t.Fatalf("report must name the field: %s", raw)
	}

	if status, _, raw := do(t, http.MethodPost, base, `[1]`); status != http.StatusBadRequest {
		t.Fatalf("non-object body: %d %s", status, raw)
	}
	if status, _, raw := do(t, http.MethodPatch, base+"/missing", `{"age":1}`); status != http.StatusNotFound {
		t.Fatalf("update missing: %d %s", status, raw)
	}
	if status, _, raw := do(t, http.MethodGet, base+"?numItems=x", ""); status != http.StatusBadRequest {
		t.Fatalf("bad numItems: %d %s", status, raw)
	}
}

func TestErrorPayload(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"return", &fnwrap.ReturnValidationError{Operation: "x"}, http.StatusInternalServerError},
		{"issues", sb.Issues{{Path: "/a", Code: sb.CodeInvalidType}}, http.StatusUnprocessableEntity},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := httpapi.ErrorPayload(tt.err); got != tt.want {
				t.Fatalf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
