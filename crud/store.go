package crud

import (
	"context"

	"github.com/reoring/skemabridge/internal/values"
)

// Reader is the read-only storage surface handed to query operations.
type Reader interface {
	// Get returns the document or nil when it does not exist.
	Get(ctx context.Context, table, id string) (map[string]any, error)
	Paginate(ctx context.Context, table string, opts PageOptions) (Page, error)
}

// Writer is the storage surface handed to mutations.
type Writer interface {
	Reader
	// Insert stores a new document and returns its id. The backend assigns
	// the system keys.
	Insert(ctx context.Context, table string, doc map[string]any) (string, error)
	// Patch shallow-merges patch into an existing document.
	Patch(ctx context.Context, table, id string, patch map[string]any) error
	// Delete removes a document. A missing id is not an error.
	Delete(ctx context.Context, table, id string) error
}

// QueryCtx is the builder context of read-only operations.
type QueryCtx struct {
	DB Reader
}

// MutationCtx is the builder context of mutations.
type MutationCtx struct {
	DB Writer
}

// PageOptions are the caller-defined pagination arguments. Cursor is opaque;
// the empty cursor starts from the beginning.
type PageOptions struct {
	NumItems int    `json:"numItems"`
	Cursor   string `json:"cursor,omitempty"`
}

// Page is one slice of a paginated listing.
type Page struct {
	Page           []map[string]any `json:"page"`
	IsDone         bool             `json:"isDone"`
	ContinueCursor string           `json:"continueCursor"`
}

// PageOptionsFrom reads {numItems, cursor} from a raw argument value. It is
// deliberately lenient: unknown keys and malformed values are ignored.
func PageOptionsFrom(v any) PageOptions {
	var opts PageOptions
	if po, ok := v.(PageOptions); ok {
		return po
	}
	m, ok := values.Map(v)
	if !ok {
		return opts
	}
	if n, ok := values.Int64(m["numItems"]); ok && n > 0 {
		opts.NumItems = int(n)
	}
	if c, ok := m["cursor"].(string); ok {
		opts.Cursor = c
	}
	return opts
}
