// Package docstore holds the document helpers shared by the reference
// storage backends.
package docstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/i18n"
	"github.com/reoring/skemabridge/table"
	"github.com/reoring/skemabridge/validator"
)

// DefaultPageSize is used when PageOptions.NumItems is not positive.
const DefaultPageSize = 100

// NewID returns a fresh document id.
func NewID() string { return uuid.New().String() }

// Stamp returns a copy of doc carrying the system keys.
func Stamp(doc map[string]any, id string, now time.Time) map[string]any {
	out := Clone(doc)
	out[table.KeyID] = id
	out[table.KeyCreationTime] = float64(now.UnixMilli())
	return out
}

// Merge returns a copy of doc with the keys of patch applied. System keys in
// patch are ignored.
func Merge(doc, patch map[string]any) map[string]any {
	out := Clone(doc)
	for k, v := range patch {
		if k == table.KeyID || k == table.KeyCreationTime {
			continue
		}
		out[k] = v
	}
	return out
}

// Check validates a document against the registered validator. A nil
// validator accepts everything.
func Check(tbl string, v *validator.Node, doc map[string]any) error {
	if v == nil {
		return nil
	}
	if err := validator.Validate(v, doc); err != nil {
		return fmt.Errorf("table %s: document rejected: %w", tbl, err)
	}
	return nil
}

// NotFound reports a missing document as an Issues error with code
// not_found at /id.
func NotFound(tbl, id string) error {
	return sb.Issues{sb.Root().Field("id").Issue(sb.CodeNotFound, i18n.T(sb.CodeNotFound, nil), "table", tbl, "id", id)}
}

// EncodeCursor and DecodeCursor turn an insertion sequence number into an
// opaque cursor and back. The empty cursor is sequence zero.
func EncodeCursor(seq int64) string { return strconv.FormatInt(seq, 36) }

func DecodeCursor(c string) (int64, error) {
	if c == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(c, 36, 64)
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("invalid cursor %q", c)
	}
	return seq, nil
}

// PageSize applies DefaultPageSize.
func PageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}

// Clone deep-copies maps and slices of a document. Scalars are shared.
func Clone(doc map[string]any) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = cloneValue(it)
		}
		return out
	}
	return v
}
