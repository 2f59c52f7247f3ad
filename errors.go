package skemabridge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Issue codes shared by the schema parser and the destination validator.
const (
	CodeInvalidType    = "invalid_type"
	CodeRequired       = "required"
	CodeInvalidLiteral = "invalid_literal"
	CodeInvalidEnum    = "invalid_enum"
	CodeInvalidUnion   = "invalid_union"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeUnknownKey     = "unknown_key"
	CodeCustom         = "custom"
	CodeDuplicate      = "duplicate"
	// Storage-side codes reported by the reference backends.
	CodeNotFound = "not_found"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	// Params carries structured parameters (e.g., {"expected":"string","received":"number"}).
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Rebase prefixes every issue path with base, which must itself be a JSON
// Pointer. Child issues reported at "/" land exactly on base.
func (iss Issues) Rebase(base string) Issues {
	if base == "" || base == "/" {
		return iss
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// Flattened is the machine-parseable report built from Issues: root-level
// messages go to FormErrors, everything else is keyed by dotted field path.
type Flattened struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Flatten groups issue messages by field path. Paths are rendered with dots
// ("address/city" becomes "address.city").
func (iss Issues) Flatten() Flattened {
	out := Flattened{FormErrors: []string{}, FieldErrors: map[string][]string{}}
	for _, it := range iss {
		key := DottedPath(it.Path)
		if key == "" {
			out.FormErrors = append(out.FormErrors, it.Message)
			continue
		}
		out.FieldErrors[key] = append(out.FieldErrors[key], it.Message)
	}
	return out
}

// Fields returns the flattened field paths in sorted order.
func (f Flattened) Fields() []string {
	keys := make([]string, 0, len(f.FieldErrors))
	for k := range f.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
