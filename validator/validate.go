package validator

import (
	"fmt"
	"sort"
	"strings"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/i18n"
	"github.com/reoring/skemabridge/internal/values"
	"github.com/reoring/skemabridge/schema"
)

// SystemKeyPrefix marks keys managed by the storage backend (_id,
// _creationTime). Object validators accept them without declaring them.
const SystemKeyPrefix = "_"

// Validate checks a wire document against a validator tree, the way a
// storage backend does before writing. Unlike schema.Parse it never rewrites
// the value: unknown keys are rejected rather than stripped and nothing is
// defaulted.
func Validate(n *Node, v any) error {
	if iss := validate(n, v, sb.Root()); len(iss) > 0 {
		return iss
	}
	return nil
}

func mismatch(p sb.PathRef, expected string, v any) sb.Issues {
	if schema.IsUndefined(v) {
		return sb.Issues{p.Issue(sb.CodeRequired, i18n.T(sb.CodeRequired, nil), "expected", expected)}
	}
	received := values.TypeName(v)
	msg := i18n.T(sb.CodeInvalidType, map[string]string{"expected": expected, "received": received})
	return sb.Issues{p.Issue(sb.CodeInvalidType, msg, "expected", expected, "received", received)}
}

func validate(n *Node, v any, p sb.PathRef) sb.Issues {
	if n == nil {
		return nil
	}
	if n.Kind == KindOptional {
		if schema.IsUndefined(v) {
			return nil
		}
		return validate(n.Elem, v, p)
	}
	if n.Kind == KindAny {
		return nil
	}
	if schema.IsUndefined(v) {
		return mismatch(p, n.Kind.String(), v)
	}

	switch n.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return mismatch(p, "string", v)
		}
	case KindFloat64:
		if !values.IsNumber(v) {
			return mismatch(p, "float64", v)
		}
	case KindInt64:
		if _, ok := values.Int64(v); !ok {
			return mismatch(p, "int64", v)
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return mismatch(p, "boolean", v)
		}
	case KindNull:
		if v != nil {
			return mismatch(p, "null", v)
		}
	case KindLiteral:
		if !values.Equal(n.Value, v) {
			exp := fmt.Sprintf("%v", n.Value)
			return sb.Issues{p.Issue(sb.CodeInvalidLiteral, i18n.T(sb.CodeInvalidLiteral, map[string]string{"expected": exp}), "expected", n.Value)}
		}
	case KindId:
		if s, ok := v.(string); !ok || s == "" {
			return mismatch(p, "id<"+n.Collection+">", v)
		}
	case KindUnion:
		for _, m := range n.Members {
			if len(validate(m, v, p)) == 0 {
				return nil
			}
		}
		return sb.Issues{p.Issue(sb.CodeInvalidUnion, i18n.T(sb.CodeInvalidUnion, nil), "received", values.TypeName(v))}
	case KindArray:
		items, ok := values.Slice(v)
		if !ok {
			return mismatch(p, "array", v)
		}
		var iss sb.Issues
		for i, it := range items {
			iss = append(iss, validate(n.Elem, it, p.Index(i))...)
		}
		return iss
	case KindObject:
		m, ok := values.Map(v)
		if !ok {
			return mismatch(p, "object", v)
		}
		return validateObject(n, m, p)
	case KindRecord:
		m, ok := values.Map(v)
		if !ok {
			return mismatch(p, "record", v)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var iss sb.Issues
		for _, k := range keys {
			iss = append(iss, validate(n.Key, k, p.Field(k))...)
			iss = append(iss, validate(n.Elem, m[k], p.Field(k))...)
		}
		return iss
	}
	return nil
}

func validateObject(n *Node, m map[string]any, p sb.PathRef) sb.Issues {
	var iss sb.Issues
	declared := make(map[string]struct{}, len(n.Fields))
	for _, f := range n.Fields {
		declared[f.Name] = struct{}{}
		raw, present := m[f.Name]
		if !present {
			raw = schema.Undefined
		}
		iss = append(iss, validate(f.Node, raw, p.Field(f.Name))...)
	}
	extra := make([]string, 0)
	for k := range m {
		if _, ok := declared[k]; ok || strings.HasPrefix(k, SystemKeyPrefix) {
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		iss = append(iss, p.Field(k).Issue(sb.CodeUnknownKey, i18n.T(sb.CodeUnknownKey, nil)))
	}
	return iss
}
