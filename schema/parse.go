package schema

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/i18n"
	"github.com/reoring/skemabridge/internal/values"
)

// Parse validates v against n and returns the parsed value: unknown object
// keys are stripped, absent values under Default are filled, and object
// fields that parse to Undefined are omitted. Failures are returned as
// skemabridge.Issues carrying JSON Pointer paths.
func Parse(ctx context.Context, n *Node, v any) (any, error) {
	out, iss := parse(ctx, n, v, sb.Root())
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// Validate reports whether v satisfies n without returning the parsed value.
func Validate(ctx context.Context, n *Node, v any) error {
	_, err := Parse(ctx, n, v)
	return err
}

func typeIssue(p sb.PathRef, expected string, v any) sb.Issues {
	received := values.TypeName(v)
	if IsUndefined(v) {
		return sb.Issues{p.Issue(sb.CodeRequired, i18n.T(sb.CodeRequired, nil), "expected", expected)}
	}
	msg := i18n.T(sb.CodeInvalidType, map[string]string{"expected": expected, "received": received})
	return sb.Issues{p.Issue(sb.CodeInvalidType, msg, "expected", expected, "received", received)}
}

func parse(ctx context.Context, n *Node, v any, p sb.PathRef) (any, sb.Issues) {
	if n == nil {
		return v, nil
	}
	switch n.Kind {
	case KindOptional:
		if IsUndefined(v) {
			return Undefined, nil
		}
		return parse(ctx, n.Inner, v, p)
	case KindNullable:
		if v == nil {
			return nil, nil
		}
		return parse(ctx, n.Inner, v, p)
	case KindDefault:
		if IsUndefined(v) {
			return parse(ctx, n.Inner, n.Value, p)
		}
		return parse(ctx, n.Inner, v, p)
	case KindAny, KindInvalid:
		return v, nil
	case KindCustom:
		if n.Inner != nil {
			out, iss := parse(ctx, n.Inner, v, p)
			if len(iss) > 0 {
				return nil, iss
			}
			v = out
		}
		if n.Check == nil {
			return v, nil
		}
		if err := n.Check(ctx, v); err != nil {
			if child, ok := sb.AsIssues(err); ok {
				return nil, child.Rebase(p.Pointer())
			}
			return nil, sb.Issues{p.Issue(sb.CodeCustom, err.Error(), "check", n.Name)}
		}
		return v, nil
	}

	if IsUndefined(v) {
		return nil, typeIssue(p, n.Kind.String(), v)
	}

	switch n.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return nil, typeIssue(p, "string", v)
		}
		return v, nil
	case KindNumber:
		if !values.IsNumber(v) {
			return nil, typeIssue(p, "number", v)
		}
		return v, nil
	case KindBigInt:
		if _, ok := v.(*big.Int); ok || isGoInteger(v) {
			return v, nil
		}
		return nil, typeIssue(p, "bigint", v)
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return nil, typeIssue(p, "boolean", v)
		}
		return v, nil
	case KindDate:
		t, ok := values.Time(v)
		if !ok {
			return nil, typeIssue(p, "date", v)
		}
		return t, nil
	case KindNull:
		if v != nil {
			return nil, typeIssue(p, "null", v)
		}
		return nil, nil
	case KindLiteral:
		if !values.Equal(n.Value, v) {
			exp := fmt.Sprintf("%v", n.Value)
			return nil, sb.Issues{p.Issue(sb.CodeInvalidLiteral, i18n.T(sb.CodeInvalidLiteral, map[string]string{"expected": exp}), "expected", n.Value)}
		}
		return v, nil
	case KindEnum:
		for _, want := range n.Values {
			if values.Equal(want, v) {
				return v, nil
			}
		}
		return nil, sb.Issues{p.Issue(sb.CodeInvalidEnum, i18n.T(sb.CodeInvalidEnum, map[string]string{"expected": joinValues(n.Values)}), "options", n.Values)}
	case KindIdentifier:
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, typeIssue(p, "id<"+n.Collection+">", v)
		}
		return v, nil
	case KindArray:
		items, ok := values.Slice(v)
		if !ok {
			return nil, typeIssue(p, "array", v)
		}
		return parseList(ctx, items, func(int) *Node { return n.Elem }, p)
	case KindTuple:
		items, ok := values.Slice(v)
		if !ok {
			return nil, typeIssue(p, "tuple", v)
		}
		if len(items) < len(n.Items) {
			return nil, sb.Issues{p.Issue(sb.CodeTooSmall, i18n.T(sb.CodeTooSmall, map[string]string{"min": fmt.Sprint(len(n.Items))}), "min", len(n.Items))}
		}
		if len(items) > len(n.Items) {
			return nil, sb.Issues{p.Issue(sb.CodeTooBig, i18n.T(sb.CodeTooBig, map[string]string{"max": fmt.Sprint(len(n.Items))}), "max", len(n.Items))}
		}
		return parseList(ctx, items, func(i int) *Node { return n.Items[i] }, p)
	case KindObject:
		m, ok := values.Map(v)
		if !ok {
			return nil, typeIssue(p, "object", v)
		}
		return parseObject(ctx, n, m, p)
	case KindRecord:
		m, ok := values.Map(v)
		if !ok {
			return nil, typeIssue(p, "record", v)
		}
		out := make(map[string]any, len(m))
		var iss sb.Issues
		for _, k := range sortedKeys(m) {
			pv, i2 := parse(ctx, n.Elem, m[k], p.Field(k))
			if len(i2) > 0 {
				iss = sb.AppendIssues(iss, i2...)
				continue
			}
			if !IsUndefined(pv) {
				out[k] = pv
			}
		}
		if len(iss) > 0 {
			return nil, iss
		}
		return out, nil
	case KindUnion:
		for _, m := range n.Members {
			if out, iss := parse(ctx, m, v, p); len(iss) == 0 {
				return out, nil
			}
		}
		return nil, sb.Issues{p.Issue(sb.CodeInvalidUnion, i18n.T(sb.CodeInvalidUnion, nil), "received", values.TypeName(v))}
	case KindDiscriminatedUnion:
		return parseDiscriminated(ctx, n, v, p)
	case KindIntersection:
		return parseIntersection(ctx, n, v, p)
	}
	return v, nil
}

func parseList(ctx context.Context, items []any, elem func(int) *Node, p sb.PathRef) (any, sb.Issues) {
	out := make([]any, len(items))
	var iss sb.Issues
	for i, it := range items {
		pv, i2 := parse(ctx, elem(i), it, p.Index(i))
		if len(i2) > 0 {
			iss = sb.AppendIssues(iss, i2...)
			continue
		}
		out[i] = pv
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func parseObject(ctx context.Context, n *Node, m map[string]any, p sb.PathRef) (any, sb.Issues) {
	out := make(map[string]any, len(n.Fields))
	var iss sb.Issues
	for _, f := range n.Fields {
		raw, present := m[f.Name]
		if !present {
			raw = Undefined
		}
		pv, i2 := parse(ctx, f.Node, raw, p.Field(f.Name))
		if len(i2) > 0 {
			iss = sb.AppendIssues(iss, i2...)
			continue
		}
		if !IsUndefined(pv) {
			out[f.Name] = pv
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func parseDiscriminated(ctx context.Context, n *Node, v any, p sb.PathRef) (any, sb.Issues) {
	m, ok := values.Map(v)
	if !ok {
		return nil, typeIssue(p, "object", v)
	}
	tag, present := m[n.Discriminator]
	if !present {
		return nil, sb.Issues{p.Field(n.Discriminator).Issue(sb.CodeRequired, i18n.T(sb.CodeRequired, nil))}
	}
	var options []any
	for _, member := range n.Members {
		base := Unwrap(member)
		field, ok := base.Field(n.Discriminator)
		if !ok {
			continue
		}
		for _, want := range tagValues(field) {
			options = append(options, want)
			if values.Equal(want, tag) {
				return parse(ctx, member, v, p)
			}
		}
	}
	return nil, sb.Issues{p.Field(n.Discriminator).Issue(sb.CodeInvalidUnion, i18n.T(sb.CodeInvalidUnion, nil), "options", options)}
}

// tagValues lists the discriminator values a member field accepts.
func tagValues(n *Node) []any {
	base := Unwrap(n)
	if base == nil {
		return nil
	}
	switch base.Kind {
	case KindLiteral:
		return []any{base.Value}
	case KindEnum:
		return base.Values
	}
	return nil
}

func parseIntersection(ctx context.Context, n *Node, v any, p sb.PathRef) (any, sb.Issues) {
	left, iss := parse(ctx, n.Left, v, p)
	right, iss2 := parse(ctx, n.Right, v, p)
	if len(iss)+len(iss2) > 0 {
		return nil, sb.AppendIssues(iss, iss2...)
	}
	lm, lok := left.(map[string]any)
	rm, rok := right.(map[string]any)
	if lok && rok {
		out := make(map[string]any, len(lm)+len(rm))
		for k, val := range lm {
			out[k] = val
		}
		for k, val := range rm {
			out[k] = val
		}
		return out, nil
	}
	if values.Equal(left, right) {
		return left, nil
	}
	return nil, typeIssue(p, "intersection", v)
}

func isGoInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func joinValues(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
