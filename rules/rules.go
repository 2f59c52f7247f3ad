// Package rules provides cross-field document rules that plug into a schema
// as a refinement.
//
//	order := rules.Refine(orderObject,
//	    rules.If("/status", rules.Eq, "shipped").Then(rules.Required("/shippedAt")),
//	    rules.AtLeastOne("/items"),
//	    rules.UniqueBy("/items", "sku"),
//	)
//
// Paths are JSON Pointers relative to the refined object.
package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/i18n"
	"github.com/reoring/skemabridge/internal/values"
	"github.com/reoring/skemabridge/schema"
)

// Rule checks a parsed document. Issue paths are relative to doc.
type Rule func(ctx context.Context, doc map[string]any) sb.Issues

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional composes conditional execution of rules.
type Conditional struct {
	path string
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional that evaluates the value at path against want.
// A missing path never satisfies the condition.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: normalizePath(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Then attaches rules to run when the condition is satisfied.
func (c Conditional) Then(rules ...Rule) Rule {
	all := And(rules...)
	return func(ctx context.Context, doc map[string]any) sb.Issues {
		if !c.eval(doc) {
			return nil
		}
		return all(ctx, doc)
	}
}

func (c Conditional) eval(doc map[string]any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.eval(doc) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.eval(doc) {
				return true
			}
		}
		return false
	}
	cur, ok := valueAt(doc, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Required reports a missing or null value at path.
func Required(path string) Rule {
	p := normalizePath(path)
	return func(_ context.Context, doc map[string]any) sb.Issues {
		if v, ok := valueAt(doc, p); ok && v != nil {
			return nil
		}
		return sb.Issues{{Path: p, Code: sb.CodeRequired, Message: i18n.T(sb.CodeRequired, nil)}}
	}
}

// AtLeastOne ensures the collection at path has at least 1 element. A
// missing or non-collection value is left to the schema.
func AtLeastOne(path string) Rule {
	p := normalizePath(path)
	return func(_ context.Context, doc map[string]any) sb.Issues {
		v, ok := valueAt(doc, p)
		if !ok {
			return nil
		}
		items, ok := values.Slice(v)
		if !ok || len(items) > 0 {
			return nil
		}
		return sb.Issues{{
			Path:    p,
			Code:    sb.CodeTooSmall,
			Message: i18n.T(sb.CodeTooSmall, map[string]string{"min": "1"}),
			Params:  map[string]any{"min": 1},
		}}
	}
}

// UniqueBy ensures elements of the collection at collectionPath have
// distinct values at keyPath (relative to each element, e.g. "sku").
// Keys are compared by their printed form, so keep the key a single type.
func UniqueBy(collectionPath, keyPath string) Rule {
	cp := normalizePath(collectionPath)
	kp := strings.TrimPrefix(keyPath, "/")
	return func(_ context.Context, doc map[string]any) sb.Issues {
		v, ok := valueAt(doc, cp)
		if !ok {
			return nil
		}
		items, ok := values.Slice(v)
		if !ok {
			return nil
		}
		seen := map[string]int{}
		var out sb.Issues
		for i, elem := range items {
			kv, ok := valueWithin(elem, kp)
			if !ok {
				continue
			}
			key := fmt.Sprint(kv)
			if j, dup := seen[key]; dup {
				out = append(out, sb.Issue{
					Path:    join(cp, strconv.Itoa(i), kp),
					Code:    sb.CodeDuplicate,
					Message: i18n.T(sb.CodeDuplicate, map[string]string{"key": key}),
					Params:  map[string]any{"first": j, "dup": i, "key": key},
				})
				continue
			}
			seen[key] = i
		}
		return out
	}
}

// ---------- Rule combinators ----------

// And executes all rules and concatenates their Issues.
func And(rules ...Rule) Rule {
	return func(ctx context.Context, doc map[string]any) sb.Issues {
		var out sb.Issues
		for _, r := range rules {
			if r == nil {
				continue
			}
			out = append(out, r(ctx, doc)...)
		}
		return out
	}
}

// Or succeeds if any rule returns no Issues. When all fail, the branch with
// the fewest Issues is returned.
func Or(rules ...Rule) Rule {
	return func(ctx context.Context, doc map[string]any) sb.Issues {
		var best sb.Issues
		bestSet := false
		for _, r := range rules {
			if r == nil {
				continue
			}
			iss := r(ctx, doc)
			if len(iss) == 0 {
				return nil
			}
			if !bestSet || len(iss) < len(best) {
				best, bestSet = iss, true
			}
		}
		return best
	}
}

// Check adapts rules to a schema check. Non-object values pass.
func Check(rules ...Rule) schema.CheckFunc {
	all := And(rules...)
	return func(ctx context.Context, v any) error {
		doc, ok := values.Map(v)
		if !ok {
			return nil
		}
		if iss := all(ctx, doc); len(iss) > 0 {
			return iss
		}
		return nil
	}
}

// Refine attaches rules to an object schema. The rules see the parsed
// object (defaults applied, unknown keys stripped).
func Refine(obj *schema.Node, rules ...Rule) *schema.Node {
	return schema.Refine(obj, "rules", Check(rules...))
}

// ------- helpers -------

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

func join(parts ...string) string {
	out := strings.TrimSuffix(parts[0], "/")
	for _, p := range parts[1:] {
		if p != "" {
			out += "/" + p
		}
	}
	return out
}

func valueAt(doc map[string]any, pointer string) (any, bool) {
	return valueWithin(doc, strings.TrimPrefix(pointer, "/"))
}

// valueWithin navigates maps and slices by a relative pointer ("a/0/b").
func valueWithin(v any, rel string) (any, bool) {
	if rel == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(rel, "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if m, ok := values.Map(cur); ok {
			next, present := m[seg]
			if !present || schema.IsUndefined(next) {
				return nil, false
			}
			cur = next
			continue
		}
		if items, ok := values.Slice(cur); ok {
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(items) {
				return nil, false
			}
			cur = items[i]
			continue
		}
		return nil, false
	}
	return cur, true
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return values.Equal(cur, want)
	case Ne:
		return !values.Equal(cur, want)
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, op, want)
	}
	return false
}

// compareOrdered supports numbers and times.
func compareOrdered(cur any, op Op, want any) bool {
	var c int
	if a, ok := values.Float64(cur); ok {
		b, ok := values.Float64(want)
		if !ok {
			return false
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else if a, ok := values.Time(cur); ok {
		b, ok := values.Time(want)
		if !ok {
			return false
		}
		c = a.Compare(b)
	} else {
		return false
	}
	switch op {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	return false
}
