// Package fnwrap wraps handler functions in a five-stage call pipeline:
//
//	Augment -> ValidateArgs -> Handle -> ValidateReturn -> Encode
//
// Each stage is terminal on failure and nothing is retried. A raw builder,
// supplied by the storage collaborator, turns the resulting function into a
// registered Operation and provides the base context B; an Augmenter derives
// the handler context C from it.
package fnwrap

import (
	"context"
	"time"

	"github.com/reoring/skemabridge/codec"
	"github.com/reoring/skemabridge/schema"
)

// Operation is a registered function: raw arguments in, wire value out.
type Operation func(ctx context.Context, args map[string]any) (any, error)

// RawFunc is what a raw builder registers. base is the builder's own
// context (database handle and so on).
type RawFunc[B any] func(ctx context.Context, base B, args map[string]any) (any, error)

// RawBuilder turns a RawFunc into an Operation. Concurrency control, if any,
// belongs to the builder.
type RawBuilder[B any] func(fn RawFunc[B]) Operation

// Augmenter derives the handler context from the builder context. customArgs
// holds the values of the keys declared with WithCustomArgs; extra is the
// static Spec.Extra configuration. Errors are returned to the caller as is.
type Augmenter[B, C any] func(ctx context.Context, base B, customArgs, extra map[string]any) (C, error)

// NoOp passes the builder context through unchanged.
func NoOp[B any]() Augmenter[B, B] {
	return func(_ context.Context, base B, _, _ map[string]any) (B, error) {
		return base, nil
	}
}

// Chain composes two augmenters left to right. The second sees the context
// produced by the first, so every layer adds a statically typed delta.
func Chain[A, B, C any](first Augmenter[A, B], next Augmenter[B, C]) Augmenter[A, C] {
	return func(ctx context.Context, base A, customArgs, extra map[string]any) (C, error) {
		mid, err := first(ctx, base, customArgs, extra)
		if err != nil {
			var zero C
			return zero, err
		}
		return next(ctx, mid, customArgs, extra)
	}
}

// Handler is the user function behind an Operation. args has been validated
// against Spec.Args when one is declared.
type Handler[C any] func(ctx context.Context, c C, args map[string]any) (any, error)

// Spec describes one wrapped operation.
type Spec[C any] struct {
	Name string
	// Args is an object schema for the call arguments. Keys it does not
	// declare are ignored. nil skips validation.
	Args *schema.Node
	// Returns validates and encodes the handler result. nil returns the
	// result unchanged.
	Returns *schema.Node
	// Extra is static configuration handed to the augmenter.
	Extra   map[string]any
	Handler Handler[C]
}

type options struct {
	customArgs *schema.Node
	observers  []Observer
}

// Option configures MakeCustomBuilder.
type Option func(*options)

// WithCustomArgs declares argument keys consumed by the augmenter. They are
// validated against obj, passed as customArgs and removed from the
// arguments seen by the handler.
func WithCustomArgs(obj *schema.Node) Option {
	return func(o *options) { o.customArgs = obj }
}

// WithObserver registers an observer notified once per call.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Builder wraps Specs into Operations. It holds no per-call state.
type Builder[B, C any] struct {
	raw  RawBuilder[B]
	aug  Augmenter[B, C]
	opts options
}

// MakeCustomBuilder returns a Builder combining a raw builder with an
// augmenter.
func MakeCustomBuilder[B, C any](raw RawBuilder[B], aug Augmenter[B, C], opts ...Option) *Builder[B, C] {
	b := &Builder[B, C]{raw: raw, aug: aug}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

// Wrap registers spec through the raw builder.
func (b *Builder[B, C]) Wrap(spec Spec[C]) Operation {
	return b.raw(func(ctx context.Context, base B, raw map[string]any) (any, error) {
		start := time.Now()
		stage, out, err := b.call(ctx, spec, base, raw)
		b.notify(Event{Operation: spec.Name, Stage: stage, Err: err, Duration: time.Since(start)})
		return out, err
	})
}

func (b *Builder[B, C]) call(ctx context.Context, spec Spec[C], base B, raw map[string]any) (Stage, any, error) {
	custom, rest := b.splitCustomArgs(raw)
	if b.opts.customArgs != nil {
		parsed, err := schema.Parse(ctx, b.opts.customArgs, custom)
		if err != nil {
			return StageAugment, nil, newArgumentError(spec.Name, err)
		}
		custom, _ = parsed.(map[string]any)
	}

	c, err := b.aug(ctx, base, custom, spec.Extra)
	if err != nil {
		return StageAugment, nil, err
	}

	args := rest
	if spec.Args != nil {
		parsed, err := schema.Parse(ctx, spec.Args, pickDeclared(spec.Args, rest))
		if err != nil {
			return StageValidateArgs, nil, newArgumentError(spec.Name, err)
		}
		if m, ok := parsed.(map[string]any); ok {
			args = m
		}
	}

	result, err := spec.Handler(ctx, c, args)
	if err != nil {
		return StageHandle, nil, err
	}
	if spec.Returns == nil {
		return StageEncode, result, nil
	}

	validated, err := schema.Parse(ctx, spec.Returns, result)
	if err != nil {
		return StageValidateReturn, nil, newReturnError(spec.Name, err)
	}
	encoded := codec.Encode(spec.Returns, validated)
	if schema.IsUndefined(encoded) {
		return StageEncode, nil, nil
	}
	return StageEncode, encoded, nil
}

// splitCustomArgs separates the keys declared by WithCustomArgs from the
// rest of the arguments.
func (b *Builder[B, C]) splitCustomArgs(raw map[string]any) (custom, rest map[string]any) {
	custom = map[string]any{}
	if b.opts.customArgs == nil {
		return custom, raw
	}
	rest = make(map[string]any, len(raw))
	for k, v := range raw {
		if _, ok := b.opts.customArgs.Field(k); ok {
			custom[k] = v
			continue
		}
		rest[k] = v
	}
	return custom, rest
}

// pickDeclared keeps only the keys an object schema declares. Non-object
// schemas see the whole argument map.
func pickDeclared(s *schema.Node, raw map[string]any) map[string]any {
	base := schema.Unwrap(s)
	if base != nil && base.Kind == schema.KindCustom && base.Inner != nil {
		return pickDeclared(base.Inner, raw)
	}
	if base == nil || base.Kind != schema.KindObject {
		return raw
	}
	out := make(map[string]any, len(base.Fields))
	for _, f := range base.Fields {
		if v, ok := raw[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

func (b *Builder[B, C]) notify(ev Event) {
	for _, obs := range b.opts.observers {
		obs.Observe(ev)
	}
}
