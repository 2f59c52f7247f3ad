package fnwrap_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/reoring/skemabridge/fnwrap"
	"github.com/reoring/skemabridge/schema"
)

type dbCtx struct{ tenant string }

type userCtx struct {
	dbCtx
	user string
}

type auditCtx struct {
	userCtx
	trace string
}

func rawBuilder(base dbCtx) fnwrap.RawBuilder[dbCtx] {
	return func(fn fnwrap.RawFunc[dbCtx]) fnwrap.Operation {
		return func(ctx context.Context, args map[string]any) (any, error) {
			return fn(ctx, base, args)
		}
	}
}

func withUser(_ context.Context, base dbCtx, custom, _ map[string]any) (userCtx, error) {
	tok, _ := custom["token"].(string)
	if tok == "" {
		return userCtx{}, errors.New("unauthenticated")
	}
	return userCtx{dbCtx: base, user: "user:" + tok}, nil
}

var greetArgs = schema.Fields{
	"name":  schema.String(),
	"times": schema.Number().Default(1),
}.Object()

func greet(_ context.Context, c userCtx, args map[string]any) (any, error) {
	return fmt.Sprintf("%s/%s greets %s x%v", c.tenant, c.user, args["name"], args["times"]), nil
}

func TestWrap_Pipeline(t *testing.T) {
	b := fnwrap.MakeCustomBuilder(rawBuilder(dbCtx{tenant: "t1"}), withUser,
		fnwrap.WithCustomArgs(schema.Fields{"token": schema.String().Optional()}.Object()))
	op := b.Wrap(fnwrap.Spec[userCtx]{Name: "greet", Args: greetArgs, Returns: schema.String(), Handler: greet})

	out, err := op(context.Background(), map[string]any{"token": "abc", "name": "Ada", "ignored": true})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "t1/user:abc greets Ada x1" {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestWrap_AugmentErrorPropagatesUnchanged(t *testing.T) {
	sentinel := errors.New("forbidden")
	aug := func(context.Context, dbCtx, map[string]any, map[string]any) (dbCtx, error) {
		return dbCtx{}, sentinel
	}
	called := false
	op := fnwrap.MakeCustomBuilder(rawBuilder(dbCtx{}), aug).Wrap(fnwrap.Spec[dbCtx]{
		Name: "x",
		Handler: func(context.Context, dbCtx, map[string]any) (any, error) {
			called = true
			return nil, nil
		},
	})
	_, err := op(context.Background(), nil)
	if err != sentinel {
		t.Fatalf("augmenter error must pass through verbatim, got %v", err)
	}
	if called {
		t.Fatalf("handler must not run after augmentation failure")
	}
}

func TestWrap_MissingArgument(t *testing.T) {
	op := fnwrap.MakeCustomBuilder(rawBuilder(dbCtx{}), fnwrap.NoOp[dbCtx]()).Wrap(fnwrap.Spec[dbCtx]{
		Name: "create",
		Args: schema.Fields{"name": schema.String(), "age": schema.Number().Optional()}.Object(),
		Handler: func(context.Context, dbCtx, map[string]any) (any, error) {
			t.Fatalf("handler must not run")
			return nil, nil
		},
	})
	_, err := op(context.Background(), map[string]any{"age": 3})
	if !fnwrap.IsArgumentValidation(err) || fnwrap.KindOf(err) != fnwrap.KindArgumentValidation {
		t.Fatalf("expected ArgumentValidationError, got %T %v", err, err)
	}
	var ave *fnwrap.ArgumentValidationError
	if !errors.As(err, &ave) {
		t.Fatalf("errors.As failed")
	}
	if msgs := ave.Report.FieldErrors["name"]; len(msgs) != 1 {
		t.Fatalf("missing entry for name: %#v", ave.Report)
	}
	if fnwrap.IsReturnValidation(err) {
		t.Fatalf("must not be tagged as return error")
	}
}

func TestWrap_ReturnValidationAndEncode(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	returns := schema.Fields{"at": schema.Date(), "note": schema.String().Optional()}.Object()
	build := func(result any) fnwrap.Operation {
		return fnwrap.MakeCustomBuilder(rawBuilder(dbCtx{}), fnwrap.NoOp[dbCtx]()).Wrap(fnwrap.Spec[dbCtx]{
			Name:    "when",
			Returns: returns,
			Handler: func(context.Context, dbCtx, map[string]any) (any, error) { return result, nil },
		})
	}

	out, err := build(map[string]any{"at": at, "extra": 1})(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	m := out.(map[string]any)
	if m["at"] != at.UnixMilli() {
		t.Fatalf("date must be encoded to millis: %#v", m)
	}
	if _, ok := m["extra"]; ok {
		t.Fatalf("validated result must drop undeclared keys: %#v", m)
	}

	_, err = build(map[string]any{"at": "yesterday"})(context.Background(), nil)
	if !fnwrap.IsReturnValidation(err) || fnwrap.IsArgumentValidation(err) {
		t.Fatalf("expected ReturnValidationError, got %v", err)
	}
	if fnwrap.KindOf(err) != "ReturnValidationError" {
		t.Fatalf("kind: %s", fnwrap.KindOf(err))
	}
}

func TestWrap_HandlerErrorAndNoReturns(t *testing.T) {
	boom := errors.New("boom")
	b := fnwrap.MakeCustomBuilder(rawBuilder(dbCtx{}), fnwrap.NoOp[dbCtx]())
	op := b.Wrap(fnwrap.Spec[dbCtx]{Name: "fail", Handler: func(context.Context, dbCtx, map[string]any) (any, error) {
		return nil, boom
	}})
	if _, err := op(context.Background(), nil); !errors.Is(err, boom) || fnwrap.KindOf(err) != "" {
		t.Fatalf("handler error must pass through: %v", err)
	}
	raw := time.Unix(0, 0)
	op = b.Wrap(fnwrap.Spec[dbCtx]{Name: "raw", Handler: func(context.Context, dbCtx, map[string]any) (any, error) {
		return raw, nil
	}})
	if out, _ := op(context.Background(), nil); out != raw {
		t.Fatalf("without Returns the result is unchanged: %#v", out)
	}
}

func TestChain_StaticLayers(t *testing.T) {
	trace := func(_ context.Context, c userCtx, _, extra map[string]any) (auditCtx, error) {
		return auditCtx{userCtx: c, trace: fmt.Sprint(extra["trace"])}, nil
	}
	aug := fnwrap.Chain(fnwrap.Chain(fnwrap.NoOp[dbCtx](), withUser), trace)
	b := fnwrap.MakeCustomBuilder(rawBuilder(dbCtx{tenant: "t"}), aug,
		fnwrap.WithCustomArgs(schema.Fields{"token": schema.String()}.Object()))
	op := b.Wrap(fnwrap.Spec[auditCtx]{
		Name:  "audit",
		Extra: map[string]any{"trace": "abc"},
		Handler: func(_ context.Context, c auditCtx, args map[string]any) (any, error) {
			if _, ok := args["token"]; ok {
				return nil, errors.New("custom args leaked to handler")
			}
			return c.tenant + "|" + c.user + "|" + c.trace, nil
		},
	})
	out, err := op(context.Background(), map[string]any{"token": "k"})
	if err != nil || out != "t|user:k|abc" {
		t.Fatalf("got %v, %v", out, err)
	}
	// custom args are validated before the augmenter runs
	if _, err := op(context.Background(), map[string]any{"token": 5}); !fnwrap.IsArgumentValidation(err) {
		t.Fatalf("expected argument error for custom args, got %v", err)
	}
}

func TestWrap_ObserverAndIndependentCalls(t *testing.T) {
	var mu sync.Mutex
	events := map[string]int{}
	obs := fnwrap.ObserverFunc(func(ev fnwrap.Event) {
		mu.Lock()
		defer mu.Unlock()
		events[ev.Stage.String()+":"+ev.Outcome()]++
	})
	op := fnwrap.MakeCustomBuilder(rawBuilder(dbCtx{}), fnwrap.NoOp[dbCtx](), fnwrap.WithObserver(obs)).Wrap(fnwrap.Spec[dbCtx]{
		Name:    "echo",
		Args:    schema.Fields{"n": schema.Number()}.Object(),
		Returns: schema.Number(),
		Handler: func(_ context.Context, _ dbCtx, args map[string]any) (any, error) { return args["n"], nil },
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var args map[string]any
			if i%2 == 0 {
				args = map[string]any{"n": i}
			} else {
				args = map[string]any{"n": "bad"}
			}
			out, err := op(context.Background(), args)
			if i%2 == 0 && (err != nil || out != i) {
				t.Errorf("call %d: %v %v", i, out, err)
			}
		}(i)
	}
	wg.Wait()
	if events["encode:ok"] != 10 || events["validate_args:argument_error"] != 10 {
		t.Fatalf("unexpected events: %v", events)
	}
}
