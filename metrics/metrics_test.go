package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/metrics"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/store/memory"
	"github.com/reoring/skemabridge/table"
)

func TestCollector_ObservesGeneratedOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	people := table.MustDefine("people", schema.Fields{"name": schema.String()})
	db := memory.New()
	db.RegisterTable(people)
	ops := crud.Generate(people, memory.Query(db), memory.Mutation(db), m.Option())

	ctx := context.Background()
	if _, err := ops.Create(ctx, map[string]any{"name": "Ada"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ops.Create(ctx, map[string]any{"name": 7}); err == nil {
		t.Fatalf("expected argument error")
	}

	if got := testutil.ToFloat64(m.CallsTotal.WithLabelValues("people:create", "encode", "ok")); got != 1 {
		t.Fatalf("ok calls = %v", got)
	}
	if got := testutil.ToFloat64(m.CallsTotal.WithLabelValues("people:create", "validate_args", "argument_error")); got != 1 {
		t.Fatalf("argument errors = %v", got)
	}
	if n := testutil.CollectAndCount(m.CallDuration); n != 1 {
		t.Fatalf("duration series = %d", n)
	}
}

func TestNewWithRegistry_Names(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	m.CallsTotal.WithLabelValues("x", "handle", "error").Inc()
	m.CallDuration.WithLabelValues("x").Observe(0.01)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"skemabridge_calls_total", "skemabridge_call_duration_seconds"} {
		if !names[want] {
			t.Fatalf("missing %s in %v", want, names)
		}
	}
}
