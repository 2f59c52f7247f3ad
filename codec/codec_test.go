package codec_test

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/skemabridge/codec"
	"github.com/reoring/skemabridge/schema"
)

var joined = time.Date(2024, 3, 1, 12, 30, 15, 123*int(time.Millisecond), time.UTC)

func TestRoundTrip_PerKind(t *testing.T) {
	cases := []struct {
		name string
		s    *schema.Node
		v    any
	}{
		{"string", schema.String(), "Ada"},
		{"number", schema.Number(), 36.5},
		{"bigint", schema.BigInt(), big.NewInt(1 << 40)},
		{"boolean", schema.Boolean(), true},
		{"date", schema.Date(), joined},
		{"null", schema.Null(), nil},
		{"literal", schema.Literal("x"), "x"},
		{"enum", schema.Enum("a", "b"), "b"},
		{"optional date", schema.Date().Optional(), joined},
		{"nullable date null", schema.Date().Nullable(), nil},
		{"default date", schema.Date().Default(joined), joined},
		{"array of dates", schema.Array(schema.Date()), []any{joined, joined.Add(time.Hour)}},
		{"object", schema.Fields{"name": schema.String(), "joined": schema.Date()}.Object(),
			map[string]any{"name": "Ada", "joined": joined}},
		{"record", schema.Record(schema.Date()), map[string]any{"a": joined}},
		{"tuple", schema.Tuple(schema.String(), schema.Date()), []any{"t", joined}},
		{"union picks date", schema.Union(schema.String(), schema.Date()), joined},
		{"union picks string", schema.Union(schema.String(), schema.Date()), "s"},
		{"discriminated", schema.DiscriminatedUnion("k",
			schema.Fields{"k": schema.Literal("a"), "at": schema.Date()}.Object(),
			schema.Fields{"k": schema.Literal("b"), "n": schema.Number()}.Object()),
			map[string]any{"k": "a", "at": joined}},
		{"intersection", schema.Intersection(
			schema.Fields{"a": schema.Date()}.Object(),
			schema.Fields{"b": schema.Date()}.Object()),
			map[string]any{"a": joined, "b": joined}},
		{"identifier", schema.Identifier("users"), "u1"},
		{"any", schema.Any(), map[string]any{"x": 1.0}},
		{"nil schema", nil, []any{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := codec.Decode(tc.s, codec.Encode(tc.s, tc.v))
			if diff := cmp.Diff(tc.v, got, cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_DateIsEpochMillis(t *testing.T) {
	got := codec.Encode(schema.Date(), joined)
	if got != joined.UnixMilli() {
		t.Fatalf("want %d got %#v", joined.UnixMilli(), got)
	}
	ptr := joined
	if got := codec.Encode(schema.Date(), &ptr); got != joined.UnixMilli() {
		t.Fatalf("pointer time: %#v", got)
	}
}

func TestEncode_UndefinedOmittedNullPreservedNoDefaults(t *testing.T) {
	s := schema.Fields{
		"name":  schema.String(),
		"age":   schema.Number().Optional(),
		"note":  schema.String().Nullable().Default("n/a").Optional(),
		"since": schema.Date().Default(joined),
	}.Object()
	in := map[string]any{"name": "Ada", "note": nil, "age": schema.Undefined}
	out := codec.Encode(s, in).(map[string]any)
	if _, ok := out["age"]; ok {
		t.Fatalf("undefined must be omitted: %#v", out)
	}
	if v, ok := out["note"]; !ok || v != nil {
		t.Fatalf("null must be preserved: %#v", out)
	}
	if _, ok := out["since"]; ok {
		t.Fatalf("defaults must not be applied on encode: %#v", out)
	}
	back := codec.Decode(s, out).(map[string]any)
	if _, ok := back["since"]; ok {
		t.Fatalf("defaults must not be applied on decode: %#v", back)
	}
	if !schema.IsUndefined(codec.Encode(s, schema.Undefined)) {
		t.Fatalf("undefined root must encode to undefined")
	}
}

func TestCodec_SystemKeysPassThrough(t *testing.T) {
	c := codec.New(schema.Fields{"joined": schema.Date()}.Object())
	doc := c.DecodeDocument(map[string]any{"_id": "p1", "_creationTime": 1.5, "joined": joined.UnixMilli()})
	if doc["_id"] != "p1" || doc["_creationTime"] != 1.5 {
		t.Fatalf("system keys lost: %#v", doc)
	}
	if !doc["joined"].(time.Time).Equal(joined) {
		t.Fatalf("joined not decoded: %#v", doc)
	}
}

func TestDecode_DateFromVariousWireForms(t *testing.T) {
	ms := joined.UnixMilli()
	for _, v := range []any{ms, float64(ms), int(ms), joined.Format(time.RFC3339Nano)} {
		got, ok := codec.Decode(schema.Date(), v).(time.Time)
		if !ok || !got.Equal(joined) {
			t.Fatalf("%T: got %#v", v, got)
		}
	}
	if got := codec.Decode(schema.Date(), "not a date"); got != "not a date" {
		t.Fatalf("unexpected shapes pass through: %#v", got)
	}
}

func TestMarshalUnmarshal_WireBytes(t *testing.T) {
	s := schema.Fields{
		"name":   schema.String(),
		"age":    schema.Number().Optional(),
		"joined": schema.Date(),
		"score":  schema.BigInt(),
		"tags":   schema.Array(schema.String()),
	}.Object()
	v := map[string]any{
		"name":   "Ada",
		"joined": joined,
		"score":  big.NewInt(12345678901234),
		"tags":   []any{"math"},
	}
	raw, err := codec.Marshal(s, v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	wire := string(raw)
	if strings.Contains(wire, "age") {
		t.Fatalf("undefined written to wire: %s", wire)
	}
	if !strings.Contains(wire, `"joined":1709296215123`) {
		t.Fatalf("date not encoded as millis: %s", wire)
	}
	back, err := codec.Unmarshal(s, raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(v, back, cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
		t.Fatalf("wire round trip (-want +got):\n%s", diff)
	}
	if _, err := codec.Unmarshal(s, []byte("{")); err == nil {
		t.Fatalf("expected syntax error")
	}
}
