package value

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestText(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   Value
		null string
		want string
	}{
		{name: "string", in: String("Alice"), want: "Alice"},
		{name: "integer", in: Integer(-42), want: "-42"},
		{name: "float", in: Float(1.5), want: "1.5"},
		{name: "floatWhole", in: Float(1000000), want: "1000000"},
		{name: "floatTiny", in: Float(1e-9), want: "1e-09"},
		{name: "nan", in: Float(math.NaN()), want: "NaN"},
		{name: "negInf", in: Float(math.Inf(-1)), want: "-Infinity"},
		{name: "boolean", in: Boolean(true), want: "true"},
		{name: "datetime", in: DateTime(ts), want: "2024-01-15T10:30:00Z"},
		{name: "blob", in: Blob{0xde, 0xad}, want: "0xdead"},
		{name: "null", in: Null{}, null: "NULL", want: "NULL"},
		{name: "nil", in: nil, null: "\\N", want: "\\N"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Text(tc.in, tc.null); got != tc.want {
				t.Errorf("Text() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestColumnsSorted(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{"name": String("Alice"), "age": Integer(30)},
		{"city": String("Oslo")},
	}
	want := []string{"age", "city", "name"}
	if diff := cmp.Diff(want, Columns(rows)); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "sameString", a: String("x"), b: String("x"), want: true},
		{name: "stringVsInteger", a: String("1"), b: Integer(1), want: false},
		{name: "nilIsNull", a: nil, b: Null{}, want: true},
		{name: "nanEqualsNan", a: Float(math.NaN()), b: Float(math.NaN()), want: true},
		{name: "blob", a: Blob{1, 2}, b: Blob{1, 2}, want: true},
		{name: "blobDiffers", a: Blob{1, 2}, b: Blob{1, 3}, want: false},
		{name: "datetimeZones", a: DateTime(ts), b: DateTime(ts.In(time.FixedZone("x", 3600))), want: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCellJSON(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	row := Row{
		"s": String("hi"),
		"i": Integer(7),
		"f": Float(2.25),
		"b": Boolean(false),
		"d": DateTime(ts),
		"x": Blob{0xca, 0xfe},
		"n": Null{},
		"p": Float(math.Inf(1)),
	}

	data, err := json.Marshal(EncodeRow(row))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var wire WireRow
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	got := DecodeRow(wire)

	if len(got) != len(row) {
		t.Fatalf("decoded %d cells, want %d", len(got), len(row))
	}
	for k, want := range row {
		if !Equal(got[k], want) {
			t.Errorf("cell %q = %#v, want %#v", k, got[k], want)
		}
	}
}

func TestCellJSONErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "unknownType", input: `{"type":"decimal","value":1}`},
		{name: "missingValue", input: `{"type":"integer"}`},
		{name: "wrongPayload", input: `{"type":"integer","value":"x"}`},
		{name: "badBlob", input: `{"type":"blob","value":"0xzz"}`},
		{name: "badFloat", input: `{"type":"float","value":"huge"}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var c Cell
			if err := json.Unmarshal([]byte(tc.input), &c); err == nil {
				t.Errorf("Unmarshal(%s) succeeded, want error", tc.input)
			}
		})
	}
}
