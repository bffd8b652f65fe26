package csv

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/JonMunkholm/dialect/internal/value"
)

func TestCoerce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		typ  ColumnType
		want value.Value
	}{
		// String passes through
		{name: "string", raw: " as is ", typ: TypeString, want: value.String(" as is ")},
		{name: "emptyString", raw: "", typ: TypeString, want: value.String("")},

		// Integer
		{name: "integer", raw: "42", typ: TypeInteger, want: value.Integer(42)},
		{name: "signedInteger", raw: "+7", typ: TypeInteger, want: value.Integer(7)},
		{name: "negativeInteger", raw: "-7", typ: TypeInteger, want: value.Integer(-7)},
		{name: "maxInt64", raw: "9223372036854775807", typ: TypeInteger, want: value.Integer(math.MaxInt64)},
		{name: "minInt64", raw: "-9223372036854775808", typ: TypeInteger, want: value.Integer(math.MinInt64)},

		// Float
		{name: "float", raw: "3.25", typ: TypeFloat, want: value.Float(3.25)},
		{name: "floatExponent", raw: "1e3", typ: TypeFloat, want: value.Float(1000)},
		{name: "floatLeadingDot", raw: ".5", typ: TypeFloat, want: value.Float(0.5)},
		{name: "floatInteger", raw: "10", typ: TypeFloat, want: value.Float(10)},
		{name: "floatInfinity", raw: "-Infinity", typ: TypeFloat, want: value.Float(math.Inf(-1))},
		{name: "floatNaN", raw: "NaN", typ: TypeFloat, want: value.Float(math.NaN())},
		{name: "floatSaturates", raw: "1e400", typ: TypeFloat, want: value.Float(math.Inf(1))},

		// Boolean
		{name: "true", raw: "true", typ: TypeBoolean, want: value.Boolean(true)},
		{name: "false", raw: "false", typ: TypeBoolean, want: value.Boolean(false)},

		// DateTime
		{name: "date", raw: "2024-01-15", typ: TypeDateTime, want: value.DateTime(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))},
		{name: "dateTimeZ", raw: "2024-01-15T10:30:00Z", typ: TypeDateTime, want: value.DateTime(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{name: "dateTimeOffset", raw: "2024-01-15T12:30:00+02:00", typ: TypeDateTime, want: value.DateTime(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{name: "dateTimeLocal", raw: "2024-01-15T10:30:00", typ: TypeDateTime, want: value.DateTime(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{name: "dateTimeFraction", raw: "2024-01-15T10:30:00.250Z", typ: TypeDateTime, want: value.DateTime(time.Date(2024, 1, 15, 10, 30, 0, 250e6, time.UTC))},
		{name: "dateTimeMinutes", raw: "2024-01-15T10:30", typ: TypeDateTime, want: value.DateTime(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},

		// Blob
		{name: "blobPrefixed", raw: "0xDEADbeef", typ: TypeBlob, want: value.Blob{0xde, 0xad, 0xbe, 0xef}},
		{name: "blobBare", raw: "00ff", typ: TypeBlob, want: value.Blob{0x00, 0xff}},
		{name: "blobEmptyPrefix", raw: "0x", typ: TypeBlob, want: value.Blob{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Coerce(tc.raw, tc.typ)
			if err != nil {
				t.Fatalf("Coerce(%q, %s) error = %v", tc.raw, tc.typ, err)
			}
			if !value.Equal(got, tc.want) {
				t.Errorf("Coerce(%q, %s) = %#v, want %#v", tc.raw, tc.typ, got, tc.want)
			}
		})
	}
}

func TestCoerceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		typ  ColumnType
		want string
	}{
		{name: "emptyInteger", raw: "", typ: TypeInteger, want: "Cannot parse empty string as Integer"},
		{name: "textInteger", raw: "abc", typ: TypeInteger, want: `Cannot parse "abc" as Integer`},
		{name: "decimalInteger", raw: "1.5", typ: TypeInteger, want: `Cannot parse "1.5" as Integer`},
		{name: "spacedInteger", raw: " 1", typ: TypeInteger, want: `Cannot parse " 1" as Integer`},
		{name: "backslashInteger", raw: `a\b`, typ: TypeInteger, want: `Cannot parse "a\b" as Integer`},
		{name: "tabInteger", raw: "1\t2", typ: TypeInteger, want: "Cannot parse \"1\t2\" as Integer"},
		{name: "quoteBoolean", raw: `"yes"`, typ: TypeBoolean, want: `Cannot parse ""yes"" as Boolean (expected 'true' or 'false')`},
		{name: "overflow", raw: "9223372036854775808", typ: TypeInteger, want: "Integer out of range (must be 64-bit signed)"},
		{name: "underflow", raw: "-9223372036854775809", typ: TypeInteger, want: "Integer out of range (must be 64-bit signed)"},
		{name: "emptyFloat", raw: "", typ: TypeFloat, want: "Cannot parse empty string as Float"},
		{name: "textFloat", raw: "1.2.3", typ: TypeFloat, want: `Cannot parse "1.2.3" as Float`},
		{name: "hexFloat", raw: "0x1p3", typ: TypeFloat, want: `Cannot parse "0x1p3" as Float`},
		{name: "titleBoolean", raw: "True", typ: TypeBoolean, want: `Cannot parse "True" as Boolean (expected 'true' or 'false')`},
		{name: "emptyBoolean", raw: "", typ: TypeBoolean, want: `Cannot parse "" as Boolean (expected 'true' or 'false')`},
		{name: "emptyDateTime", raw: "", typ: TypeDateTime, want: "Cannot parse empty string as DateTime"},
		{name: "usDate", raw: "01/15/2024", typ: TypeDateTime, want: `Cannot parse "01/15/2024" as DateTime (expected ISO 8601 format)`},
		{name: "impossibleDate", raw: "2024-02-30", typ: TypeDateTime, want: `Cannot parse "2024-02-30" as DateTime (expected ISO 8601 format)`},
		{name: "emptyBlob", raw: "", typ: TypeBlob, want: "Cannot parse empty string as Blob"},
		{name: "badHex", raw: "0xzz", typ: TypeBlob, want: `Cannot parse "0xzz" as Blob (invalid hex character)`},
		{name: "oddHex", raw: "abc", typ: TypeBlob, want: `Cannot parse "abc" as Blob (odd number of hex digits)`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Coerce(tc.raw, tc.typ)
			if err == nil {
				t.Fatalf("Coerce(%q, %s) succeeded, want error", tc.raw, tc.typ)
			}
			if err.Error() != tc.want {
				t.Errorf("Coerce(%q, %s) error = %q, want %q", tc.raw, tc.typ, err.Error(), tc.want)
			}
			if !errors.Is(err, ErrCoercion) {
				t.Errorf("errors.Is(err, ErrCoercion) = false for %v", err)
			}
		})
	}
}

func TestParseColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want ColumnType
	}{
		{"string", TypeString},
		{"Integer", TypeInteger},
		{"int", TypeInteger},
		{"FLOAT", TypeFloat},
		{"bool", TypeBoolean},
		{"datetime", TypeDateTime},
		{"blob", TypeBlob},
	}
	for _, tc := range tests {
		got, err := ParseColumnType(tc.in)
		if err != nil {
			t.Errorf("ParseColumnType(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseColumnType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := ParseColumnType("decimal"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseColumnType(decimal) error = %v, want ErrInvalidConfig", err)
	}
}
