package csv

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/dialect/internal/value"
)

func TestParseRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		cfg   ParseConfig
		want  []value.Row
	}{
		{
			name:  "basicHeader",
			input: "name,age\nAlice,30\nBob,25\n",
			cfg:   ParseConfig{HasHeader: true},
			want: []value.Row{
				{"name": value.String("Alice"), "age": value.String("30")},
				{"name": value.String("Bob"), "age": value.String("25")},
			},
		},
		{
			name:  "quotedComma",
			input: "name,description\n\"Alice\",\"Hello, World\"",
			cfg:   ParseConfig{HasHeader: true},
			want: []value.Row{
				{"name": value.String("Alice"), "description": value.String("Hello, World")},
			},
		},
		{
			name:  "doubleQuoteEscape",
			input: "name,quote\n\"Alice\",\"She said \"\"hello\"\"\"",
			cfg:   ParseConfig{HasHeader: true},
			want: []value.Row{
				{"name": value.String("Alice"), "quote": value.String(`She said "hello"`)},
			},
		},
		{
			name:  "nullVersusEmpty",
			input: "name,value\nAlice,\"\"\nBob,NULL",
			cfg:   ParseConfig{HasHeader: true, NullString: Null("NULL")},
			want: []value.Row{
				{"name": value.String("Alice"), "value": value.String("")},
				{"name": value.String("Bob"), "value": value.Null{}},
			},
		},
		{
			name:  "emptyNullString",
			input: "a,b\n,\"\"\n",
			cfg:   ParseConfig{HasHeader: true, NullString: Null("")},
			want: []value.Row{
				{"a": value.Null{}, "b": value.Null{}},
			},
		},
		{
			name:  "nullBeatsType",
			input: "n\nNULL\n",
			cfg:   ParseConfig{HasHeader: true, NullString: Null("NULL"), Columns: map[string]ColumnType{"n": TypeInteger}},
			want:  []value.Row{{"n": value.Null{}}},
		},
		{
			name:  "headerless",
			input: "a,b\nc,d",
			cfg:   ParseConfig{},
			want: []value.Row{
				{"column_0": value.String("a"), "column_1": value.String("b")},
				{"column_0": value.String("c"), "column_1": value.String("d")},
			},
		},
		{
			name:  "crlfDetected",
			input: "x,y\r\n1,2\r\n",
			cfg:   ParseConfig{HasHeader: true},
			want:  []value.Row{{"x": value.String("1"), "y": value.String("2")}},
		},
		{
			name:  "explicitNewline",
			input: "x;y|1;2|",
			cfg:   ParseConfig{HasHeader: true, Delimiter: ";", Newline: "|"},
			want:  []value.Row{{"x": value.String("1"), "y": value.String("2")}},
		},
		{
			name:  "skipEmptyLines",
			input: "x,y\n\n1,2\n   \n3,4\n",
			cfg:   ParseConfig{HasHeader: true, SkipEmptyLines: true},
			want: []value.Row{
				{"x": value.String("1"), "y": value.String("2")},
				{"x": value.String("3"), "y": value.String("4")},
			},
		},
		{
			name:  "trimFields",
			input: " x , y \n  1 ,  \"two\"  \n",
			cfg:   ParseConfig{HasHeader: true, TrimFields: true},
			want:  []value.Row{{"x": value.String("1"), "y": value.String("two")}},
		},
		{
			name:  "untrimmedKeepsSpaces",
			input: "x,y\n 1 , 2\n",
			cfg:   ParseConfig{HasHeader: true},
			want:  []value.Row{{"x": value.String(" 1 "), "y": value.String(" 2")}},
		},
		{
			name:  "customQuoteAndDelimiter",
			input: "a\tb\n'x''y'\t'p\tq'\n",
			cfg:   ParseConfig{HasHeader: true, Delimiter: "\t", QuoteChar: "'"},
			want:  []value.Row{{"a": value.String("x'y"), "b": value.String("p\tq")}},
		},
		{
			name:  "distinctEscape",
			input: "a,b\n\"x\\\"y\",\"back\\\\slash\"\n",
			cfg:   ParseConfig{HasHeader: true, EscapeChar: "\\"},
			want:  []value.Row{{"a": value.String(`x"y`), "b": value.String(`back\slash`)}},
		},
		{
			name:  "trailingEmptyField",
			input: "a,b\n1,\n",
			cfg:   ParseConfig{HasHeader: true},
			want:  []value.Row{{"a": value.String("1"), "b": value.String("")}},
		},
		{
			name:  "unicodeFields",
			input: "città,名前\nRoma,太郎\n",
			cfg:   ParseConfig{HasHeader: true},
			want:  []value.Row{{"città": value.String("Roma"), "名前": value.String("太郎")}},
		},
		{
			name:  "typedColumns",
			input: "id,score,ok,at,raw\n7,1.5,true,2024-01-15,0xff\n",
			cfg: ParseConfig{HasHeader: true, Columns: map[string]ColumnType{
				"id": TypeInteger, "score": TypeFloat, "ok": TypeBoolean, "at": TypeDateTime, "raw": TypeBlob,
			}},
			want: []value.Row{{
				"id":    value.Integer(7),
				"score": value.Float(1.5),
				"ok":    value.Boolean(true),
				"at":    mustDateTime(t, "2024-01-15"),
				"raw":   value.Blob{0xff},
			}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse([]byte(tc.input), tc.cfg)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tc.want, got, rowComparer); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseHeaderOnly(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"name,age,city", "name,age,city\n", ""} {
		rows, err := Parse([]byte(input), ParseConfig{HasHeader: true})
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if len(rows) != 0 {
			t.Errorf("Parse(%q) returned %d rows, want 0", input, len(rows))
		}
	}
}

func TestParseWithHeaderOrder(t *testing.T) {
	t.Parallel()

	header, _, err := ParseWithHeader([]byte("z,a,m\n1,2,3"), ParseConfig{HasHeader: true})
	if err != nil {
		t.Fatalf("ParseWithHeader() error = %v", err)
	}
	if diff := cmp.Diff([]string{"z", "a", "m"}, header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		cfg     ParseConfig
		pattern string
		kind    error
		row     int
		column  int
	}{
		{
			name:    "tooManyFields",
			input:   "name,age\nAlice,30\nBob,25,Extra",
			cfg:     ParseConfig{HasHeader: true},
			pattern: `Too many fields in row 3.*expected 2 columns`,
			kind:    ErrFieldCount,
			row:     3,
			column:  3,
		},
		{
			name:    "tooFewFields",
			input:   "name,age,city\nAlice,30",
			cfg:     ParseConfig{HasHeader: true},
			pattern: `Too few fields in row 2.*expected 3 columns, got 2`,
			kind:    ErrFieldCount,
			row:     2,
			column:  2,
		},
		{
			name:    "headerlessWidthFromFirstRow",
			input:   "a,b\nc",
			cfg:     ParseConfig{},
			pattern: `Too few fields in row 2.*expected 2 columns, got 1`,
			kind:    ErrFieldCount,
			row:     2,
			column:  1,
		},
		{
			name:    "unclosedQuote",
			input:   "name,desc\nAlice,\"open",
			cfg:     ParseConfig{HasHeader: true},
			pattern: `^Unclosed quote in row 2, column 2 \(line 2, column \d+, offset \d+\)$`,
			kind:    ErrUnclosedQuote,
			row:     2,
			column:  2,
		},
		{
			name:    "quotedFieldDoesNotSpanLines",
			input:   "a\n\"one\ntwo\"",
			cfg:     ParseConfig{HasHeader: true},
			pattern: `^Unclosed quote in row 2, column 1 \(line 2, column \d+, offset \d+\)$`,
			kind:    ErrUnclosedQuote,
			row:     2,
			column:  1,
		},
		{
			name:    "garbageAfterQuote",
			input:   "a,b\n\"x\"y,z",
			cfg:     ParseConfig{HasHeader: true},
			pattern: `^Expected delimiter or newline after closing quote in row 2, column 1 \(line 2, column \d+, offset \d+\)$`,
			kind:    ErrExpectedDelimiter,
			row:     2,
			column:  1,
		},
		{
			name:    "invalidEscape",
			input:   "a,b\nok,\"bad\\n\"",
			cfg:     ParseConfig{HasHeader: true, EscapeChar: "\\"},
			pattern: `^Invalid escape sequence in row 2, column 2 \(line 2, column \d+, offset \d+\)$`,
			kind:    ErrInvalidEscape,
			row:     2,
			column:  2,
		},
		{
			name:    "escapeAtLineEnd",
			input:   "a\n\"x\\",
			cfg:     ParseConfig{HasHeader: true, EscapeChar: "\\"},
			pattern: `^Invalid escape sequence in row 2, column 1 \(line 2, column \d+, offset \d+\)$`,
			kind:    ErrInvalidEscape,
			row:     2,
			column:  1,
		},
		{
			name:    "duplicateHeader",
			input:   "a,b,a\n1,2,3",
			cfg:     ParseConfig{HasHeader: true},
			pattern: `Duplicate header "a" in row 1, column 3`,
			kind:    ErrDuplicateHeader,
			row:     1,
			column:  3,
		},
		{
			name:    "integerOverflow",
			input:   "n\n9223372036854775808",
			cfg:     ParseConfig{HasHeader: true, Columns: map[string]ColumnType{"n": TypeInteger}},
			pattern: `^Failed to parse value for header n in row 2, column 1: Integer out of range \(must be 64-bit signed\)$`,
			kind:    ErrCoercion,
			row:     2,
			column:  1,
		},
		{
			name:    "integerUnderflow",
			input:   "x,n\na,-9223372036854775809",
			cfg:     ParseConfig{HasHeader: true, Columns: map[string]ColumnType{"n": TypeInteger}},
			pattern: `Integer out of range \(must be 64-bit signed\)`,
			kind:    ErrCoercion,
			row:     2,
			column:  2,
		},
		{
			name:    "badBoolean",
			input:   "ok\nyes",
			cfg:     ParseConfig{HasHeader: true, Columns: map[string]ColumnType{"ok": TypeBoolean}},
			pattern: `header ok in row 2, column 1: Cannot parse "yes" as Boolean \(expected 'true' or 'false'\)`,
			kind:    ErrCoercion,
			row:     2,
			column:  1,
		},
		{
			name:    "quotedEmptyIntegerIsNotNull",
			input:   "n\n\"\"",
			cfg:     ParseConfig{HasHeader: true, NullString: Null("NULL"), Columns: map[string]ColumnType{"n": TypeInteger}},
			pattern: `Cannot parse empty string as Integer`,
			kind:    ErrCoercion,
			row:     2,
			column:  1,
		},
		{
			name:    "invalidUTF8",
			input:   "a\n\xff\xfe",
			cfg:     ParseConfig{HasHeader: true},
			pattern: `not valid UTF-8`,
			kind:    ErrInvalidUTF8,
		},
		{
			name:    "badDelimiter",
			input:   "a",
			cfg:     ParseConfig{Delimiter: ";;"},
			pattern: `delimiter must be a single character`,
			kind:    ErrInvalidConfig,
		},
		{
			name:    "delimiterEqualsQuote",
			input:   "a",
			cfg:     ParseConfig{Delimiter: `"`},
			pattern: `must differ`,
			kind:    ErrInvalidConfig,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tc.input), tc.cfg)
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !regexp.MustCompile(tc.pattern).MatchString(err.Error()) {
				t.Errorf("Parse() error = %q, want match for %q", err.Error(), tc.pattern)
			}
			if !errors.Is(err, tc.kind) {
				t.Errorf("errors.Is(%v, %v) = false", err, tc.kind)
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if pe.Row != tc.row || pe.Column != tc.column {
				t.Errorf("location = row %d column %d, want row %d column %d", pe.Row, pe.Column, tc.row, tc.column)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("a,b\nok,\"x\"!"), ParseConfig{HasHeader: true})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Parse() error = %v, want *ParseError", err)
	}

	want := Position{Offset: 10, Line: 2, Column: 7}
	if pe.Pos != want {
		t.Errorf("Pos = %+v, want %+v", pe.Pos, want)
	}
	wantMsg := "Expected delimiter or newline after closing quote in row 2, column 2 (line 2, column 7, offset 10)"
	if got := err.Error(); got != wantMsg {
		t.Errorf("Error() = %q, want %q", got, wantMsg)
	}
}

func TestParseIntegerBoundary(t *testing.T) {
	t.Parallel()

	cfg := ParseConfig{HasHeader: true, Columns: map[string]ColumnType{"n": TypeInteger}}
	rows, err := Parse([]byte("n\n9223372036854775807\n-9223372036854775808"), cfg)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []value.Row{
		{"n": value.Integer(9223372036854775807)},
		{"n": value.Integer(-9223372036854775808)},
	}
	if diff := cmp.Diff(want, rows, rowComparer); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

var rowComparer = cmp.Comparer(func(a, b value.Value) bool {
	return value.Equal(a, b)
})

func mustDateTime(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := Coerce(s, TypeDateTime)
	if err != nil {
		t.Fatalf("Coerce(%q) error = %v", s, err)
	}
	return v
}
