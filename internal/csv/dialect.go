// Package csv implements a configurable CSV dialect engine: a line-oriented
// tokenizer with precise row/column error reporting, per-column type
// coercion into value.Value, and the inverse serializer.
//
// Both Parse and Serialize are pure functions of their input and
// configuration and are safe for concurrent use.
package csv

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ColumnType is the declared type of a CSV column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeDateTime
	TypeBlob
)

func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInteger:
		return "Integer"
	case TypeFloat:
		return "Float"
	case TypeBoolean:
		return "Boolean"
	case TypeDateTime:
		return "DateTime"
	case TypeBlob:
		return "Blob"
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType maps a case-insensitive type name to a ColumnType.
// "int", "bool", "double", "timestamp" and "bytes" are accepted as aliases.
func ParseColumnType(name string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "text":
		return TypeString, nil
	case "integer", "int":
		return TypeInteger, nil
	case "float", "double":
		return TypeFloat, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "datetime", "timestamp":
		return TypeDateTime, nil
	case "blob", "bytes":
		return TypeBlob, nil
	}
	return 0, fmt.Errorf("%w: unknown column type %q", ErrInvalidConfig, name)
}

const (
	defaultDelimiter = ","
	defaultQuote     = `"`
	defaultNewline   = "\n"
)

// ParseConfig configures Parse. Empty string options take their defaults:
// delimiter ",", quote `"`, escape equal to the quote, newline auto-detected.
type ParseConfig struct {
	Delimiter  string
	QuoteChar  string
	EscapeChar string
	Newline    string

	HasHeader bool

	// NullString, when non-nil, turns fields whose raw text equals it into
	// value.Null. A pointer so that the empty string can be a null marker.
	NullString *string

	SkipEmptyLines bool
	TrimFields     bool

	// Columns declares column types by name; unlisted columns are strings.
	Columns map[string]ColumnType
}

// SerializeConfig configures Serialize. Every option is explicit; start from
// DefaultSerializeConfig to change only a few.
type SerializeConfig struct {
	Delimiter     string
	QuoteChar     string
	EscapeChar    string
	Newline       string
	IncludeHeader bool
	NullString    string
	AlwaysQuote   bool
}

// DefaultSerializeConfig returns a comma-separated, double-quoted, LF
// terminated dialect that writes a header and renders nulls as "".
func DefaultSerializeConfig() SerializeConfig {
	return SerializeConfig{
		Delimiter:     defaultDelimiter,
		QuoteChar:     defaultQuote,
		EscapeChar:    defaultQuote,
		Newline:       defaultNewline,
		IncludeHeader: true,
	}
}

// Null returns a pointer to s, for ParseConfig.NullString.
func Null(s string) *string {
	return &s
}

// dialect is a fully resolved configuration with single-rune markers.
type dialect struct {
	delim   rune
	quote   rune
	escape  rune
	newline string
}

func singleRune(name, s string) (rune, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, name)
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %s must be a single character", ErrInvalidConfig, name)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '\n' || r == '\r' {
		return 0, fmt.Errorf("%w: %s must not be a line break", ErrInvalidConfig, name)
	}
	return r, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// resolve applies defaults and validates the parse options. The newline is
// left empty when it must be detected from the input.
func (c ParseConfig) resolve() (dialect, error) {
	var d dialect
	var err error

	if d.delim, err = singleRune("delimiter", orDefault(c.Delimiter, defaultDelimiter)); err != nil {
		return d, err
	}
	if d.quote, err = singleRune("quoteChar", orDefault(c.QuoteChar, defaultQuote)); err != nil {
		return d, err
	}
	d.escape = d.quote
	if c.EscapeChar != "" {
		if d.escape, err = singleRune("escapeChar", c.EscapeChar); err != nil {
			return d, err
		}
	}
	if d.delim == d.quote {
		return d, fmt.Errorf("%w: delimiter and quoteChar must differ", ErrInvalidConfig)
	}
	if d.escape == d.delim {
		return d, fmt.Errorf("%w: delimiter and escapeChar must differ", ErrInvalidConfig)
	}
	d.newline = c.Newline
	return d, nil
}

// Validate checks the serialize options eagerly, before any row is touched.
func (c SerializeConfig) Validate() error {
	_, err := c.resolve()
	return err
}

func (c SerializeConfig) resolve() (dialect, error) {
	var d dialect
	var err error

	if d.delim, err = singleRune("delimiter", c.Delimiter); err != nil {
		return d, err
	}
	if d.quote, err = singleRune("quoteChar", c.QuoteChar); err != nil {
		return d, err
	}
	d.escape = d.quote
	if c.EscapeChar != "" {
		if d.escape, err = singleRune("escapeChar", c.EscapeChar); err != nil {
			return d, err
		}
	}
	if d.delim == d.quote {
		return d, fmt.Errorf("%w: delimiter and quoteChar must differ", ErrInvalidConfig)
	}
	if c.Newline == "" {
		return d, fmt.Errorf("%w: newline must not be empty", ErrInvalidConfig)
	}
	d.newline = c.Newline
	return d, nil
}

// detectNewline returns "\r\n" when the first line break in text is CRLF and
// "\n" otherwise.
func detectNewline(text string) string {
	i := strings.IndexByte(text, '\n')
	if i > 0 && text[i-1] == '\r' {
		return "\r\n"
	}
	return defaultNewline
}
