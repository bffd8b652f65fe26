package csv

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a dialect option is malformed.
	ErrInvalidConfig = errors.New("invalid dialect configuration")
	// ErrInvalidUTF8 is returned when the input is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")
	// ErrUnclosedQuote is returned when a quoted field reaches the end of its line.
	ErrUnclosedQuote = errors.New("unclosed quote")
	// ErrInvalidEscape is returned when a distinct escape character is not
	// followed by the quote or escape character.
	ErrInvalidEscape = errors.New("invalid escape sequence")
	// ErrExpectedDelimiter is returned when a closing quote is followed by
	// something other than a delimiter or the end of the line.
	ErrExpectedDelimiter = errors.New("expected delimiter after closing quote")
	// ErrFieldCount is returned when a row has a different width than the header.
	ErrFieldCount = errors.New("wrong number of fields")
	// ErrDuplicateHeader is returned when two header fields share a name.
	ErrDuplicateHeader = errors.New("duplicate header")
	// ErrCoercion is returned when a field cannot be converted to its column type.
	ErrCoercion = errors.New("type coercion failed")
)

// Position is a character-level scan position. Offset counts bytes from the
// start of the input; Line and Column are 1-based and Column counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d, offset %d", p.Line, p.Column, p.Offset)
}

// ParseError reports the first failure of a Parse call. Row is the 1-based
// physical line number and Column the 1-based field ordinal; Pos is the
// character position where scanning stopped.
type ParseError struct {
	Row    int
	Column int
	Pos    Position
	Msg    string
	Err    error
}

// Error returns Msg, which names the row and column and, for scan
// failures, the scan position.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

// Unwrap returns the underlying cause so ParseError participates in errors.Is.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CoercionError describes why a raw field could not become a typed value.
type CoercionError struct {
	Raw    string
	Type   ColumnType
	Reason string
}

func (e *CoercionError) Error() string {
	return e.Reason
}

func (e *CoercionError) Unwrap() error {
	return ErrCoercion
}

// SerializeError reports a failed Serialize call.
type SerializeError struct {
	Msg string
	Err error
}

func (e *SerializeError) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func (e *SerializeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
