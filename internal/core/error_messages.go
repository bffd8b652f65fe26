package core

// error_messages.go maps technical errors to user-facing messages with codes
// that users can quote to support.
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - Invalid dialect options (delimiter, quote, escape, newline, column types)
//	CSV002 - Unclosed quote
//	CSV003 - Invalid escape sequence
//	CSV004 - Unexpected character after a closing quote
//	CSV005 - Row has the wrong number of fields
//	CSV006 - Duplicate header name
//	CSV007 - Value does not match its column type
//	CSV008 - Rows submitted for serialization are malformed
//
// # XML Errors (XML001-XML099)
//
//	XML001 - Malformed XML
//	XML002 - Mismatched closing tag
//	XML003 - Element tree cannot be written
//
// # Encoding and Request Errors
//
//	ENC001 - Input is not valid UTF-8 (after BOM and UTF-16 handling)
//	CFG001 - Request options are malformed
//
// # Database Errors (DB001-DB099)
//
//	DB001 - No database configured
//	DB002 - Table name rejected before reaching the database
//	DB003 - Table does not exist
//	DB004 - Row violates a table constraint
//	DB005 - Value does not fit the column's database type
//	DB006 - Database connection failed
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - Too many jobs in progress
//	JOB002 - Request cancelled
//	JOB003 - Job timed out
//	JOB004 - Input exceeds the size limit
//
// # Default Error (ERR000)
//
// Typed errors are classified with errors.Is first; driver errors that only
// surface as text are then matched case-insensitively by substring. The first
// match wins.

import (
	"context"
	"errors"
	"strings"

	"github.com/JonMunkholm/dialect/internal/csv"
	"github.com/JonMunkholm/dialect/internal/store"
	"github.com/JonMunkholm/dialect/internal/xml"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// ErrInvalidOptions marks a request whose options could not be interpreted,
// such as an unknown column type or a non-boolean flag.
var ErrInvalidOptions = errors.New("invalid options")

// ErrInvalidRows marks a serialize request whose rows could not be decoded.
var ErrInvalidRows = errors.New("invalid rows")

type sentinelRule struct {
	target error
	msg    UserMessage
}

// sentinelRules are checked in order with errors.Is. Specific causes come
// before the sentinels they may also wrap.
var sentinelRules = []sentinelRule{
	{csv.ErrInvalidConfig, UserMessage{
		Message: "The CSV dialect options are invalid",
		Action:  "Use single, distinct characters for delimiter, quote and escape",
		Code:    "CSV001",
	}},
	{csv.ErrUnclosedQuote, UserMessage{
		Message: "A quoted field is never closed",
		Action:  "Add the missing closing quote or escape quotes inside the field",
		Code:    "CSV002",
	}},
	{csv.ErrInvalidEscape, UserMessage{
		Message: "The file contains an invalid escape sequence",
		Action:  "The escape character may only precede a quote or another escape character",
		Code:    "CSV003",
	}},
	{csv.ErrExpectedDelimiter, UserMessage{
		Message: "Unexpected text after a closing quote",
		Action:  "Put a delimiter directly after each closing quote",
		Code:    "CSV004",
	}},
	{csv.ErrFieldCount, UserMessage{
		Message: "A row has the wrong number of fields",
		Action:  "Make every row match the header's column count",
		Code:    "CSV005",
	}},
	{csv.ErrDuplicateHeader, UserMessage{
		Message: "The header contains the same column name twice",
		Action:  "Rename the duplicate columns",
		Code:    "CSV006",
	}},
	{csv.ErrCoercion, UserMessage{
		Message: "A value does not match its column type",
		Action:  "Check the column types or fix the reported value",
		Code:    "CSV007",
	}},
	{ErrInvalidRows, UserMessage{
		Message: "The submitted rows are malformed",
		Action:  `Send rows as objects of {"type": ..., "value": ...} cells`,
		Code:    "CSV008",
	}},
	{csv.ErrInvalidUTF8, encodingMessage},
	{xml.ErrInvalidTree, UserMessage{
		Message: "The element tree cannot be written as XML",
		Action:  "Use valid element and attribute names",
		Code:    "XML003",
	}},
	{ErrInvalidEncoding, encodingMessage},
	{ErrInvalidOptions, UserMessage{
		Message: "The request options are invalid",
		Action:  "Check the query parameters or the options object",
		Code:    "CFG001",
	}},
	{ErrStoreUnavailable, UserMessage{
		Message: "No database is configured",
		Action:  "Set DATABASE_URL to enable table loads and exports",
		Code:    "DB001",
	}},
	{store.ErrInvalidTable, UserMessage{
		Message: "The table name is not allowed",
		Action:  "Use letters, digits and underscores, optionally prefixed by a schema",
		Code:    "DB002",
	}},
	{store.ErrTableNotFound, UserMessage{
		Message: "The table does not exist",
		Action:  "Verify the table name is correct",
		Code:    "DB003",
	}},
	{store.ErrConstraint, UserMessage{
		Message: "A row violates a table constraint",
		Action:  "Check for duplicates, missing required values or unknown references",
		Code:    "DB004",
	}},
	{store.ErrTypeMismatch, UserMessage{
		Message: "A value does not fit its database column",
		Action:  "Declare column types that match the table definition",
		Code:    "DB005",
	}},
	{ErrTooManyJobs, UserMessage{
		Message: "Too many conversions in progress",
		Action:  "Please wait a moment and try again",
		Code:    "JOB001",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "JOB002",
	}},
	{context.DeadlineExceeded, timeoutMessage},
	{ErrInputTooLarge, UserMessage{
		Message: "Input exceeds the maximum size",
		Action:  "Split the input into smaller files",
		Code:    "JOB004",
	}},
}

var encodingMessage = UserMessage{
	Message: "Input contains invalid characters",
	Action:  "Save the file as UTF-8 (or UTF-16 with a byte order mark)",
	Code:    "ENC001",
}

var timeoutMessage = UserMessage{
	Message: "The conversion timed out",
	Action:  "Try a smaller input or try again later",
	Code:    "JOB003",
}

// errorPattern maps a lowercase substring of an error's text to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var connectionMessage = UserMessage{
	Message: "Unable to connect to database",
	Action:  "Please try again in a few moments",
	Code:    "DB006",
}

// errorPatterns are checked after sentinelRules. XML syntax errors are
// matched here so the mismatched-tag message wins over the generic one.
var errorPatterns = []errorPattern{
	{"mismatched closing tag", UserMessage{
		Message: "An element is closed with the wrong tag",
		Action:  "Make every closing tag match its opening tag",
		Code:    "XML002",
	}},
	{"connection refused", connectionMessage},
	{"connection reset", connectionMessage},
	{"failed to connect", connectionMessage},
	{"timeout", timeoutMessage},
}

var xmlSyntaxMessage = UserMessage{
	Message: "The XML is malformed",
	Action:  "Fix the reported line and column",
	Code:    "XML001",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the zero UserMessage for a nil error and ERR000 when nothing
// matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, r := range sentinelRules {
		if errors.Is(err, r.target) {
			return r.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	if errors.Is(err, xml.ErrSyntax) {
		return xmlSyntaxMessage
	}

	return defaultMessage
}

// ErrorDetail returns the location-bearing message of a CSV parse, CSV
// serialize or XML syntax error in err's chain, or "" when err carries none.
// Callers show it verbatim next to the mapped UserMessage.
func ErrorDetail(err error) string {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	var se *csv.SerializeError
	if errors.As(err, &se) {
		return se.Error()
	}
	var xe *xml.SyntaxError
	if errors.As(err, &xe) {
		return xe.Error()
	}
	return ""
}
