package csv

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/dialect/internal/value"
)

var (
	integerRegex = regexp.MustCompile(`^[+-]?\d+$`)
	floatRegex   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// ISO 8601 layouts accepted for DateTime columns, most specific first.
// Layouts without a zone are interpreted as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Coerce converts a raw field to the declared column type. The returned
// error is a *CoercionError whose message is the user-facing reason.
func Coerce(raw string, t ColumnType) (value.Value, error) {
	switch t {
	case TypeString:
		return value.String(raw), nil
	case TypeInteger:
		return coerceInteger(raw)
	case TypeFloat:
		return coerceFloat(raw)
	case TypeBoolean:
		return coerceBoolean(raw)
	case TypeDateTime:
		return coerceDateTime(raw)
	case TypeBlob:
		return coerceBlob(raw)
	}
	return nil, &CoercionError{Raw: raw, Type: t, Reason: fmt.Sprintf("unsupported column type %s", t)}
}

func emptyErr(t ColumnType) error {
	return &CoercionError{Type: t, Reason: fmt.Sprintf("Cannot parse empty string as %s", t)}
}

func formatErr(raw string, t ColumnType, detail string) error {
	reason := `Cannot parse "` + raw + `" as ` + t.String()
	if detail != "" {
		reason += " (" + detail + ")"
	}
	return &CoercionError{Raw: raw, Type: t, Reason: reason}
}

func coerceInteger(raw string) (value.Value, error) {
	if raw == "" {
		return nil, emptyErr(TypeInteger)
	}
	if !integerRegex.MatchString(raw) {
		return nil, formatErr(raw, TypeInteger, "")
	}
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, &CoercionError{Raw: raw, Type: TypeInteger, Reason: "Integer out of range (must be 64-bit signed)"}
		}
		return nil, formatErr(raw, TypeInteger, "")
	}
	return value.Integer(i), nil
}

func coerceFloat(raw string) (value.Value, error) {
	if raw == "" {
		return nil, emptyErr(TypeFloat)
	}
	switch raw {
	case "NaN":
		return value.Float(math.NaN()), nil
	case "Infinity", "+Infinity":
		return value.Float(math.Inf(1)), nil
	case "-Infinity":
		return value.Float(math.Inf(-1)), nil
	}
	if !floatRegex.MatchString(raw) {
		return nil, formatErr(raw, TypeFloat, "")
	}
	// Magnitudes beyond float64 saturate to ±Inf, as IEEE parsing does.
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, formatErr(raw, TypeFloat, "")
	}
	return value.Float(f), nil
}

func coerceBoolean(raw string) (value.Value, error) {
	switch raw {
	case "true":
		return value.Boolean(true), nil
	case "false":
		return value.Boolean(false), nil
	}
	return nil, formatErr(raw, TypeBoolean, "expected 'true' or 'false'")
}

func coerceDateTime(raw string) (value.Value, error) {
	if raw == "" {
		return nil, emptyErr(TypeDateTime)
	}
	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return value.DateTime(t), nil
		}
	}
	return nil, formatErr(raw, TypeDateTime, "expected ISO 8601 format")
}

func coerceBlob(raw string) (value.Value, error) {
	if raw == "" {
		return nil, emptyErr(TypeBlob)
	}
	digits := raw
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}
	for i := 0; i < len(digits); i++ {
		if fromHex(digits[i]) < 0 {
			return nil, formatErr(raw, TypeBlob, "invalid hex character")
		}
	}
	if len(digits)%2 != 0 {
		return nil, formatErr(raw, TypeBlob, "odd number of hex digits")
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = byte(fromHex(digits[2*i])<<4 | fromHex(digits[2*i+1]))
	}
	return value.Blob(out), nil
}

func fromHex(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
