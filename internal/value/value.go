// Package value defines the typed literal values shared by the CSV parser,
// the CSV serializer and the storage adapters.
//
// A Value is a closed sum type. The concrete variants are String, Integer,
// Float, Boolean, DateTime, Blob and Null; no other package can add one.
package value

import (
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindDateTime
	KindBlob
	KindNull
)

var kindNames = [...]string{
	KindString:   "string",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindBoolean:  "boolean",
	KindDateTime: "datetime",
	KindBlob:     "blob",
	KindNull:     "null",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Value is one typed cell.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	String   string
	Integer  int64
	Float    float64
	Boolean  bool
	DateTime time.Time
	Blob     []byte
	Null     struct{}
)

func (String) Kind() Kind   { return KindString }
func (Integer) Kind() Kind  { return KindInteger }
func (Float) Kind() Kind    { return KindFloat }
func (Boolean) Kind() Kind  { return KindBoolean }
func (DateTime) Kind() Kind { return KindDateTime }
func (Blob) Kind() Kind     { return KindBlob }
func (Null) Kind() Kind     { return KindNull }

func (String) sealed()   {}
func (Integer) sealed()  {}
func (Float) sealed()    {}
func (Boolean) sealed()  {}
func (DateTime) sealed() {}
func (Blob) sealed()     {}
func (Null) sealed()     {}

// Time returns the wrapped time.Time.
func (d DateTime) Time() time.Time { return time.Time(d) }

// Row maps column names to values. Key order carries no meaning.
type Row map[string]Value

// IsNull reports whether v is absent or the Null variant.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Columns returns the union of keys across rows in sorted order.
func Columns(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// DateTimeLayout is the layout used when rendering DateTime values.
const DateTimeLayout = time.RFC3339Nano

// Text renders v in its natural text form. Null and a nil Value render as
// nullString.
func Text(v Value, nullString string) string {
	switch x := v.(type) {
	case nil, Null:
		return nullString
	case String:
		return string(x)
	case Integer:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return FormatFloat(float64(x))
	case Boolean:
		return strconv.FormatBool(bool(x))
	case DateTime:
		return time.Time(x).Format(DateTimeLayout)
	case Blob:
		return "0x" + hex.EncodeToString(x)
	}
	return nullString
}

// FormatFloat renders f as the shortest decimal that parses back to f.
// Non-finite values use NaN, Infinity and -Infinity.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal reports whether a and b hold the same variant and payload.
// NaN floats compare equal to each other.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Float:
		y := b.(Float)
		if math.IsNaN(float64(x)) && math.IsNaN(float64(y)) {
			return true
		}
		return x == y
	case DateTime:
		return time.Time(x).Equal(time.Time(b.(DateTime)))
	case Blob:
		return string(x) == string(b.(Blob))
	}
	return a == b
}
