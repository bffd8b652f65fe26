package value

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Cell wraps a Value for the JSON wire form used by the HTTP API:
//
//	{"type":"integer","value":30}
//	{"type":"blob","value":"0xdeadbeef"}
//	{"type":"null"}
type Cell struct {
	Value Value
}

type wireCell struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Cell) MarshalJSON() ([]byte, error) {
	v := c.Value
	if v == nil {
		v = Null{}
	}

	var payload any
	switch x := v.(type) {
	case Null:
		return json.Marshal(wireCell{Type: KindNull.String()})
	case String:
		payload = string(x)
	case Integer:
		payload = int64(x)
	case Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// JSON has no literal for these.
			payload = FormatFloat(f)
		} else {
			payload = f
		}
	case Boolean:
		payload = bool(x)
	case DateTime:
		payload = time.Time(x).Format(DateTimeLayout)
	case Blob:
		payload = "0x" + hex.EncodeToString(x)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireCell{Type: v.Kind().String(), Value: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var w wireCell
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	kind, ok := ParseKind(strings.ToLower(w.Type))
	if !ok {
		return fmt.Errorf("unknown value type %q", w.Type)
	}
	if kind == KindNull {
		c.Value = Null{}
		return nil
	}
	if len(w.Value) == 0 {
		return fmt.Errorf("missing value for type %q", w.Type)
	}

	switch kind {
	case KindString:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("string value: %w", err)
		}
		c.Value = String(s)
	case KindInteger:
		var i int64
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return fmt.Errorf("integer value: %w", err)
		}
		c.Value = Integer(i)
	case KindFloat:
		f, err := unmarshalFloat(w.Value)
		if err != nil {
			return fmt.Errorf("float value: %w", err)
		}
		c.Value = Float(f)
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return fmt.Errorf("boolean value: %w", err)
		}
		c.Value = Boolean(b)
	case KindDateTime:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("datetime value: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("datetime value: %w", err)
		}
		c.Value = DateTime(t)
	case KindBlob:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("blob value: %w", err)
		}
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
		if err != nil {
			return fmt.Errorf("blob value: %w", err)
		}
		c.Value = Blob(b)
	}
	return nil
}

func unmarshalFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	return 0, fmt.Errorf("invalid float %q", s)
}

// WireRow is the JSON form of a Row.
type WireRow map[string]Cell

// EncodeRow converts a Row to its wire form.
func EncodeRow(row Row) WireRow {
	out := make(WireRow, len(row))
	for k, v := range row {
		out[k] = Cell{Value: v}
	}
	return out
}

// DecodeRow converts a wire row back to a Row.
func DecodeRow(w WireRow) Row {
	out := make(Row, len(w))
	for k, c := range w {
		v := c.Value
		if v == nil {
			v = Null{}
		}
		out[k] = v
	}
	return out
}

// EncodeRows converts rows to their wire form.
func EncodeRows(rows []Row) []WireRow {
	out := make([]WireRow, len(rows))
	for i, row := range rows {
		out[i] = EncodeRow(row)
	}
	return out
}

// DecodeRows converts wire rows back to Rows.
func DecodeRows(rows []WireRow) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = DecodeRow(row)
	}
	return out
}
