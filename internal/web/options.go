package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/dialect/internal/config"
	"github.com/JonMunkholm/dialect/internal/core"
	"github.com/JonMunkholm/dialect/internal/csv"
	"github.com/JonMunkholm/dialect/internal/xml"
)

// columnParamPrefix marks per-column type declarations, e.g. col.age=integer.
const columnParamPrefix = "col."

// newlineNames maps request spellings to line terminators. Unknown values are
// used literally, so "\r\n" itself is also accepted.
var newlineNames = map[string]string{
	"lf":   "\n",
	"crlf": "\r\n",
	"cr":   "\r",
}

func newlineValue(s string) string {
	if nl, ok := newlineNames[strings.ToLower(s)]; ok {
		return nl
	}
	return s
}

func boolParam(q url.Values, name string, def bool) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false, got %q", core.ErrInvalidOptions, name, raw)
	}
	return b, nil
}

// parseCSVOptions reads CSV parse options from the query string. The
// "header" parameter is required. A "null" parameter that is present but
// empty makes empty fields null.
func parseCSVOptions(q url.Values) (csv.ParseConfig, error) {
	cfg := csv.ParseConfig{
		Delimiter:  q.Get("delimiter"),
		QuoteChar:  q.Get("quote"),
		EscapeChar: q.Get("escape"),
		Newline:    newlineValue(q.Get("newline")),
	}

	if q.Get("header") == "" {
		return cfg, fmt.Errorf("%w: header is required and must be true or false", core.ErrInvalidOptions)
	}
	var err error
	if cfg.HasHeader, err = boolParam(q, "header", false); err != nil {
		return cfg, err
	}
	if cfg.SkipEmptyLines, err = boolParam(q, "skip_empty", false); err != nil {
		return cfg, err
	}
	if cfg.TrimFields, err = boolParam(q, "trim", false); err != nil {
		return cfg, err
	}
	if q.Has("null") {
		cfg.NullString = csv.Null(q.Get("null"))
	}

	for key, vals := range q {
		name, ok := strings.CutPrefix(key, columnParamPrefix)
		if !ok {
			continue
		}
		if name == "" {
			return cfg, fmt.Errorf("%w: column type parameter without a column name", core.ErrInvalidOptions)
		}
		t, err := csv.ParseColumnType(vals[0])
		if err != nil {
			return cfg, fmt.Errorf("%w: column %q: %w", core.ErrInvalidOptions, name, err)
		}
		if cfg.Columns == nil {
			cfg.Columns = make(map[string]csv.ColumnType)
		}
		cfg.Columns[name] = t
	}
	return cfg, nil
}

// exportOptions reads CSV serialize options for a table export, starting
// from the configured export defaults. It also returns the row limit.
func exportOptions(q url.Values, defaults config.ExportConfig) (csv.SerializeConfig, int, error) {
	cfg := csv.DefaultSerializeConfig()
	cfg.Delimiter = defaults.Delimiter
	cfg.NullString = defaults.NullString
	cfg.IncludeHeader = defaults.IncludeHeader

	if q.Has("delimiter") {
		cfg.Delimiter = q.Get("delimiter")
	}
	if q.Has("quote") {
		cfg.QuoteChar = q.Get("quote")
		cfg.EscapeChar = cfg.QuoteChar
	}
	if q.Has("null") {
		cfg.NullString = q.Get("null")
	}
	if q.Has("newline") {
		cfg.Newline = newlineValue(q.Get("newline"))
	}

	var err error
	if cfg.IncludeHeader, err = boolParam(q, "header", cfg.IncludeHeader); err != nil {
		return cfg, 0, err
	}
	if cfg.AlwaysQuote, err = boolParam(q, "always_quote", false); err != nil {
		return cfg, 0, err
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return cfg, 0, fmt.Errorf("%w: limit must be a non-negative integer, got %q", core.ErrInvalidOptions, raw)
		}
	}
	return cfg, limit, nil
}

// csvSerializeOptions is the JSON form of csv.SerializeConfig. Omitted
// fields keep the csv.DefaultSerializeConfig values.
type csvSerializeOptions struct {
	Delimiter     *string `json:"delimiter"`
	QuoteChar     *string `json:"quote_char"`
	EscapeChar    *string `json:"escape_char"`
	Newline       *string `json:"newline"`
	IncludeHeader *bool   `json:"include_header"`
	NullString    *string `json:"null_string"`
	AlwaysQuote   bool    `json:"always_quote"`
}

func (o csvSerializeOptions) config() csv.SerializeConfig {
	cfg := csv.DefaultSerializeConfig()
	if o.Delimiter != nil {
		cfg.Delimiter = *o.Delimiter
	}
	if o.QuoteChar != nil {
		cfg.QuoteChar = *o.QuoteChar
		cfg.EscapeChar = *o.QuoteChar
	}
	if o.EscapeChar != nil {
		cfg.EscapeChar = *o.EscapeChar
	}
	if o.Newline != nil {
		cfg.Newline = newlineValue(*o.Newline)
	}
	if o.IncludeHeader != nil {
		cfg.IncludeHeader = *o.IncludeHeader
	}
	if o.NullString != nil {
		cfg.NullString = *o.NullString
	}
	cfg.AlwaysQuote = o.AlwaysQuote
	return cfg
}

// xmlSerializeOptions is the JSON form of xml.SerializeConfig.
type xmlSerializeOptions struct {
	Indent      string `json:"indent"`
	Declaration bool   `json:"declaration"`
	SelfClose   bool   `json:"self_close"`
}

func (o xmlSerializeOptions) config() xml.SerializeConfig {
	return xml.SerializeConfig{Indent: o.Indent, Declaration: o.Declaration, SelfClose: o.SelfClose}
}
