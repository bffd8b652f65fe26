package csv

import (
	"bytes"
	"strings"

	"github.com/JonMunkholm/dialect/internal/value"
)

// Serialize writes rows as CSV text.
//
// Columns are the union of keys across all rows in sorted order; a row that
// lacks a column is written as if it held value.Null. A field is quoted when
// AlwaysQuote is set or its text contains the delimiter, the quote character
// or the newline sequence; embedded quotes are always doubled. Zero rows
// produce empty output even when IncludeHeader is set.
func Serialize(rows []value.Row, cfg SerializeConfig) ([]byte, error) {
	d, err := cfg.resolve()
	if err != nil {
		return nil, &SerializeError{Msg: err.Error(), Err: err}
	}
	if len(rows) == 0 {
		return []byte{}, nil
	}

	w := &writer{d: d, alwaysQuote: cfg.AlwaysQuote}
	columns := value.Columns(rows)

	if cfg.IncludeHeader {
		w.writeRecord(columns)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = value.Text(row[col], cfg.NullString)
		}
		w.writeRecord(record)
	}

	return w.buf.Bytes(), nil
}

type writer struct {
	d           dialect
	alwaysQuote bool
	buf         bytes.Buffer
}

func (w *writer) writeRecord(fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.buf.WriteRune(w.d.delim)
		}
		w.writeField(f)
	}
	w.buf.WriteString(w.d.newline)
}

func (w *writer) writeField(f string) {
	if !w.alwaysQuote && !w.fieldNeedsQuote(f) {
		w.buf.WriteString(f)
		return
	}

	w.buf.WriteRune(w.d.quote)
	for _, r := range f {
		if r == w.d.quote {
			w.buf.WriteRune(r)
		}
		w.buf.WriteRune(r)
	}
	w.buf.WriteRune(w.d.quote)
}

// fieldNeedsQuote reports whether f must be quoted. Bare CR and LF count as
// line breaks whatever the configured newline.
func (w *writer) fieldNeedsQuote(f string) bool {
	return strings.ContainsRune(f, w.d.delim) ||
		strings.ContainsRune(f, w.d.quote) ||
		strings.Contains(f, w.d.newline) ||
		strings.ContainsAny(f, "\r\n")
}
