package csv

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JonMunkholm/dialect/internal/value"
)

// Parse converts CSV text into typed rows.
//
// Rows are numbered by physical line (the header, when present, is row 1)
// and fields by their 1-based ordinal; both appear in every error message.
// The first failure aborts the call and is returned as a *ParseError.
func Parse(data []byte, cfg ParseConfig) ([]value.Row, error) {
	_, rows, err := ParseWithHeader(data, cfg)
	return rows, err
}

// ParseWithHeader is Parse that also returns the column names in file order,
// either from the header line or synthesized as column_0, column_1, ...
func ParseWithHeader(data []byte, cfg ParseConfig) ([]string, []value.Row, error) {
	d, err := cfg.resolve()
	if err != nil {
		return nil, nil, &ParseError{Msg: err.Error(), Err: err}
	}
	if !utf8.Valid(data) {
		return nil, nil, &ParseError{Msg: ErrInvalidUTF8.Error(), Err: ErrInvalidUTF8}
	}

	text := string(data)
	if d.newline == "" {
		d.newline = detectNewline(text)
	}

	p := &parser{d: d, cfg: cfg}
	return p.parse(text)
}

type parser struct {
	d   dialect
	cfg ParseConfig

	header []string
	rows   []value.Row
}

// field is one extracted cell before null detection and coercion.
type field struct {
	text   string
	quoted bool
	pos    Position
}

func (p *parser) parse(text string) ([]string, []value.Row, error) {
	lines := strings.Split(text, p.d.newline)
	// A terminating newline does not open another row.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	offset := 0
	for i, line := range lines {
		lineNo := i + 1
		base := offset
		offset += len(line) + len(p.d.newline)

		if p.cfg.SkipEmptyLines && strings.TrimSpace(line) == "" {
			continue
		}

		s := &scanner{d: p.d, trim: p.cfg.TrimFields, line: line, row: lineNo, base: base, col: 1}
		fields, err := s.scanLine()
		if err != nil {
			return nil, nil, err
		}

		if p.header == nil {
			if p.cfg.HasHeader {
				if err := p.setHeader(fields, lineNo); err != nil {
					return nil, nil, err
				}
				continue
			}
			p.header = make([]string, len(fields))
			for j := range fields {
				p.header[j] = "column_" + strconv.Itoa(j)
			}
		}

		row, err := p.buildRow(fields, lineNo, s.position())
		if err != nil {
			return nil, nil, err
		}
		p.rows = append(p.rows, row)
	}

	return p.header, p.rows, nil
}

func (p *parser) setHeader(fields []field, lineNo int) error {
	p.header = make([]string, len(fields))
	seen := make(map[string]bool, len(fields))
	for j, f := range fields {
		if seen[f.text] {
			return &ParseError{
				Row:    lineNo,
				Column: j + 1,
				Pos:    f.pos,
				Msg:    fmt.Sprintf("Duplicate header %q in row %d, column %d", f.text, lineNo, j+1),
				Err:    ErrDuplicateHeader,
			}
		}
		seen[f.text] = true
		p.header[j] = f.text
	}
	return nil
}

func (p *parser) buildRow(fields []field, lineNo int, end Position) (value.Row, error) {
	want := len(p.header)
	if len(fields) > want {
		return nil, &ParseError{
			Row:    lineNo,
			Column: want + 1,
			Pos:    fields[want].pos,
			Msg:    fmt.Sprintf("Too many fields in row %d: expected %d columns, got %d", lineNo, want, len(fields)),
			Err:    ErrFieldCount,
		}
	}
	if len(fields) < want {
		return nil, &ParseError{
			Row:    lineNo,
			Column: len(fields),
			Pos:    end,
			Msg:    fmt.Sprintf("Too few fields in row %d: expected %d columns, got %d", lineNo, want, len(fields)),
			Err:    ErrFieldCount,
		}
	}

	row := make(value.Row, want)
	for j, f := range fields {
		name := p.header[j]
		if p.cfg.NullString != nil && f.text == *p.cfg.NullString {
			row[name] = value.Null{}
			continue
		}

		v, err := Coerce(f.text, p.cfg.Columns[name])
		if err != nil {
			return nil, &ParseError{
				Row:    lineNo,
				Column: j + 1,
				Pos:    f.pos,
				Msg:    fmt.Sprintf("Failed to parse value for header %s in row %d, column %d: %s", name, lineNo, j+1, err.Error()),
				Err:    err,
			}
		}
		row[name] = v
	}
	return row, nil
}

// scanner walks one line rune by rune. i is the byte index into line and col
// the 1-based rune column of the next unread rune.
type scanner struct {
	d    dialect
	trim bool

	line string
	row  int
	base int

	i   int
	col int
}

func (s *scanner) eol() bool {
	return s.i >= len(s.line)
}

func (s *scanner) peek() rune {
	if s.eol() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.line[s.i:])
	return r
}

func (s *scanner) next() rune {
	r, size := utf8.DecodeRuneInString(s.line[s.i:])
	s.i += size
	s.col++
	return r
}

func (s *scanner) position() Position {
	return Position{Offset: s.base + s.i, Line: s.row, Column: s.col}
}

func (s *scanner) skipSpace() {
	for !s.eol() {
		r := s.peek()
		if r == s.d.delim || !unicode.IsSpace(r) {
			return
		}
		s.next()
	}
}

func (s *scanner) fail(fieldNo int, pos Position, kind error, what string) error {
	return &ParseError{
		Row:    s.row,
		Column: fieldNo,
		Pos:    pos,
		Msg:    fmt.Sprintf("%s in row %d, column %d (%s)", what, s.row, fieldNo, pos),
		Err:    kind,
	}
}

func (s *scanner) scanLine() ([]field, error) {
	var fields []field
	for {
		f, err := s.scanField(len(fields) + 1)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if s.eol() {
			return fields, nil
		}
		// scanField stops only at a delimiter or the end of the line.
		s.next()
	}
}

func (s *scanner) scanField(fieldNo int) (field, error) {
	start := *s
	if s.trim {
		s.skipSpace()
	}
	if !s.eol() && s.peek() == s.d.quote {
		return s.scanQuoted(fieldNo)
	}
	*s = start
	return s.scanUnquoted(), nil
}

func (s *scanner) scanUnquoted() field {
	pos := s.position()
	from := s.i
	for !s.eol() && s.peek() != s.d.delim {
		s.next()
	}
	text := s.line[from:s.i]
	if s.trim {
		text = strings.TrimSpace(text)
	}
	return field{text: text, pos: pos}
}

func (s *scanner) scanQuoted(fieldNo int) (field, error) {
	pos := s.position()
	s.next() // opening quote

	var b strings.Builder
	distinctEscape := s.d.escape != s.d.quote

	for {
		if s.eol() {
			return field{}, s.fail(fieldNo, s.position(), ErrUnclosedQuote, "Unclosed quote")
		}

		at := s.position()
		r := s.next()

		switch {
		case distinctEscape && r == s.d.escape:
			if s.eol() {
				return field{}, s.fail(fieldNo, at, ErrInvalidEscape, "Invalid escape sequence")
			}
			n := s.peek()
			if n != s.d.quote && n != s.d.escape {
				return field{}, s.fail(fieldNo, at, ErrInvalidEscape, "Invalid escape sequence")
			}
			b.WriteRune(s.next())

		case r == s.d.quote:
			if !s.eol() && s.peek() == s.d.quote {
				b.WriteRune(s.next())
				continue
			}
			if s.trim {
				s.skipSpace()
			}
			if !s.eol() && s.peek() != s.d.delim {
				return field{}, s.fail(fieldNo, s.position(), ErrExpectedDelimiter, "Expected delimiter or newline after closing quote")
			}
			return field{text: b.String(), quoted: true, pos: pos}, nil

		default:
			b.WriteRune(r)
		}
	}
}
