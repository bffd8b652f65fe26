package xml

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseConfig configures Parse.
type ParseConfig struct {
	// PreserveWhitespace keeps text nodes that consist only of whitespace.
	PreserveWhitespace bool
}

// Parse reads exactly one root element, optionally preceded by an XML
// declaration, comments, processing instructions and a DOCTYPE, and
// followed only by whitespace, comments and processing instructions.
func Parse(data []byte, cfg ParseConfig) (*Element, error) {
	p := &parser{src: string(data), line: 1, col: 1, cfg: cfg}
	if !utf8.Valid(data) {
		return nil, p.errorf("Invalid UTF-8 input")
	}
	p.skipPrefix("\ufeff")

	if err := p.misc(true); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.errorf("Unexpected end of input: expected root element")
	}
	root, err := p.element()
	if err != nil {
		return nil, err
	}
	if err := p.misc(false); err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("Unexpected content after root element")
	}
	return root, nil
}

type parser struct {
	src  string
	i    int
	line int
	col  int
	cfg  ParseConfig
}

type mark struct {
	i, line, col int
}

func (p *parser) mark() mark {
	return mark{p.i, p.line, p.col}
}

func (p *parser) errorf(format string, args ...any) error {
	return p.errorAt(p.mark(), format, args...)
}

func (p *parser) errorAt(m mark, format string, args ...any) error {
	return &SyntaxError{Offset: m.i, Line: m.line, Column: m.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.i >= len(p.src)
}

func (p *parser) peek() rune {
	if p.eof() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.i:])
	return r
}

func (p *parser) next() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.i:])
	p.i += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.i:], s)
}

// skipPrefix consumes s when the input continues with it.
func (p *parser) skipPrefix(s string) bool {
	if !p.hasPrefix(s) {
		return false
	}
	p.advance(len(s))
	return true
}

// advance consumes n bytes, keeping line and column current.
func (p *parser) advance(n int) {
	end := p.i + n
	for p.i < end {
		p.next()
	}
}

func (p *parser) skipSpace() bool {
	skipped := false
	for !p.eof() && isSpace(p.peek()) {
		p.next()
		skipped = true
	}
	return skipped
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isNameStart(r rune) bool {
	return r == '_' || r == ':' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || r == '-' || r == '.' || unicode.IsDigit(r)
}

// ValidName reports whether s is a usable element or attribute name.
func ValidName(s string) bool {
	for i, r := range s {
		if i == 0 && !isNameStart(r) || i > 0 && !isNameChar(r) {
			return false
		}
	}
	return s != ""
}

func (p *parser) name(what string) (string, error) {
	start := p.mark()
	if p.eof() || !isNameStart(p.peek()) {
		return "", p.errorf("Invalid %s name", what)
	}
	for !p.eof() && isNameChar(p.peek()) {
		p.next()
	}
	return p.src[start.i:p.i], nil
}

// skipUntil consumes input through the terminator, or fails with msg at the
// position of the construct's start.
func (p *parser) skipUntil(start mark, terminator, msg string) (string, error) {
	idx := strings.Index(p.src[p.i:], terminator)
	if idx < 0 {
		return "", p.errorAt(start, "%s", msg)
	}
	body := p.src[p.i : p.i+idx]
	p.advance(idx + len(terminator))
	return body, nil
}

// misc skips whitespace, comments and processing instructions around the
// root element. In the prolog a DOCTYPE is also skipped.
func (p *parser) misc(prolog bool) error {
	for {
		p.skipSpace()
		start := p.mark()
		switch {
		case p.skipPrefix("<!--"):
			if _, err := p.skipUntil(start, "-->", "Unterminated comment"); err != nil {
				return err
			}
		case p.skipPrefix("<?"):
			if _, err := p.skipUntil(start, "?>", "Unterminated processing instruction"); err != nil {
				return err
			}
		case prolog && p.hasPrefix("<!DOCTYPE"):
			if err := p.doctype(); err != nil {
				return err
			}
		default:
			if !p.eof() && p.peek() != '<' {
				return p.errorf("Expected '<'")
			}
			return nil
		}
	}
}

// doctype skips a DOCTYPE declaration including an internal subset.
func (p *parser) doctype() error {
	start := p.mark()
	p.advance(len("<!DOCTYPE"))
	depth := 0
	var quote rune
	for !p.eof() {
		r := p.next()
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[':
			depth++
		case r == ']':
			depth--
		case r == '>' && depth <= 0:
			return nil
		}
	}
	return p.errorAt(start, "Unterminated DOCTYPE declaration")
}

func (p *parser) element() (*Element, error) {
	if p.eof() || p.peek() != '<' {
		return nil, p.errorf("Expected '<'")
	}
	open := p.mark()
	p.next()

	name, err := p.name("tag")
	if err != nil {
		return nil, err
	}
	el := &Element{Name: name}

	for {
		spaced := p.skipSpace()
		if p.skipPrefix("/>") {
			return el, nil
		}
		if p.eof() {
			return nil, p.errorAt(open, "Unexpected end of input in tag <%s>", name)
		}
		if p.peek() == '>' {
			p.next()
			break
		}
		if !spaced {
			return nil, p.errorf("Expected whitespace, '>' or '/>' in tag <%s>", name)
		}
		if err := p.attribute(el); err != nil {
			return nil, err
		}
	}

	if err := p.content(el, open); err != nil {
		return nil, err
	}
	return el, nil
}

func (p *parser) attribute(el *Element) error {
	at := p.mark()
	name, err := p.name("attribute")
	if err != nil {
		return err
	}
	if _, dup := el.Attrs[name]; dup {
		return p.errorAt(at, "Duplicate attribute %q", name)
	}

	p.skipSpace()
	if p.eof() || p.peek() != '=' {
		return p.errorf("Expected '=' after attribute name %q", name)
	}
	p.next()
	p.skipSpace()

	if p.eof() {
		return p.errorf("Unexpected end of input: expected attribute value")
	}
	quote := p.peek()
	if quote != '"' && quote != '\'' {
		return p.errorf("Expected quote to open value of attribute %q", name)
	}
	valueStart := p.mark()
	p.next()

	var b strings.Builder
	for {
		if p.eof() {
			return p.errorAt(valueStart, "Unterminated attribute value")
		}
		r := p.peek()
		switch r {
		case quote:
			p.next()
			if el.Attrs == nil {
				el.Attrs = make(map[string]string)
			}
			el.Attrs[name] = b.String()
			return nil
		case '<':
			return p.errorf("Invalid character '<' in attribute value")
		case '&':
			ch, err := p.reference()
			if err != nil {
				return err
			}
			b.WriteRune(ch)
		default:
			b.WriteRune(p.next())
		}
	}
}

// reference consumes an entity or character reference starting at '&'.
func (p *parser) reference() (rune, error) {
	at := p.mark()
	rest := p.src[p.i+1:]
	end := strings.IndexByte(rest, ';')
	if end < 0 || end > maxEntityLen {
		return 0, p.errorAt(at, "Unterminated entity reference")
	}
	body := rest[:end]
	r, ok := decodeEntity(body)
	if !ok {
		if strings.HasPrefix(body, "#") {
			return 0, p.errorAt(at, "Invalid character reference '&%s;'", body)
		}
		return 0, p.errorAt(at, "Unknown entity '&%s;'", body)
	}
	p.advance(end + 2)
	return r, nil
}

// content reads children up to and including the closing tag of el.
func (p *parser) content(el *Element, open mark) error {
	var text strings.Builder
	hasCDATA := false

	flush := func() {
		if text.Len() == 0 && !hasCDATA {
			return
		}
		s := text.String()
		if hasCDATA || p.cfg.PreserveWhitespace || strings.TrimFunc(s, isSpace) != "" {
			el.Children = append(el.Children, Text(s))
		}
		text.Reset()
		hasCDATA = false
	}

	for {
		if p.eof() {
			return p.errorAt(open, "Unexpected end of input: unclosed element <%s>", el.Name)
		}
		start := p.mark()

		switch {
		case p.skipPrefix("</"):
			flush()
			closing, err := p.name("tag")
			if err != nil {
				return err
			}
			p.skipSpace()
			if p.eof() || p.peek() != '>' {
				return p.errorf("Expected '>' to end closing tag </%s>", closing)
			}
			if closing != el.Name {
				return p.errorAt(start, "Mismatched closing tag: expected </%s> but found </%s>", el.Name, closing)
			}
			p.next()
			return nil

		case p.skipPrefix("<!--"):
			if _, err := p.skipUntil(start, "-->", "Unterminated comment"); err != nil {
				return err
			}

		case p.skipPrefix("<![CDATA["):
			body, err := p.skipUntil(start, "]]>", "Unterminated CDATA section")
			if err != nil {
				return err
			}
			text.WriteString(body)
			hasCDATA = true

		case p.skipPrefix("<?"):
			if _, err := p.skipUntil(start, "?>", "Unterminated processing instruction"); err != nil {
				return err
			}

		case p.hasPrefix("<"):
			flush()
			child, err := p.element()
			if err != nil {
				return err
			}
			el.Children = append(el.Children, Child(child))

		case p.hasPrefix("&"):
			r, err := p.reference()
			if err != nil {
				return err
			}
			text.WriteRune(r)

		default:
			text.WriteRune(p.next())
		}
	}
}
