package xml

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Declaration is the XML declaration written when SerializeConfig.Declaration is set.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// SerializeConfig configures Serialize.
type SerializeConfig struct {
	// Indent is repeated once per nesting level. Empty writes compact output.
	Indent string
	// Declaration prefixes the output with the XML declaration.
	Declaration bool
	// SelfClose writes childless elements as <name/>.
	SelfClose bool
}

// Serialize writes the tree rooted at root. Attributes are written in name
// order. When indenting, elements that contain text are written on one line
// so their text is reproduced exactly.
func Serialize(root *Element, cfg SerializeConfig) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root element", ErrInvalidTree)
	}
	if err := validate(root, "/"); err != nil {
		return nil, err
	}

	w := &printer{cfg: cfg}
	if cfg.Declaration {
		w.buf.WriteString(Declaration)
		if cfg.Indent != "" {
			w.buf.WriteByte('\n')
		}
	}
	w.element(root, 0, cfg.Indent == "")
	if cfg.Indent != "" {
		w.buf.WriteByte('\n')
	}
	return w.buf.Bytes(), nil
}

func validate(e *Element, path string) error {
	if !ValidName(e.Name) {
		return fmt.Errorf("%w: invalid element name %q at %s", ErrInvalidTree, e.Name, path)
	}
	path += e.Name
	for name := range e.Attrs {
		if !ValidName(name) {
			return fmt.Errorf("%w: invalid attribute name %q at %s", ErrInvalidTree, name, path)
		}
	}
	for i, c := range e.Children {
		switch c.Kind {
		case TextNode:
		case ElementNode:
			if c.Element == nil {
				return fmt.Errorf("%w: nil element child %d at %s", ErrInvalidTree, i, path)
			}
			if err := validate(c.Element, path+"/"); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown node kind %d at %s", ErrInvalidTree, int(c.Kind), path)
		}
	}
	return nil
}

type printer struct {
	cfg SerializeConfig
	buf bytes.Buffer
}

func (w *printer) element(e *Element, depth int, inline bool) {
	w.buf.WriteByte('<')
	w.buf.WriteString(e.Name)

	names := make([]string, 0, len(e.Attrs))
	for name := range e.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w.buf.WriteByte(' ')
		w.buf.WriteString(name)
		w.buf.WriteString(`="`)
		w.buf.WriteString(EscapeAttr(e.Attrs[name]))
		w.buf.WriteByte('"')
	}

	if len(e.Children) == 0 {
		if w.cfg.SelfClose {
			w.buf.WriteString("/>")
			return
		}
		w.buf.WriteString("></")
		w.buf.WriteString(e.Name)
		w.buf.WriteByte('>')
		return
	}
	w.buf.WriteByte('>')

	inline = inline || hasText(e)
	for _, c := range e.Children {
		if !inline {
			w.newline(depth + 1)
		}
		switch c.Kind {
		case TextNode:
			w.buf.WriteString(EscapeText(c.Text))
		case ElementNode:
			w.element(c.Element, depth+1, inline)
		}
	}
	if !inline {
		w.newline(depth)
	}

	w.buf.WriteString("</")
	w.buf.WriteString(e.Name)
	w.buf.WriteByte('>')
}

func (w *printer) newline(depth int) {
	w.buf.WriteByte('\n')
	w.buf.WriteString(strings.Repeat(w.cfg.Indent, depth))
}

func hasText(e *Element) bool {
	for _, c := range e.Children {
		if c.Kind == TextNode {
			return true
		}
	}
	return false
}
