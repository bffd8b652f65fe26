// Package xml implements a small recursive-descent XML parser and printer
// for element trees. It handles elements, attributes, text, CDATA sections,
// comments, processing instructions and a DOCTYPE prolog, decodes the five
// predefined entities and numeric character references, and reports every
// syntax error with its line and column.
//
// Namespaces, DTD validation and custom entities are not supported.
package xml

import (
	"errors"
	"fmt"
)

// NodeKind tags a child of an element.
type NodeKind int

const (
	TextNode NodeKind = iota
	ElementNode
)

func (k NodeKind) String() string {
	switch k {
	case TextNode:
		return "text"
	case ElementNode:
		return "element"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one ordered child of an element: either text or a nested element.
type Node struct {
	Kind    NodeKind
	Text    string
	Element *Element
}

// Element is a named element with its attributes and ordered children.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []Node
}

// Text returns a text node.
func Text(s string) Node {
	return Node{Kind: TextNode, Text: s}
}

// Child returns an element node wrapping e.
func Child(e *Element) Node {
	return Node{Kind: ElementNode, Element: e}
}

// Elements returns the direct child elements in document order.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Kind == ElementNode && c.Element != nil {
			out = append(out, c.Element)
		}
	}
	return out
}

// ErrSyntax is the sentinel wrapped by every *SyntaxError.
var ErrSyntax = errors.New("xml syntax error")

// SyntaxError is a parse failure at a 1-based line and rune column.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Msg, e.Line, e.Column)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// ErrInvalidTree is returned by Serialize for trees that cannot be written.
var ErrInvalidTree = errors.New("invalid xml tree")
