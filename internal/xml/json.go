package xml

import (
	"encoding/json"
	"fmt"
)

// wireNode is the JSON form of a Node used by the HTTP API.
type wireNode struct {
	Type       string            `json:"type"`
	Text       string            `json:"text,omitempty"`
	Name       string            `json:"name,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Children   []Node            `json:"children,omitempty"`
}

// MarshalJSON writes text nodes as {"type":"text","text":...} and elements
// as {"type":"element","name":...,"attributes":{...},"children":[...]}.
func (n Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case TextNode:
		return json.Marshal(wireNode{Type: "text", Text: n.Text})
	case ElementNode:
		if n.Element == nil {
			return nil, fmt.Errorf("%w: nil element node", ErrInvalidTree)
		}
		return json.Marshal(n.Element)
	}
	return nil, fmt.Errorf("%w: unknown node kind %d", ErrInvalidTree, int(n.Kind))
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "text":
		*n = Text(w.Text)
	case "element":
		*n = Child(&Element{Name: w.Name, Attrs: w.Attributes, Children: w.Children})
	default:
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidTree, w.Type)
	}
	return nil
}

// MarshalJSON writes e in the element form of Node.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireNode{Type: "element", Name: e.Name, Attributes: e.Attrs, Children: e.Children})
}

// UnmarshalJSON reads an element; the "type" field may be omitted.
func (e *Element) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != "" && w.Type != "element" {
		return fmt.Errorf("%w: expected element, got %q", ErrInvalidTree, w.Type)
	}
	*e = Element{Name: w.Name, Attrs: w.Attributes, Children: w.Children}
	return nil
}
