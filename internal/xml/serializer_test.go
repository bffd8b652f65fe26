package xml

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree() *Element {
	return &Element{
		Name:  "order",
		Attrs: map[string]string{"id": "42", "note": `say "hi" <now>`},
		Children: []Node{
			Child(&Element{Name: "item", Children: []Node{Text("fish & chips")}}),
			Child(&Element{Name: "empty"}),
			Child(&Element{Name: "p", Children: []Node{
				Text("Hi "),
				Child(&Element{Name: "b", Children: []Node{Text("there")}}),
				Text("!"),
			}}),
		},
	}
}

func TestSerialize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  SerializeConfig
		want string
	}{
		{
			name: "compact",
			cfg:  SerializeConfig{},
			want: `<order id="42" note="say &quot;hi&quot; &lt;now&gt;"><item>fish &amp; chips</item><empty></empty><p>Hi <b>there</b>!</p></order>`,
		},
		{
			name: "indentedSelfClose",
			cfg:  SerializeConfig{Indent: "  ", SelfClose: true},
			want: "<order id=\"42\" note=\"say &quot;hi&quot; &lt;now&gt;\">\n" +
				"  <item>fish &amp; chips</item>\n" +
				"  <empty/>\n" +
				"  <p>Hi <b>there</b>!</p>\n" +
				"</order>\n",
		},
		{
			name: "declarationCompact",
			cfg:  SerializeConfig{Declaration: true, SelfClose: true},
			want: Declaration + `<order id="42" note="say &quot;hi&quot; &lt;now&gt;"><item>fish &amp; chips</item><empty/><p>Hi <b>there</b>!</p></order>`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Serialize(sampleTree(), tc.cfg)
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}
			if diff := cmp.Diff(tc.want, string(got)); diff != "" {
				t.Errorf("Serialize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerializeAttributeWhitespace(t *testing.T) {
	t.Parallel()

	root := &Element{Name: "a", Attrs: map[string]string{"v": "x\ty\nz\r"}}
	out, err := Serialize(root, SerializeConfig{SelfClose: true})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if want := `<a v="x&#9;y&#10;z&#13;"/>`; string(out) != want {
		t.Fatalf("Serialize() = %q, want %q", out, want)
	}

	back, err := Parse(out, ParseConfig{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := back.Attrs["v"]; got != "x\ty\nz\r" {
		t.Errorf("attribute round trip = %q", got)
	}
}

func TestSerializeInvalidTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		root *Element
	}{
		{name: "nilRoot", root: nil},
		{name: "emptyName", root: &Element{}},
		{name: "digitName", root: &Element{Name: "1st"}},
		{name: "badAttribute", root: &Element{Name: "a", Attrs: map[string]string{"bad name": "x"}}},
		{name: "nilChild", root: &Element{Name: "a", Children: []Node{{Kind: ElementNode}}}},
		{name: "unknownKind", root: &Element{Name: "a", Children: []Node{{Kind: NodeKind(9)}}}},
		{name: "deepInvalid", root: &Element{Name: "a", Children: []Node{Child(&Element{Name: "b", Children: []Node{Child(&Element{Name: "-c"})}})}}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Serialize(tc.root, SerializeConfig{}); !errors.Is(err, ErrInvalidTree) {
				t.Errorf("Serialize() error = %v, want ErrInvalidTree", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, cfg := range []SerializeConfig{
		{},
		{SelfClose: true},
		{Indent: "\t", Declaration: true, SelfClose: true},
	} {
		out, err := Serialize(sampleTree(), cfg)
		if err != nil {
			t.Fatalf("Serialize(%+v) error = %v", cfg, err)
		}
		got, err := Parse(out, ParseConfig{})
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", out, err)
		}
		if diff := cmp.Diff(sampleTree(), got); diff != "" {
			t.Errorf("round trip with %+v mismatch (-want +got):\n%s", cfg, diff)
		}
	}
}

func TestElementHelpers(t *testing.T) {
	t.Parallel()

	root := sampleTree()
	if got := len(root.Elements()); got != 3 {
		t.Errorf("len(Elements()) = %d, want 3", got)
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(sampleTree())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Element
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(sampleTree(), &got); diff != "" {
		t.Errorf("JSON round trip mismatch (-want +got):\n%s", diff)
	}

	var bare Element
	if err := json.Unmarshal([]byte(`{"name":"a","children":[{"type":"text","text":"x"}]}`), &bare); err != nil {
		t.Fatalf("Unmarshal(untyped root) error = %v", err)
	}
	if bare.Name != "a" || len(bare.Children) != 1 || bare.Children[0].Text != "x" {
		t.Errorf("untyped root = %+v", bare)
	}

	var bad Element
	err = json.Unmarshal([]byte(`{"name":"a","children":[{"type":"comment"}]}`), &bad)
	if !errors.Is(err, ErrInvalidTree) {
		t.Errorf("Unmarshal(unknown type) error = %v, want ErrInvalidTree", err)
	}
}
