package xmlevent_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbor-xml/pullxml/xmlevent"
	"github.com/arbor-xml/pullxml/xmllex"
)

// node is a minimal in-memory tree built purely from parser events, just
// enough to compare two parses structurally. It plays the same role the
// teacher's Element tree played for DecodeXML/PrettyPrint in its own
// round-trip tests, scaled down to this parser's event set.
type node struct {
	name     string
	attrs    map[string]string
	text     string
	children []*node
}

func buildTree(t *testing.T, events []xmlevent.Event) *node {
	t.Helper()
	root := &node{attrs: map[string]string{}}
	stack := []*node{root}

	for _, ev := range events {
		top := stack[len(stack)-1]
		switch ev.Kind {
		case xmlevent.StartElement:
			n := &node{name: ev.Name.String(), attrs: map[string]string{}}
			for _, a := range ev.Attributes {
				n.attrs[a.Name.String()] = a.Value
			}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xmlevent.EndElement:
			stack = stack[:len(stack)-1]
		case xmlevent.Characters:
			top.text += ev.Text
		case xmlevent.Error:
			t.Fatalf("unexpected parse error: %s @%s", ev.Message, ev.Pos)
		}
	}
	return root
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func serialize(b *strings.Builder, n *node) {
	for _, c := range n.children {
		b.WriteString("<" + c.name)
		for k, v := range c.attrs {
			fmt.Fprintf(b, " %s=%q", k, v)
		}
		b.WriteString(">")
		b.WriteString(textEscaper.Replace(c.text))
		serialize(b, c)
		b.WriteString("</" + c.name + ">")
	}
}

func parseToTree(t *testing.T, xml string) *node {
	t.Helper()
	lexer := xmllex.New(strings.NewReader(xml))
	parser := xmlevent.NewParser(lexer, xmlevent.DefaultConfig())

	var events []xmlevent.Event
	for {
		ev := parser.Next()
		events = append(events, ev)
		if ev.IsTerminal() {
			break
		}
	}
	return buildTree(t, events)
}

// TestRoundTripPreservesStructure parses a document, re-serializes the
// resulting tree, and parses the re-serialization again: the second tree
// must match the first. Attribute order isn't guaranteed (attrs is a map),
// so documents here carry at most one attribute per element.
func TestRoundTripPreservesStructure(t *testing.T) {
	documents := []string{
		`<root/>`,
		`<root><a/><b/></root>`,
		`<root><a attr="1">text</a><b>more &amp; text</b></root>`,
		`<root>  <a/>  </root>`,
		`<root xmlns="urn:x"><a attr="1">text</a></root>`,
		`<root><a>1--2</a></root>`,
	}

	for _, doc := range documents {
		doc := doc
		t.Run(doc, func(t *testing.T) {
			first := parseToTree(t, doc)

			var b strings.Builder
			serialize(&b, first)

			second := parseToTree(t, b.String())

			require.Equal(t, treeShape(first), treeShape(second), "round trip changed tree shape for %q -> %q", doc, b.String())
		})
	}
}

// treeShape strips attribute maps down to a comparable, order-independent
// form (names + text + recursive child shapes) since require.Equal on the
// raw node pointers would compare addresses, not content.
type shape struct {
	name     string
	text     string
	children []shape
}

func treeShape(n *node) shape {
	s := shape{name: n.name, text: n.text}
	for _, c := range n.children {
		s.children = append(s.children, treeShape(c))
	}
	return s
}
