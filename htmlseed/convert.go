// Package htmlseed turns parsed HTML into well-formed XML text, so that
// content scraped from the web — which is rarely valid XML on its own
// account of unclosed void elements, unescaped ampersands, and the
// like — can still be fed to the streaming parser in xmlevent. Adapted
// from the teacher's ConvertHTMLToXML, which served the same "seed a
// strict XML pipeline from loose HTML" role ahead of tokenization.
package htmlseed

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Convert parses r as HTML and renders it back out as indented,
// well-formed XML: every element gets an explicit closing tag (so void
// elements like <br> or <img> are turned into <br></br>), attribute and
// text values are entity-escaped, and the "xmlns" attribute is dropped
// since HTML's bare namespace hints don't carry a URI the core parser
// could bind.
func Convert(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	var walk func(n *html.Node, depth int, insideComplex bool)
	walk = func(n *html.Node, depth int, insideComplex bool) {
		switch n.Type {
		case html.ElementNode:
			hasElementChildren := false
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode {
					hasElementChildren = true
					break
				}
			}

			indent := ""
			if depth >= 0 {
				indent = "\n" + strings.Repeat("  ", depth)
			}

			b.WriteString(indent + "<" + n.Data)
			for _, a := range n.Attr {
				if a.Key == "xmlns" {
					continue
				}
				b.WriteString(" " + sanitizeAttrName(a.Key) + "=\"")
				xml.EscapeText(&b, []byte(a.Val))
				b.WriteString("\"")
			}
			b.WriteString(">")

			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if hasElementChildren {
					if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
						continue
					}
					walk(c, depth+1, true)
				} else {
					walk(c, depth, false)
				}
			}

			if hasElementChildren {
				b.WriteString(indent + "</" + n.Data + ">")
			} else {
				b.WriteString("</" + n.Data + ">")
			}
			return

		case html.TextNode:
			data := strings.TrimSpace(n.Data)
			if data != "" {
				if insideComplex {
					b.WriteString("\n" + strings.Repeat("  ", depth))
				}
				xml.EscapeText(&b, []byte(data))
			}
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth, insideComplex)
		}
	}

	walk(doc, 0, true)
	return strings.TrimSpace(b.String()), nil
}

// sanitizeAttrName replaces characters HTML tolerates in attribute names
// but XML Name productions reject (spec.md §4.3), so the seeded document
// never fails parsing on something as mundane as a data-* attribute typed
// with a stray character by a scraped page.
func sanitizeAttrName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case i == 0 && isNameStartASCII(r):
			b.WriteRune(r)
		case i > 0 && isNameASCII(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func isNameStartASCII(r rune) bool {
	return r == '_' || r == ':' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isNameASCII(r rune) bool {
	return isNameStartASCII(r) || r == '-' || r == '.' || (r >= '0' && r <= '9')
}
