package xmlevent

import (
	"fmt"
	"strings"
)

// Name is a qualified name: {Prefix?, Local, NS?}. Go has no nullable
// string, so the empty string means "absent" for both Prefix and NS
// (the namespace URI is resolved later, at StartElement/EndElement
// emission time, against the namespace stack — see namespace.go).
type Name struct {
	Prefix string
	Local  string
	NS     string
}

// HasPrefix reports whether this name was written with an explicit
// "prefix:" in the source.
func (n Name) HasPrefix() bool { return n.Prefix != "" }

// HasNamespace reports whether this name resolved to a namespace URI.
func (n Name) HasNamespace() bool { return n.NS != "" }

func (n Name) String() string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Local
	}
	return n.Local
}

// NewLocalName builds an unprefixed, unresolved Name. Convenience used
// throughout the parser and its tests.
func NewLocalName(local string) Name { return Name{Local: local} }

const (
	// NSXMLPrefix is the reserved "xml" prefix; it is always bound to
	// NSXMLURI and must never appear as an element name prefix.
	NSXMLPrefix = "xml"
	// NSXMLNSPrefix is the reserved "xmlns" prefix used to declare
	// namespace bindings; it must never appear as an element name prefix.
	NSXMLNSPrefix = "xmlns"
	// NSXMLURI is the URI permanently bound to the "xml" prefix.
	NSXMLURI = "http://www.w3.org/XML/1998/namespace"
	// NSXMLNSURI is the URI reserved for namespace declarations
	// themselves; a default namespace declaration is forbidden from
	// rebinding the default namespace to this or to NSXMLURI (spec.md
	// §4.5).
	NSXMLNSURI = "http://www.w3.org/2000/xmlns/"
)

// IsNameStartChar reports whether c may begin an XML Name, per the XML
// 1.1 NameStartChar production (https://www.w3.org/TR/xml11/#NT-NameStartChar).
func IsNameStartChar(c rune) bool {
	switch {
	case c == ':' || c == '_':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= 0xC0 && c <= 0xD6:
		return true
	case c >= 0xD8 && c <= 0xF6:
		return true
	case c >= 0xF8 && c <= 0x2FF:
		return true
	case c >= 0x370 && c <= 0x37D:
		return true
	case c >= 0x37F && c <= 0x1FFF:
		return true
	case c >= 0x200C && c <= 0x200D:
		return true
	case c >= 0x2070 && c <= 0x218F:
		return true
	case c >= 0x2C00 && c <= 0x2FEF:
		return true
	case c >= 0x3001 && c <= 0xD7FF:
		return true
	case c >= 0xF900 && c <= 0xFDCF:
		return true
	case c >= 0xFDF0 && c <= 0xFFFD:
		return true
	case c >= 0x10000 && c <= 0xEFFFF:
		return true
	default:
		return false
	}
}

// IsNameChar reports whether c may occur after the first character of an
// XML Name, per the NameChar production.
func IsNameChar(c rune) bool {
	if IsNameStartChar(c) {
		return true
	}
	switch {
	case c == '-' || c == '.':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == 0xB7:
		return true
	case c >= 0x0300 && c <= 0x036F:
		return true
	case c >= 0x203F && c <= 0x2040:
		return true
	default:
		return false
	}
}

// IsWhitespaceChar reports whether c is XML whitespace (space, tab, CR,
// LF): the S production.
func IsWhitespaceChar(c rune) bool {
	switch c {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}

// ParseQualifiedName splits a raw name buffer on ':' into {Prefix, Local}.
// Exactly one colon is permitted and only after at least one character;
// the caller (readQualifiedName in parser.go) enforces that rule while
// accumulating the buffer, so by the time ParseQualifiedName runs the
// only possible error is an empty local part.
func ParseQualifiedName(raw string) (Name, error) {
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		prefix, local := raw[:i], raw[i+1:]
		if local == "" {
			return Name{}, fmt.Errorf("qualified name is invalid: %s", raw)
		}
		return Name{Prefix: prefix, Local: local}, nil
	}
	if raw == "" {
		return Name{}, fmt.Errorf("qualified name is invalid: %s", raw)
	}
	return Name{Local: raw}, nil
}
