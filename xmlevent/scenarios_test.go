package xmlevent_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/arbor-xml/pullxml/xmlevent"
	"github.com/arbor-xml/pullxml/xmllex"
)

func collect(t *testing.T, input string, config xmlevent.Config) []xmlevent.Event {
	t.Helper()
	lexer := xmllex.New(strings.NewReader(input))
	parser := xmlevent.NewParser(lexer, config)

	var events []xmlevent.Event
	for {
		ev := parser.Next()
		events = append(events, ev)
		if ev.IsTerminal() {
			break
		}
	}
	return events
}

// A self-closing tag with an attribute whose value contains a bare,
// unescaped ';' must parse the ';' as literal text and still emit two
// events: StartElement immediately followed by EndElement, both for the
// same resolved name.
func TestScenarioSelfClosingWithLiteralSemicolon(t *testing.T) {
	events := collect(t, `<a attr="zzz;zzz" />`, xmlevent.DefaultConfig())

	var start, end xmlevent.Event
	for _, ev := range events {
		switch ev.Kind {
		case xmlevent.StartElement:
			start = ev
		case xmlevent.EndElement:
			end = ev
		}
	}

	if start.Kind != xmlevent.StartElement || start.Name.Local != "a" {
		t.Fatalf("expected StartElement a, got %v", start)
	}
	if len(start.Attributes) != 1 || start.Attributes[0].Value != "zzz;zzz" {
		t.Fatalf("expected attribute attr=zzz;zzz, got %v", start.Attributes)
	}
	if end.Kind != xmlevent.EndElement || end.Name != start.Name {
		t.Fatalf("expected matching EndElement, got %v", end)
	}

	last := events[len(events)-1]
	if last.Kind != xmlevent.EndDocument {
		t.Fatalf("expected EndDocument, got %v", last)
	}
}

// A bare ';' outside any entity reference, sitting in character data
// inside the root element, is literal text (Open Question 1 in
// DESIGN.md).
func TestScenarioBareSemicolonInsideRootIsLiteral(t *testing.T) {
	events := collect(t, `<root>a;b</root>`, xmlevent.DefaultConfig())

	var chars xmlevent.Event
	for _, ev := range events {
		if ev.Kind == xmlevent.Characters {
			chars = ev
		}
	}
	if chars.Text != "a;b" {
		t.Fatalf("expected Characters(a;b), got %q", chars.Text)
	}
}

// The XML declaration's pseudo-attributes are optional past version:
// a document with no declaration at all still produces a synthetic
// StartDocument carrying the defaults (version 1.0, encoding UTF-8,
// standalone absent).
func TestScenarioImplicitStartDocument(t *testing.T) {
	events := collect(t, `<root/>`, xmlevent.DefaultConfig())

	sd := events[0]
	if sd.Kind != xmlevent.StartDocument {
		t.Fatalf("expected StartDocument first, got %v", sd)
	}
	if sd.Version != "1.0" || sd.Encoding != "UTF-8" || sd.Standalone != nil {
		t.Fatalf("expected defaulted StartDocument, got %v", sd)
	}
}

// An explicit declaration with all three pseudo-attributes is parsed in
// full, including a standalone value of "yes".
func TestScenarioExplicitDeclaration(t *testing.T) {
	events := collect(t, `<?xml version="1.1" encoding="ISO-8859-1" standalone="yes"?><root/>`, xmlevent.DefaultConfig())

	sd := events[0]
	if sd.Kind != xmlevent.StartDocument {
		t.Fatalf("expected StartDocument first, got %v", sd)
	}
	if sd.Version != "1.1" || sd.Encoding != "ISO-8859-1" {
		t.Fatalf("expected version/encoding from declaration, got %v", sd)
	}
	if sd.Standalone == nil || !*sd.Standalone {
		t.Fatalf("expected standalone=yes, got %v", sd.Standalone)
	}
}

// Namespace resolution: a default namespace declared on the root is
// visible on a child with no prefix, and an explicit prefix resolves
// against its own xmlns:prefix declaration. The element's own bindings
// remain visible in its own EndElement event (the two-step deferred pop).
func TestScenarioNamespaceResolutionAndDeferredPop(t *testing.T) {
	events := collect(t, `<root xmlns="urn:default" xmlns:p="urn:p"><p:child/></root>`, xmlevent.DefaultConfig())

	var rootStart, childStart, childEnd, rootEnd xmlevent.Event
	for _, ev := range events {
		switch {
		case ev.Kind == xmlevent.StartElement && ev.Name.Local == "root":
			rootStart = ev
		case ev.Kind == xmlevent.StartElement && ev.Name.Local == "child":
			childStart = ev
		case ev.Kind == xmlevent.EndElement && ev.Name.Local == "child":
			childEnd = ev
		case ev.Kind == xmlevent.EndElement && ev.Name.Local == "root":
			rootEnd = ev
		}
	}

	if rootStart.Name.NS != "urn:default" {
		t.Fatalf("expected root to resolve to the default namespace, got %v", rootStart.Name)
	}
	if childStart.Name.NS != "urn:p" || childStart.Name.Prefix != "p" {
		t.Fatalf("expected child to resolve via xmlns:p, got %v", childStart.Name)
	}
	// childEnd must still see the child's own scope (no pop yet).
	if childEnd.Name.NS != "urn:p" {
		t.Fatalf("expected EndElement child to still resolve urn:p, got %v", childEnd.Name)
	}
	if rootEnd.Name.NS != "urn:default" {
		t.Fatalf("expected EndElement root to resolve urn:default, got %v", rootEnd.Name)
	}
}

// Predefined entities and numeric character references both expand
// inline into the surrounding character run.
func TestScenarioEntityAndCharacterReferences(t *testing.T) {
	events := collect(t, `<root>&lt;&amp;&#65;&#x42;</root>`, xmlevent.DefaultConfig())

	var chars xmlevent.Event
	for _, ev := range events {
		if ev.Kind == xmlevent.Characters {
			chars = ev
		}
	}
	if chars.Text != "<&AB" {
		t.Fatalf("expected Characters(<&AB), got %q", chars.Text)
	}
}

// With CoalesceCharacters on but IgnoreComments off, a comment in the
// middle of a character run must still break the run into two separate
// Characters events (Open Question 2 in DESIGN.md): the original's guard
// for swallowing a comment inline requires both flags, not just coalesce.
func TestScenarioCommentBreaksCoalescedRunWithoutIgnoreComments(t *testing.T) {
	config := xmlevent.DefaultConfig()
	config.CoalesceCharacters = true

	events := collect(t, `<root>before<!-- c -->after</root>`, config)

	var kinds []xmlevent.EventKind
	for _, ev := range events {
		if ev.Kind == xmlevent.Characters || ev.Kind == xmlevent.Comment {
			kinds = append(kinds, ev.Kind)
		}
	}
	want := []xmlevent.EventKind{xmlevent.Characters, xmlevent.Comment, xmlevent.Characters}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, kinds)
		}
	}
}

// A terminal event is sticky: once Error or EndDocument is produced,
// every subsequent Next() call returns that exact same event.
func TestScenarioTerminalEventIsSticky(t *testing.T) {
	lexer := xmllex.New(strings.NewReader(`<root/>`))
	parser := xmlevent.NewParser(lexer, xmlevent.DefaultConfig())

	var last xmlevent.Event
	for {
		ev := parser.Next()
		if ev.IsTerminal() {
			last = ev
			break
		}
	}

	again := parser.Next()
	if !reflect.DeepEqual(again, last) {
		t.Fatalf("expected sticky terminal event %v, got %v", last, again)
	}
}

// Malformed input (an element never closed) is reported with a
// terminal Error event, not a panic or a silently truncated stream.
func TestScenarioUnclosedElementIsError(t *testing.T) {
	events := collect(t, `<root>`, xmlevent.DefaultConfig())
	last := events[len(events)-1]
	if last.Kind != xmlevent.Error {
		t.Fatalf("expected Error for unclosed root, got %v", last)
	}
}

func TestScenarioEmptyElementStillUsesLookaheadQueue(t *testing.T) {
	events := collect(t, `<root><empty/></root>`, xmlevent.DefaultConfig())

	start, end := eventKindsBetween(events, "empty")
	if start.Kind != xmlevent.StartElement || end.Kind != xmlevent.EndElement {
		t.Fatalf("expected adjacent Start/EndElement for self-closing tag, got %v, %v", start, end)
	}
}

// An unprefixed attribute never inherits the element's default namespace
// (spec.md §4.6): its Name.NS stays absent even though the element itself
// resolves against the very same xmlns declaration.
func TestScenarioUnprefixedAttributeIgnoresDefaultNamespace(t *testing.T) {
	events := collect(t, `<a xmlns="http://x" attr="v"/>`, xmlevent.DefaultConfig())

	var start xmlevent.Event
	for _, ev := range events {
		if ev.Kind == xmlevent.StartElement {
			start = ev
		}
	}

	if start.Name.NS != "http://x" {
		t.Fatalf("expected element to resolve to the default namespace, got %v", start.Name)
	}
	if len(start.Attributes) != 1 || start.Attributes[0].Name.Local != "attr" {
		t.Fatalf("expected a single attr attribute, got %v", start.Attributes)
	}
	if start.Attributes[0].Name.NS != "" {
		t.Fatalf("expected unprefixed attribute to keep an absent namespace, got %q", start.Attributes[0].Name.NS)
	}
}

// A run of two dashes is ordinary character data outside a comment, even
// though the same run is forbidden inside one: the lexer has no notion of
// "inside a comment," so this must not be rejected as a markup token.
func TestScenarioDoubleDashOutsideCommentIsLiteral(t *testing.T) {
	events := collect(t, `<a>1--2</a>`, xmlevent.DefaultConfig())

	var chars xmlevent.Event
	for _, ev := range events {
		if ev.Kind == xmlevent.Characters {
			chars = ev
		}
	}
	if chars.Text != "1--2" {
		t.Fatalf("expected Characters(1--2), got %q", chars.Text)
	}
}

// A name containing "--" is legal XML ('-' is a NameChar) and must not be
// mistaken for the comment-only forbidden-dash-run check.
func TestScenarioDoubleDashInNameIsLegal(t *testing.T) {
	events := collect(t, `<data--flag a--b="1"/>`, xmlevent.DefaultConfig())

	var start xmlevent.Event
	for _, ev := range events {
		if ev.Kind == xmlevent.StartElement {
			start = ev
		}
	}
	if start.Name.Local != "data--flag" {
		t.Fatalf("expected element name data--flag, got %v", start.Name)
	}
	if len(start.Attributes) != 1 || start.Attributes[0].Name.Local != "a--b" || start.Attributes[0].Value != "1" {
		t.Fatalf("expected attribute a--b=1, got %v", start.Attributes)
	}
}

// Two dashes in a row inside a comment body is still rejected.
func TestScenarioDoubleDashInsideCommentIsError(t *testing.T) {
	events := collect(t, `<root><!-- a -- b --></root>`, xmlevent.DefaultConfig())
	last := events[len(events)-1]
	if last.Kind != xmlevent.Error {
		t.Fatalf("expected Error for -- inside a comment, got %v", last)
	}
}

func eventKindsBetween(events []xmlevent.Event, name string) (xmlevent.Event, xmlevent.Event) {
	for i, ev := range events {
		if ev.Kind == xmlevent.StartElement && ev.Name.Local == name {
			return ev, events[i+1]
		}
	}
	return xmlevent.Event{}, xmlevent.Event{}
}
