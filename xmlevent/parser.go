package xmlevent

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lexer is the external collaborator the core state machine pulls tokens
// from. xmllex.Lexer implements it; the core package only depends on this
// interface, never on the concrete lexer, so the state machine and the
// token alphabet production stay independently testable (spec.md §6).
//
// NextToken returns io.EOF once the underlying source is exhausted. Any
// other error is a lexer-level failure and becomes a terminal Error event.
type Lexer interface {
	NextToken() (Token, error)
	DisableErrors()
	EnableErrors()
	Pos() Pos
}

type primaryState int

const (
	stOutsideTag primaryState = iota
	stInsideOpeningTag
	stInsideClosingTag
	stInsideProcessingInstruction
	stInsideComment
	stInsideCData
	stInsideDeclaration
	stInsideDoctype
	stInsideReference
)

// Opening-tag substates.
const (
	otInsideName int = iota
	otInsideTag
	otInsideAttributeName
	otAfterAttributeName
	otInsideAttributeValue
)

// Closing-tag substates.
const (
	ctInsideName int = iota
	ctAfterName
)

// Processing-instruction substates.
const (
	piInsideName int = iota
	piInsideData
)

// XML-declaration substates.
const (
	declBeforeVersion int = iota
	declInsideVersion
	declAfterVersion
	declInsideVersionValue
	declAfterVersionValue
	declInsideEncoding
	declAfterEncoding
	declInsideEncodingValue
	declAfterEncodingValue
	declInsideStandalone
	declAfterStandalone
	declInsideStandaloneValue
	declAfterStandaloneValue
)

// state is a (primary state, substate) pair. A single extra field on
// Parser (refReturn) stands in for the original's InsideReference(Box
// <State>) variant: since reference expansion never nests, one saved
// state is enough and needs no heap indirection.
type state struct {
	primary primaryState
	sub     int
}

type qualifiedNameTarget int

const (
	attributeNameTarget qualifiedNameTarget = iota
	openingTagNameTarget
	closingTagNameTarget
)

// Parser is the pull-based streaming XML state machine (spec.md §3-§4). It
// holds no reference to any particular source or encoding — those concerns
// belong to xmlsource and the Lexer implementation it feeds. A Parser is
// single-use: once Next returns a terminal event, every subsequent call
// returns that same event (spec.md §4.1, §8).
type Parser struct {
	config Config
	lexer  Lexer

	st        state
	refReturn state

	buf  string
	data markupData
	nst  *NamespaceStack
	est  []Name // open-element stack, innermost last

	finishEvent *Event // sticky terminal event, once reached
	lookahead   *Event // one-slot emitted-but-not-yet-returned event

	encounteredElement  bool
	parsedDeclaration   bool
	insideWhitespace    bool
	readPrefixSeparator bool
	popNamespace        bool
	commentTrailingDash bool
}

// NewParser builds a Parser ready to pull events from lexer under config.
func NewParser(lexer Lexer, config Config) *Parser {
	return &Parser{
		config:           config,
		lexer:            lexer,
		st:               state{primary: stOutsideTag},
		nst:              NewNamespaceStack(),
		insideWhitespace: true,
	}
}

func (p *Parser) depth() int { return len(p.est) }

func (p *Parser) bufHasData() bool { return p.buf != "" }

func (p *Parser) takeBuf() string {
	v := p.buf
	p.buf = ""
	return v
}

func (p *Parser) makeEvent(kind EventKind) Event {
	return Event{Kind: kind, Pos: p.lexer.Pos()}
}

func (p *Parser) errorEvent(message string) Event {
	ev := p.makeEvent(Error)
	ev.Message = message
	return ev
}

func (p *Parser) appendCharContinue(c rune) (Event, bool) {
	p.buf += string(c)
	return Event{}, false
}

func (p *Parser) appendStrContinue(s string) (Event, bool) {
	p.buf += s
	return Event{}, false
}

// intoState transitions to st, optionally emitting ev (nil means "no event,
// keep pulling"). This is the Go rendering of the original's
// into_state/into_state_continue pair: a single helper parameterized on an
// optional event reads better in Go than two near-duplicate methods.
func (p *Parser) intoState(st state, ev *Event) (Event, bool) {
	p.st = st
	if ev == nil {
		return Event{}, false
	}
	return *ev, true
}

func (p *Parser) intoStateContinue(st state) (Event, bool) {
	return p.intoState(st, nil)
}

func (p *Parser) intoStateEmit(st state, ev Event) (Event, bool) {
	return p.intoState(st, &ev)
}

// Next pulls and returns the next event, per the 5-step driver in spec.md
// §4.1: serve a sticky terminal event, else serve a queued lookahead event,
// else perform a deferred namespace pop, else loop pulling tokens and
// dispatching them to the current state's handler until a handler produces
// an event or the lexer reports end of stream.
func (p *Parser) Next() Event {
	if p.finishEvent != nil {
		return *p.finishEvent
	}
	if p.lookahead != nil {
		ev := *p.lookahead
		p.lookahead = nil
		return ev
	}
	if p.popNamespace {
		p.popNamespace = false
		p.nst.Pop()
	}

	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			ev := p.errorEvent(err.Error())
			p.finishEvent = &ev
			return ev
		}
		if ev, ok := p.dispatch(tok); ok {
			if ev.IsTerminal() {
				stored := ev
				p.finishEvent = &stored
			}
			return ev
		}
	}

	var ev Event
	if p.depth() == 0 {
		switch {
		case p.encounteredElement && p.st.primary == stOutsideTag:
			ev = p.makeEvent(EndDocument)
		case !p.encounteredElement:
			ev = p.errorEvent("unexpected end of stream: no root element found")
		default:
			ev = p.errorEvent("unexpected end of stream")
		}
	} else {
		ev = p.errorEvent("unexpected end of stream: still inside the root element")
	}
	p.finishEvent = &ev
	return ev
}

func (p *Parser) dispatch(t Token) (Event, bool) {
	switch p.st.primary {
	case stOutsideTag:
		return p.outsideTag(t)
	case stInsideProcessingInstruction:
		return p.insideProcessingInstruction(t, p.st.sub)
	case stInsideDeclaration:
		return p.insideDeclaration(t, p.st.sub)
	case stInsideDoctype:
		return p.insideDoctype(t)
	case stInsideOpeningTag:
		return p.insideOpeningTag(t, p.st.sub)
	case stInsideClosingTag:
		return p.insideClosingTag(t, p.st.sub)
	case stInsideComment:
		return p.insideComment(t)
	case stInsideCData:
		return p.insideCData(t)
	case stInsideReference:
		return p.insideReference(t)
	default:
		panic("xmlevent: unreachable primary state")
	}
}

// outsideTag is the OutsideTag handler (spec.md §4.2): character-run
// coalescing, the comment/CDATA ignore-and-swallow fast paths, and
// dispatch into every markup construct that can begin at depth >= 0.
func (p *Parser) outsideTag(t Token) (Event, bool) {
	switch {
	case t.Kind == TokenReferenceStart:
		p.insideWhitespace = false
		p.refReturn = p.st
		p.st = state{primary: stInsideReference}
		return Event{}, false

	case t.Kind == TokenWhitespace && p.depth() == 0:
		return Event{}, false

	case t.ContainsCharData() && p.depth() == 0:
		return p.errorEvent(fmt.Sprintf("unexpected characters outside the root element: %s", t)), true

	case t.Kind == TokenWhitespace:
		return p.appendCharContinue(t.Ch)

	case t.ContainsCharData():
		p.insideWhitespace = false
		return p.appendCharContinue(t.Ch)

	case t.Kind == TokenReferenceEnd:
		// A bare ';' outside of an entity is literal text (Open Question 1
		// in DESIGN.md): the original's ReferenceEnd arm here always
		// appends, it never errors.
		p.insideWhitespace = false
		return p.appendStrContinue(";")

	case t.Kind == TokenCommentStart && p.config.CoalesceCharacters && p.config.IgnoreComments:
		p.lexer.DisableErrors()
		p.commentTrailingDash = false
		return p.intoStateContinue(state{primary: stInsideComment})

	case t.Kind == TokenCDataStart && p.config.CoalesceCharacters && p.config.CDataToCharacters:
		p.lexer.DisableErrors()
		return p.intoStateContinue(state{primary: stInsideCData})

	default:
		var pending *Event
		if p.bufHasData() {
			buf := p.takeBuf()
			switch {
			case p.insideWhitespace && p.config.TrimWhitespace:
				// discarded entirely
			case p.insideWhitespace && !p.config.WhitespaceToCharacters:
				ev := p.makeEvent(Whitespace)
				ev.Text = buf
				pending = &ev
			case p.config.TrimWhitespace:
				ev := p.makeEvent(Characters)
				ev.Text = strings.TrimFunc(buf, IsWhitespaceChar)
				pending = &ev
			default:
				ev := p.makeEvent(Characters)
				ev.Text = buf
				pending = &ev
			}
		}
		p.insideWhitespace = true

		switch {
		case t.Kind == TokenProcessingInstructionStart:
			return p.intoState(state{primary: stInsideProcessingInstruction, sub: piInsideName}, pending)

		case t.Kind == TokenDoctypeStart && !p.encounteredElement:
			p.lexer.DisableErrors()
			return p.intoState(state{primary: stInsideDoctype}, pending)

		case t.Kind == TokenOpeningTagStart:
			if !p.parsedDeclaration {
				p.parsedDeclaration = true
				sd := p.makeEvent(StartDocument)
				sd.Version = "1.0"
				sd.Encoding = "UTF-8"
				pending = &sd
			}
			p.encounteredElement = true
			p.nst.PushEmpty()
			return p.intoState(state{primary: stInsideOpeningTag, sub: otInsideName}, pending)

		case t.Kind == TokenClosingTagStart && p.depth() > 0:
			return p.intoState(state{primary: stInsideClosingTag, sub: ctInsideName}, pending)

		case t.Kind == TokenCommentStart:
			p.lexer.DisableErrors()
			p.commentTrailingDash = false
			return p.intoState(state{primary: stInsideComment}, pending)

		case t.Kind == TokenCDataStart:
			p.lexer.DisableErrors()
			return p.intoState(state{primary: stInsideCData}, pending)

		default:
			return p.errorEvent(fmt.Sprintf("unexpected token: %s", t)), true
		}
	}
}

// readQualifiedName is the qualified-name micro-parser (spec.md §4.3),
// shared by opening-tag names, closing-tag names, and attribute names.
// onName is invoked with the terminating token once a full name has
// accumulated in the buffer.
func (p *Parser) readQualifiedName(t Token, target qualifiedNameTarget, onName func(Token, Name) (Event, bool)) (Event, bool) {
	if len(p.buf) <= 1 {
		p.readPrefixSeparator = false
	}

	invoke := func(t Token) (Event, bool) {
		raw := p.takeBuf()
		name, err := ParseQualifiedName(raw)
		if err != nil {
			return p.errorEvent(fmt.Sprintf("qualified name is invalid: %s", raw)), true
		}
		return onName(t, name)
	}

	switch {
	case t.Kind == TokenCharacter && t.Ch == ':' && p.bufHasData() && !p.readPrefixSeparator:
		p.buf += ":"
		p.readPrefixSeparator = true
		return Event{}, false

	case t.Kind == TokenCharacter && t.Ch != ':' &&
		((!p.bufHasData() && IsNameStartChar(t.Ch)) || (p.bufHasData() && IsNameChar(t.Ch))):
		return p.appendCharContinue(t.Ch)

	case t.Kind == TokenEqualsSign && target == attributeNameTarget:
		return invoke(t)

	case t.Kind == TokenEmptyTagEnd && target == openingTagNameTarget:
		return invoke(t)

	case t.Kind == TokenTagEnd && (target == openingTagNameTarget || target == closingTagNameTarget):
		return invoke(t)

	case t.Kind == TokenWhitespace:
		return invoke(t)

	default:
		return p.errorEvent(fmt.Sprintf("unexpected token inside qualified name: %s", t)), true
	}
}

// readAttributeValue is the attribute-value micro-parser (spec.md §4.4):
// tracks which quote opened the value, resolves entity references inline
// via the shared InsideReference substate, and otherwise appends any token
// verbatim except a bare '<'.
func (p *Parser) readAttributeValue(t Token, onValue func(string) (Event, bool)) (Event, bool) {
	switch {
	case t.Kind == TokenWhitespace && p.data.quote == quoteNone:
		return Event{}, false

	case t.Kind == TokenDoubleQuote || t.Kind == TokenSingleQuote:
		if p.data.quote == quoteNone {
			p.data.quote = quoteKindFromToken(t)
			return Event{}, false
		}
		if p.data.quote.matches(t) {
			p.data.quote = quoteNone
			return onValue(p.takeBuf())
		}
		return p.appendStrContinue(t.String())

	case t.Kind == TokenReferenceStart:
		p.refReturn = p.st
		p.st = state{primary: stInsideReference}
		return Event{}, false

	case t.Kind == TokenOpeningTagStart:
		return p.errorEvent("unexpected token inside attribute value: <"), true

	default:
		return p.appendStrContinue(t.String())
	}
}

func (p *Parser) insideDoctype(t Token) (Event, bool) {
	if t.Kind == TokenTagEnd {
		p.lexer.EnableErrors()
		return p.intoStateContinue(state{primary: stOutsideTag})
	}
	return Event{}, false
}

// insideProcessingInstruction handles both the PI target-name substate and
// the raw-data substate (spec.md §4.9), including the special case where
// the target is "xml" and the PI is actually an XML declaration.
func (p *Parser) insideProcessingInstruction(t Token, sub int) (Event, bool) {
	switch sub {
	case piInsideName:
		switch {
		case t.Kind == TokenCharacter && ((!p.bufHasData() && IsNameStartChar(t.Ch)) || (p.bufHasData() && IsNameChar(t.Ch))):
			return p.appendCharContinue(t.Ch)

		case t.Kind == TokenProcessingInstructionEnd:
			name := p.takeBuf()
			switch {
			case name == "":
				return p.errorEvent("encountered a processing instruction without a name"), true
			case strings.EqualFold(name, "xml"):
				return p.errorEvent(fmt.Sprintf("invalid processing instruction: <?%s", name)), true
			default:
				ev := p.makeEvent(ProcessingInstruction)
				ev.PITarget = name
				return p.intoStateEmit(state{primary: stOutsideTag}, ev)
			}

		case t.Kind == TokenWhitespace:
			name := p.takeBuf()
			switch {
			case name == "xml" && !p.encounteredElement && !p.parsedDeclaration:
				return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declBeforeVersion})
			case strings.EqualFold(name, "xml") && (p.encounteredElement || p.parsedDeclaration):
				return p.errorEvent(fmt.Sprintf("invalid processing instruction: <?%s", name)), true
			default:
				p.lexer.DisableErrors()
				p.data.name = name
				return p.intoStateContinue(state{primary: stInsideProcessingInstruction, sub: piInsideData})
			}

		default:
			return p.errorEvent(fmt.Sprintf("unexpected token inside a processing instruction: %s", t)), true
		}

	case piInsideData:
		if t.Kind == TokenProcessingInstructionEnd {
			p.lexer.EnableErrors()
			ev := p.makeEvent(ProcessingInstruction)
			ev.PITarget = p.data.takeName()
			ev.PIData = p.takeBuf()
			ev.PIHasData = true
			return p.intoStateEmit(state{primary: stOutsideTag}, ev)
		}
		return p.appendStrContinue(t.String())

	default:
		panic("xmlevent: unreachable PI substate")
	}
}

// insideDeclaration parses the pseudo-attribute grammar of an XML
// declaration (spec.md §4.8): version (required), encoding (optional),
// standalone (optional), in that order, each "name=value" pair separated
// by whitespace. Each pseudo-attribute's leading letter ('v', 'e', 's') is
// consumed by the Before*/After* substates without being buffered; the
// qualified-name parser then only ever sees the remainder ("ersion",
// "ncoding", "tandalone"), which is what the literal comparisons below
// check against.
func (p *Parser) insideDeclaration(t Token, sub int) (Event, bool) {
	unexpected := func(tok Token) (Event, bool) {
		return p.errorEvent(fmt.Sprintf("unexpected token inside XML declaration: %s", tok)), true
	}

	emitStartDocument := func() (Event, bool) {
		p.parsedDeclaration = true
		version := p.data.takeVersion()
		if version == "" {
			version = "1.0"
		}
		encoding := p.data.takeEncoding()
		if encoding == "" {
			encoding = "UTF-8"
		}
		standalone := p.data.takeStandalone()
		ev := p.makeEvent(StartDocument)
		ev.Version = version
		ev.Encoding = encoding
		ev.Standalone = standalone
		return p.intoStateEmit(state{primary: stOutsideTag}, ev)
	}

	readPseudoAttrValue := func(onValue func(string) (Event, bool)) (Event, bool) {
		return p.readAttributeValue(t, onValue)
	}

	switch sub {
	case declBeforeVersion:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenCharacter && t.Ch == 'v':
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideVersion})
		default:
			return unexpected(t)
		}

	case declInsideVersion:
		return p.readQualifiedName(t, attributeNameTarget, func(token Token, name Name) (Event, bool) {
			if name.Local != "ersion" || name.HasPrefix() {
				return p.errorEvent(fmt.Sprintf("unexpected pseudo-attribute inside XML declaration: %s", name)), true
			}
			switch token.Kind {
			case TokenWhitespace:
				return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declAfterVersion})
			case TokenEqualsSign:
				return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideVersionValue})
			default:
				panic("xmlevent: unreachable")
			}
		})

	case declAfterVersion:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenEqualsSign:
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideVersionValue})
		default:
			return unexpected(t)
		}

	case declInsideVersionValue:
		return readPseudoAttrValue(func(value string) (Event, bool) {
			p.data.version = value
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declAfterVersionValue})
		})

	case declAfterVersionValue:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenProcessingInstructionEnd:
			p.lexer.EnableErrors()
			return emitStartDocument()
		case t.Kind == TokenCharacter && t.Ch == 'e':
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideEncoding})
		case t.Kind == TokenCharacter && t.Ch == 's':
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideStandalone})
		default:
			return unexpected(t)
		}

	case declInsideEncoding:
		return p.readQualifiedName(t, attributeNameTarget, func(token Token, name Name) (Event, bool) {
			if name.Local != "ncoding" || name.HasPrefix() {
				return p.errorEvent(fmt.Sprintf("unexpected pseudo-attribute inside XML declaration: %s", name)), true
			}
			switch token.Kind {
			case TokenWhitespace:
				return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declAfterEncoding})
			case TokenEqualsSign:
				return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideEncodingValue})
			default:
				panic("xmlevent: unreachable")
			}
		})

	case declAfterEncoding:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenEqualsSign:
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideEncodingValue})
		default:
			return unexpected(t)
		}

	case declInsideEncodingValue:
		return readPseudoAttrValue(func(value string) (Event, bool) {
			p.data.encoding = value
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declAfterEncodingValue})
		})

	case declAfterEncodingValue:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenProcessingInstructionEnd:
			p.lexer.EnableErrors()
			return emitStartDocument()
		case t.Kind == TokenCharacter && t.Ch == 's':
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideStandalone})
		default:
			return unexpected(t)
		}

	case declInsideStandalone:
		return p.readQualifiedName(t, attributeNameTarget, func(token Token, name Name) (Event, bool) {
			if name.Local != "tandalone" || name.HasPrefix() {
				return p.errorEvent(fmt.Sprintf("unexpected pseudo-attribute inside XML declaration: %s", name)), true
			}
			switch token.Kind {
			case TokenWhitespace:
				return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declAfterStandalone})
			case TokenEqualsSign:
				return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideStandaloneValue})
			default:
				panic("xmlevent: unreachable")
			}
		})

	case declAfterStandalone:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenEqualsSign:
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declInsideStandaloneValue})
		default:
			return unexpected(t)
		}

	case declInsideStandaloneValue:
		return readPseudoAttrValue(func(value string) (Event, bool) {
			var b bool
			switch value {
			case "yes":
				b = true
			case "no":
				b = false
			default:
				return p.errorEvent(fmt.Sprintf("invalid standalone declaration value: %s", value)), true
			}
			p.data.standalone = &b
			p.data.hasStandalone = true
			return p.intoStateContinue(state{primary: stInsideDeclaration, sub: declAfterStandaloneValue})
		})

	case declAfterStandaloneValue:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenProcessingInstructionEnd:
			p.lexer.EnableErrors()
			return emitStartDocument()
		default:
			return unexpected(t)
		}

	default:
		panic("xmlevent: unreachable declaration substate")
	}
}

func (p *Parser) insideComment(t Token) (Event, bool) {
	// Two dashes in a row are forbidden inside comment text outside of the
	// closing "-->" delimiter (spec.md §4.10). The lexer has no notion of
	// "inside a comment," so the check is tracked here rather than by
	// special-casing "--" at the token level: that would also have to fire
	// on ordinary character data like "<a>1--2</a>", which is legal XML.
	dash := t.Kind == TokenCharacter && t.Ch == '-'
	if dash && p.commentTrailingDash {
		return p.errorEvent("unexpected token inside a comment: --"), true
	}
	p.commentTrailingDash = dash

	switch {
	case t.Kind == TokenCommentEnd && p.config.IgnoreComments:
		p.lexer.EnableErrors()
		return p.intoStateContinue(state{primary: stOutsideTag})

	case t.Kind == TokenCommentEnd:
		p.lexer.EnableErrors()
		ev := p.makeEvent(Comment)
		ev.Text = p.takeBuf()
		return p.intoStateEmit(state{primary: stOutsideTag}, ev)

	case p.config.IgnoreComments:
		return Event{}, false

	default:
		return p.appendStrContinue(t.String())
	}
}

func (p *Parser) insideCData(t Token) (Event, bool) {
	switch {
	case t.Kind == TokenCDataEnd && p.config.CDataToCharacters:
		p.lexer.EnableErrors()
		return p.intoStateContinue(state{primary: stOutsideTag})

	case t.Kind == TokenCDataEnd:
		p.lexer.EnableErrors()
		ev := p.makeEvent(CData)
		ev.Text = p.takeBuf()
		return p.intoStateEmit(state{primary: stOutsideTag}, ev)

	case t.Kind == TokenWhitespace:
		return p.appendStrContinue(t.String())

	default:
		p.insideWhitespace = false
		return p.appendStrContinue(t.String())
	}
}

// insideOpeningTag covers all five opening-tag substates (spec.md §4.5):
// element name, whitespace-separated attribute list, each attribute's name
// and value, and the two terminators ('>' and '/>'). Self-closing tags
// queue a synthetic EndElement via emitStartElement.
func (p *Parser) insideOpeningTag(t Token, sub int) (Event, bool) {
	unexpected := func(tok Token) (Event, bool) {
		return p.errorEvent(fmt.Sprintf("unexpected token inside opening tag: %s", tok)), true
	}

	switch sub {
	case otInsideName:
		return p.readQualifiedName(t, openingTagNameTarget, func(token Token, name Name) (Event, bool) {
			if name.HasPrefix() && (name.Prefix == NSXMLPrefix || name.Prefix == NSXMLNSPrefix) {
				return p.errorEvent(fmt.Sprintf("'%s' cannot be an element name prefix", name.Prefix)), true
			}
			nameCopy := name
			p.data.elementName = &nameCopy
			switch token.Kind {
			case TokenTagEnd:
				return p.emitStartElement(false)
			case TokenEmptyTagEnd:
				return p.emitStartElement(true)
			case TokenWhitespace:
				return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otInsideTag})
			default:
				panic("xmlevent: unreachable")
			}
		})

	case otInsideTag:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenCharacter && IsNameStartChar(t.Ch):
			p.buf += string(t.Ch)
			return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otInsideAttributeName})
		case t.Kind == TokenTagEnd:
			return p.emitStartElement(false)
		case t.Kind == TokenEmptyTagEnd:
			return p.emitStartElement(true)
		default:
			return unexpected(t)
		}

	case otInsideAttributeName:
		return p.readQualifiedName(t, attributeNameTarget, func(token Token, name Name) (Event, bool) {
			nameCopy := name
			p.data.attrName = &nameCopy
			switch token.Kind {
			case TokenWhitespace:
				return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otAfterAttributeName})
			case TokenEqualsSign:
				return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otInsideAttributeValue})
			default:
				panic("xmlevent: unreachable")
			}
		})

	case otAfterAttributeName:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenEqualsSign:
			return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otInsideAttributeValue})
		default:
			return unexpected(t)
		}

	case otInsideAttributeValue:
		return p.readAttributeValue(t, func(value string) (Event, bool) {
			name := p.data.takeAttrName()
			switch {
			case name.HasPrefix() && name.Prefix == NSXMLNSPrefix:
				switch {
				case name.Local == NSXMLNSPrefix:
					return p.errorEvent(fmt.Sprintf("cannot redefine the '%s' prefix", NSXMLNSPrefix)), true
				case name.Local == NSXMLPrefix && value != NSXMLURI:
					return p.errorEvent(fmt.Sprintf("'%s' prefix cannot be rebound to another value", NSXMLPrefix)), true
				case value == "":
					return p.errorEvent(fmt.Sprintf("cannot undefine a prefix: %s", name.Local)), true
				default:
					p.nst.Put(name.Local, value)
					return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otInsideTag})
				}

			case !name.HasPrefix() && name.Local == NSXMLNSPrefix:
				if value == NSXMLNSURI || value == NSXMLURI {
					return p.errorEvent(fmt.Sprintf("namespace '%s' cannot be default", value)), true
				}
				p.nst.Put("", value)
				return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otInsideTag})

			default:
				p.data.attributes = append(p.data.attributes, attributeData{Name: name, Value: value})
				return p.intoStateContinue(state{primary: stInsideOpeningTag, sub: otInsideTag})
			}
		})

	default:
		panic("xmlevent: unreachable opening-tag substate")
	}
}

// emitStartElement resolves the element's and its attributes' prefixes
// against the namespace stack, emits StartElement, and for a self-closing
// tag queues a synthetic EndElement in the one-slot lookahead (spec.md
// §4.6).
func (p *Parser) emitStartElement(selfClosing bool) (Event, bool) {
	name := p.data.takeElementName()
	attrs := p.data.takeAttributes()

	resolved, ok := p.nst.ResolveName(name)
	if !ok {
		return p.errorEvent(fmt.Sprintf("element prefix is unbound: %s", name)), true
	}
	name = resolved

	outAttrs := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		// An unprefixed attribute never inherits the default namespace
		// (spec.md §4.6): only attributes with an explicit prefix consult
		// the namespace stack.
		if a.Name.Prefix == "" {
			outAttrs = append(outAttrs, Attribute{Name: a.Name, Value: a.Value})
			continue
		}
		ra, ok := p.nst.ResolveName(a.Name)
		if !ok {
			return p.errorEvent(fmt.Sprintf("attribute prefix is unbound: %s", a.Name)), true
		}
		outAttrs = append(outAttrs, Attribute{Name: ra, Value: a.Value})
	}

	ns := p.nst.Squash()

	if selfClosing {
		p.popNamespace = true
		end := p.makeEvent(EndElement)
		end.Name = name
		p.lookahead = &end
	} else {
		p.est = append(p.est, name)
	}

	ev := p.makeEvent(StartElement)
	ev.Name = name
	ev.Attributes = outAttrs
	ev.Namespace = ns
	return p.intoStateEmit(state{primary: stOutsideTag}, ev)
}

// insideClosingTag covers the closing-tag name and the trailing whitespace
// before '>' (spec.md §4.7).
func (p *Parser) insideClosingTag(t Token, sub int) (Event, bool) {
	switch sub {
	case ctInsideName:
		return p.readQualifiedName(t, closingTagNameTarget, func(token Token, name Name) (Event, bool) {
			if name.HasPrefix() && (name.Prefix == NSXMLPrefix || name.Prefix == NSXMLNSPrefix) {
				return p.errorEvent(fmt.Sprintf("'%s' cannot be an element name prefix", name.Prefix)), true
			}
			nameCopy := name
			p.data.elementName = &nameCopy
			switch token.Kind {
			case TokenWhitespace:
				return p.intoStateContinue(state{primary: stInsideClosingTag, sub: ctAfterName})
			case TokenTagEnd:
				return p.emitEndElement()
			default:
				return p.errorEvent(fmt.Sprintf("unexpected token inside closing tag: %s", token)), true
			}
		})

	case ctAfterName:
		switch {
		case t.Kind == TokenWhitespace:
			return Event{}, false
		case t.Kind == TokenTagEnd:
			return p.emitEndElement()
		default:
			return p.errorEvent(fmt.Sprintf("unexpected token inside closing tag: %s", t)), true
		}

	default:
		panic("xmlevent: unreachable closing-tag substate")
	}
}

// emitEndElement checks the closing tag's name against the innermost open
// element and emits EndElement. The matching namespace scope is popped one
// pull later, after this event is returned to the caller (spec.md §4.7,
// §9): Next's deferred-pop step does the actual NamespaceStack.Pop.
func (p *Parser) emitEndElement() (Event, bool) {
	name := p.data.takeElementName()
	resolved, ok := p.nst.ResolveName(name)
	if !ok {
		return p.errorEvent(fmt.Sprintf("element prefix is unbound: %s", name)), true
	}
	name = resolved

	opened := p.est[len(p.est)-1]
	p.est = p.est[:len(p.est)-1]

	if name != opened {
		return p.errorEvent(fmt.Sprintf("unexpected closing tag: %s, expected %s", name, opened)), true
	}

	p.popNamespace = true
	ev := p.makeEvent(EndElement)
	ev.Name = name
	return p.intoStateEmit(state{primary: stOutsideTag}, ev)
}

// insideReference expands a character or entity reference (spec.md §4.11)
// and appends the resolved rune to the shared buffer before returning to
// whichever state requested it (OutsideTag or an attribute value). CDATA
// never reaches here: insideCData appends a ReferenceStart token verbatim
// as '&'.
func (p *Parser) insideReference(t Token) (Event, bool) {
	switch {
	case t.Kind == TokenCharacter &&
		((p.data.refData != "" && IsNameChar(t.Ch)) ||
			(p.data.refData == "" && (IsNameStartChar(t.Ch) || t.Ch == '#'))):
		p.data.refData += string(t.Ch)
		return Event{}, false

	case t.Kind == TokenReferenceEnd:
		name := p.data.takeRefData()
		c, err := decodeEntity(name)
		if err != nil {
			return p.errorEvent(err.Error()), true
		}
		p.buf += string(c)
		ret := p.refReturn
		p.refReturn = state{}
		return p.intoStateContinue(ret)

	default:
		return p.errorEvent(fmt.Sprintf("unexpected token inside an entity reference: %s", t)), true
	}
}

// decodeEntity resolves the text between '&' and ';' (spec.md §4.11): one
// of the five predefined entities, or a decimal/hexadecimal numeric
// character reference. The null character (codepoint 0) is always
// rejected, numeric or not.
func decodeEntity(name string) (rune, error) {
	switch name {
	case "lt":
		return '<', nil
	case "gt":
		return '>', nil
	case "amp":
		return '&', nil
	case "apos":
		return '\'', nil
	case "quot":
		return '"', nil
	case "":
		return 0, errors.New("encountered an empty entity reference")
	}

	var numStr string
	var base int
	switch {
	case strings.HasPrefix(name, "#x") || strings.HasPrefix(name, "#X"):
		numStr, base = name[2:], 16
	case strings.HasPrefix(name, "#"):
		numStr, base = name[1:], 10
	default:
		return 0, fmt.Errorf("unexpected entity reference: &%s;", name)
	}

	v, err := strconv.ParseInt(numStr, base, 32)
	if err != nil || v <= 0 || v > utf8.MaxRune || !utf8.ValidRune(rune(v)) {
		if numStr == "0" {
			return 0, errors.New("null character entity reference is not allowed")
		}
		return 0, fmt.Errorf("invalid character number in entity reference: &%s;", name)
	}
	return rune(v), nil
}
