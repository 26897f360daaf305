// Package xmllex implements the external token-producing collaborator the
// core state machine in package xmlevent pulls from (spec.md §6). It knows
// nothing about elements, attributes, or namespaces — only the lexical
// alphabet defined by xmlevent.TokenKind.
package xmllex

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/arbor-xml/pullxml/xmlevent"
)

// Lexer scans a byte stream already decoded to UTF-8 (see xmlsource for the
// encoding-detection step that produces such a stream) into xmlevent.Tokens.
type Lexer struct {
	r    *bufio.Reader
	line int
	col  int

	// errorsEnabled mirrors the original's lexer.disable_errors()/
	// enable_errors() toggle: while disabled, an invalid UTF-8 byte is
	// replaced with U+FFFD instead of surfacing as a lexer error. The core
	// state machine disables it while scanning the raw-text regions
	// (comments, CDATA, processing-instruction data, DOCTYPE) where
	// stricter validation would reject content XML itself allows there.
	errorsEnabled bool
}

// New builds a Lexer reading from r, which must already be decoded to
// UTF-8 (xmlsource.Open does this).
func New(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReaderSize(r, 4096), line: 1, col: 0, errorsEnabled: true}
}

func (l *Lexer) Pos() xmlevent.Pos { return xmlevent.Pos{Line: l.line, Column: l.col} }

func (l *Lexer) DisableErrors() { l.errorsEnabled = false }
func (l *Lexer) EnableErrors()  { l.errorsEnabled = true }

func (l *Lexer) advance(c rune) {
	if c == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) readRune() (rune, error) {
	c, n, err := l.r.ReadRune()
	if err != nil {
		return 0, err
	}
	if c == utf8.RuneError && n == 1 {
		if l.errorsEnabled {
			return 0, fmt.Errorf("invalid UTF-8 byte sequence at %d:%d", l.line, l.col)
		}
		c = utf8.RuneError
	}
	l.advance(c)
	return c, nil
}

// peekASCII reports whether the next len(s) bytes equal the ASCII literal
// s, without consuming them. Every multi-character token in the XML
// lexical grammar ("<!--", "-->", "<![CDATA[", etc.) is pure ASCII, so a
// byte-level peek is sufficient and avoids decoding runes speculatively.
func (l *Lexer) peekASCII(s string) bool {
	b, err := l.r.Peek(len(s))
	if err != nil {
		return false
	}
	return string(b) == s
}

func (l *Lexer) consumeASCII(s string) {
	for range s {
		l.r.ReadByte()
	}
	l.col += len(s)
}

// NextToken implements xmlevent.Lexer. It returns io.EOF once the
// underlying reader is exhausted at a token boundary.
func (l *Lexer) NextToken() (xmlevent.Token, error) {
	switch {
	case l.peekASCII("<!--"):
		l.consumeASCII("<!--")
		return xmlevent.Token{Kind: xmlevent.TokenCommentStart}, nil
	case l.peekASCII("-->"):
		l.consumeASCII("-->")
		return xmlevent.Token{Kind: xmlevent.TokenCommentEnd}, nil
	case l.peekASCII("<![CDATA["):
		l.consumeASCII("<![CDATA[")
		return xmlevent.Token{Kind: xmlevent.TokenCDataStart}, nil
	case l.peekASCII("]]>"):
		l.consumeASCII("]]>")
		return xmlevent.Token{Kind: xmlevent.TokenCDataEnd}, nil
	case l.peekASCII("<!DOCTYPE"):
		l.consumeASCII("<!DOCTYPE")
		return xmlevent.Token{Kind: xmlevent.TokenDoctypeStart}, nil
	case l.peekASCII("</"):
		l.consumeASCII("</")
		return xmlevent.Token{Kind: xmlevent.TokenClosingTagStart}, nil
	case l.peekASCII("<?"):
		l.consumeASCII("<?")
		return xmlevent.Token{Kind: xmlevent.TokenProcessingInstructionStart}, nil
	case l.peekASCII("?>"):
		l.consumeASCII("?>")
		return xmlevent.Token{Kind: xmlevent.TokenProcessingInstructionEnd}, nil
	case l.peekASCII("/>"):
		l.consumeASCII("/>")
		return xmlevent.Token{Kind: xmlevent.TokenEmptyTagEnd}, nil
	}

	c, err := l.readRune()
	if err != nil {
		return xmlevent.Token{}, err
	}

	switch c {
	case '<':
		return xmlevent.Token{Kind: xmlevent.TokenOpeningTagStart}, nil
	case '>':
		return xmlevent.Token{Kind: xmlevent.TokenTagEnd}, nil
	case '&':
		return xmlevent.Token{Kind: xmlevent.TokenReferenceStart}, nil
	case ';':
		return xmlevent.Token{Kind: xmlevent.TokenReferenceEnd}, nil
	case '=':
		return xmlevent.Token{Kind: xmlevent.TokenEqualsSign}, nil
	case '"':
		return xmlevent.Token{Kind: xmlevent.TokenDoubleQuote}, nil
	case '\'':
		return xmlevent.Token{Kind: xmlevent.TokenSingleQuote}, nil
	case ' ', '\t', '\r', '\n':
		return xmlevent.Token{Kind: xmlevent.TokenWhitespace, Ch: c}, nil
	default:
		return xmlevent.Token{Kind: xmlevent.TokenCharacter, Ch: c}, nil
	}
}
