// Package xmlsource prepares a raw byte stream for xmllex: sniffing its
// declared or detected encoding and transcoding it to UTF-8, so the lexer
// (and in turn the core state machine) only ever sees UTF-8 text. The
// original's core never addresses encoding at all, leaving it to whatever
// wraps the character source; this package is that wrapper.
package xmlsource

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Open wraps r, sniffing its encoding from a leading BOM or an XML/HTML
// declaration and transcoding non-UTF-8 content to UTF-8 on the fly. This
// reuses golang.org/x/net/html/charset, the teacher's dependency for
// decoding arbitrary web content before tokenizing it, redirected here at
// the document level instead of per-HTML-node.
func Open(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(1024)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to sniff encoding: %w", err)
	}

	enc, name, _ := charset.DetermineEncoding(peek, "")
	if name == "utf-8" {
		return br, nil
	}
	return enc.NewDecoder().Reader(br), nil
}
