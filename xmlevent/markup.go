package xmlevent

// quoteKind records which quote character opened the attribute value
// currently being parsed, so the matching quote (and only the matching
// quote) terminates it.
type quoteKind int

const (
	quoteNone quoteKind = iota
	quoteSingle
	quoteDouble
)

func quoteKindFromToken(t Token) quoteKind {
	switch t.Kind {
	case TokenSingleQuote:
		return quoteSingle
	case TokenDoubleQuote:
		return quoteDouble
	default:
		return quoteNone
	}
}

func (q quoteKind) matches(t Token) bool {
	switch q {
	case quoteSingle:
		return t.Kind == TokenSingleQuote
	case quoteDouble:
		return t.Kind == TokenDoubleQuote
	default:
		return false
	}
}

// attributeData is an accumulated (name, value) pair awaiting prefix
// resolution at StartElement-emission time.
type attributeData struct {
	Name  Name
	Value string
}

// markupData holds scratch fields used while a markup construct is in
// flight: the original's MarkupData struct, whose gen_takes! macro
// produced one take_x method per field (mem::replace with the zero
// value). Go has no such macro, so each take method below is written out
// by hand, the way the teacher hand-writes each small accessor on
// Tokenizer/Encoder rather than generating them.
type markupData struct {
	name    string // processing-instruction name
	refData string // in-progress entity reference text

	version        string // XML declaration version, "" if unset
	encoding       string // XML declaration encoding, "" if unset
	standalone     *bool  // XML declaration standalone, nil if unset
	hasStandalone  bool   // true once a standalone value has been assigned
	elementName    *Name
	quote          quoteKind
	attrName       *Name
	attributes     []attributeData
}

func (d *markupData) takeName() string {
	v := d.name
	d.name = ""
	return v
}

func (d *markupData) takeRefData() string {
	v := d.refData
	d.refData = ""
	return v
}

func (d *markupData) takeVersion() string {
	v := d.version
	d.version = ""
	return v
}

func (d *markupData) takeEncoding() string {
	v := d.encoding
	d.encoding = ""
	return v
}

func (d *markupData) takeStandalone() *bool {
	v := d.standalone
	d.standalone = nil
	d.hasStandalone = false
	return v
}

func (d *markupData) takeElementName() Name {
	v := *d.elementName
	d.elementName = nil
	return v
}

func (d *markupData) takeAttrName() Name {
	v := *d.attrName
	d.attrName = nil
	return v
}

func (d *markupData) takeAttributes() []attributeData {
	v := d.attributes
	d.attributes = nil
	return v
}
