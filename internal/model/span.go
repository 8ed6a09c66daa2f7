package model

// BracketStyle identifies the delimiter pair a span was written with.
type BracketStyle string

const (
	// StyleBrace is the {{name}}==body=={{name}} form.
	StyleBrace BracketStyle = "brace"

	// StyleBracket is the [[name]]==body==[[name]] form.
	StyleBracket BracketStyle = "bracket"
)

// AllStyles lists the supported bracket styles in scan order.
var AllStyles = []BracketStyle{StyleBrace, StyleBracket}

// Open returns the style's opening delimiter.
func (s BracketStyle) Open() string {
	if s == StyleBracket {
		return "[["
	}

	return "{{"
}

// Close returns the style's closing delimiter.
func (s BracketStyle) Close() string {
	if s == StyleBracket {
		return "]]"
	}

	return "}}"
}

// CodeSpan is one well-formed coded region found in a document.
// Start and End are byte offsets into the document text covering the full
// markup (delimiters and identifier included); Body holds the trimmed
// content between the == separators. Read-only after creation.
type CodeSpan struct {
	Code       string
	Body       string
	Start      int
	End        int
	Identifier string // "id-<alnum>" without the leading caret, empty if absent
	Style      BracketStyle
	Source     string // document ID the span came from
}

// Markup reconstructs the span's on-wire form.
func (c CodeSpan) Markup() string {
	s := c.Style.Open() + c.Code + c.Style.Close() + "==" + c.Body + "==" +
		c.Style.Open() + c.Code + c.Style.Close()
	if c.Identifier != "" {
		s += " ^" + c.Identifier
	}

	return s
}

// Words counts the words in the span body. Marker tokens are never counted.
func (c CodeSpan) Words() int {
	return WordCount(c.Body)
}
