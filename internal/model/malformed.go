package model

// MalformedReason classifies why a candidate region failed to parse.
type MalformedReason string

const (
	// ReasonUnterminated marks an opener with no matching close before the
	// next opener or end of document.
	ReasonUnterminated MalformedReason = "unterminated"

	// ReasonMismatchedName marks an opener whose first closing sequence
	// carries a different code name.
	ReasonMismatchedName MalformedReason = "mismatched-code-name"

	// ReasonForbiddenName marks a span whose code name contains delimiter
	// characters.
	ReasonForbiddenName MalformedReason = "forbidden-name-character"

	// ReasonClosingOnly marks a closing sequence with no prior opener.
	ReasonClosingOnly MalformedReason = "closing-only"
)

// Description returns a human-diagnosable explanation for the reason.
func (r MalformedReason) Description() string {
	switch r {
	case ReasonUnterminated:
		return "opening marker without a matching close"
	case ReasonMismatchedName:
		return "opening and closing code names do not match"
	case ReasonForbiddenName:
		return "code name missing or contains delimiter characters"
	case ReasonClosingOnly:
		return "closing marker without a matching open"
	default:
		return "unknown malformation"
	}
}

// MalformedSpan is a delimiter-opened region that failed to pair up.
// Start and End are byte offsets covering the raw partial text.
type MalformedSpan struct {
	Text   string // raw partial text, verbatim
	Start  int
	End    int
	Reason MalformedReason
	Style  BracketStyle
	Source string
}

// Words counts the words in the raw partial text.
func (m MalformedSpan) Words() int {
	return WordCount(m.Text)
}
