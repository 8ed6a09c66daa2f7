package model

// DuplicateHit records a span or residual whose normalized content was seen
// before, together with where it was first seen.
type DuplicateHit struct {
	Content       string // original formatting retained
	Code          string // code name for coded duplicates, empty otherwise
	Style         BracketStyle
	FirstLocation string
	Seeded        bool // first occurrence came from a previous run's outputs
}

// WordCounts reconciles a document's words across buckets. Marker tokens are
// excluded from every bucket, so Original may exceed the bucket sum by the
// words the markers themselves contributed.
type WordCounts struct {
	Original  int
	Coded     int
	Uncoded   int
	Duplicate int
	Malformed int
}

// Difference returns Original minus the sum of all buckets.
func (w WordCounts) Difference() int {
	return w.Original - (w.Coded + w.Uncoded + w.Duplicate + w.Malformed)
}

// Reconciles reports whether the difference is within tolerance.
func (w WordCounts) Reconciles(tolerance int) bool {
	d := w.Difference()
	if d < 0 {
		d = -d
	}

	return d <= tolerance
}

// ProcessingResult is the per-document aggregate emitted by the classifier
// and consumed by the writer.
type ProcessingResult struct {
	DocID string
	State DocState

	// Coded holds the new (non-duplicate) spans in document order.
	Coded []CodeSpan

	// Malformed holds new malformed spans in document order.
	Malformed []MalformedSpan

	// Duplicates are in-run repeats; AlreadyCoded are repeats of content
	// rehydrated from a previous run's outputs.
	Duplicates   []DuplicateHit
	AlreadyCoded []DuplicateHit

	// RawResidual is the exact excision result (round-trip safe).
	// Uncoded is the residual after the whitespace collapsing rule.
	RawResidual    string
	Uncoded        string
	UncodedDup     *DuplicateHit // set when the residual itself is a repeat
	Counts         WordCounts
	Tolerance      int
	ExtractedCodes []string // unique code names in first-seen order
	FailureReason  string   // set when State == StateFailed
}

// CodedByName groups the new spans by code name preserving document order
// within each group. Styles never merge: the key includes the style.
func (r ProcessingResult) CodedByName() map[CodeKey][]CodeSpan {
	grouped := make(map[CodeKey][]CodeSpan)
	for _, span := range r.Coded {
		k := CodeKey{Name: span.Code, Style: span.Style}
		grouped[k] = append(grouped[k], span)
	}

	return grouped
}

// CodeKey identifies a per-code output destination. Spans of the same name
// but different bracket styles are kept apart.
type CodeKey struct {
	Name  string
	Style BracketStyle
}
