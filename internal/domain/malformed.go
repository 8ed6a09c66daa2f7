package domain

import (
	"sort"
	"strings"

	m "github.com/structur-io/structur/internal/model"
)

// MalformedDetector finds delimiter-opened regions that never pair up with a
// valid close. Regions it reports are disjoint from every confirmed coded
// span and from each other.
type MalformedDetector struct {
	styles []m.BracketStyle
}

// NewMalformedDetector creates a detector for the given bracket styles.
// With no styles provided, both supported styles are scanned.
func NewMalformedDetector(styles ...m.BracketStyle) *MalformedDetector {
	if len(styles) == 0 {
		styles = append(styles, m.AllStyles...)
	}

	return &MalformedDetector{styles: styles}
}

// span of byte offsets, half-open.
type span struct {
	start, end int
}

// opener is an opening delimiter occurrence outside claimed ranges.
type opener struct {
	pos   int
	style m.BracketStyle
}

// closingSeq is a ==<open><name><close> sequence outside claimed ranges.
type closingSeq struct {
	pos   int // offset of the == separator
	end   int // offset just past the closing delimiter
	name  string
	style m.BracketStyle
}

// Detect returns every malformed span in the document, ordered by position.
// The claimed spans are the matcher's confirmed output for this document and
// must be position-ordered and non-overlapping.
func (d *MalformedDetector) Detect(doc m.Document, claimed []m.CodeSpan) []m.MalformedSpan {
	text := doc.Text

	claimedRanges := make([]span, 0, len(claimed))
	for _, c := range claimed {
		claimedRanges = append(claimedRanges, span{start: c.Start, end: c.End})
	}

	openers := d.collectOpeners(text, claimedRanges)
	closings := d.collectClosings(text, claimedRanges)

	var found []m.MalformedSpan

	var reported []span

	// Pass 1: unpaired openers. Only code attempts qualify: the opener must
	// lead into an == separator, otherwise the delimiter is plain prose.
	for idx, op := range openers {
		if inside(reported, op.pos) {
			continue
		}

		regionEnd := len(text)
		if idx+1 < len(openers) {
			regionEnd = openers[idx+1].pos
		}

		if next := nextRangeStart(claimedRanges, op.pos); next < regionEnd {
			regionEnd = next
		}

		end, reason, ok := classifyOpener(text, op, regionEnd, closings)
		if !ok {
			continue
		}

		found = append(found, m.MalformedSpan{
			Text:   text[op.pos:end],
			Start:  op.pos,
			End:    end,
			Reason: reason,
			Style:  op.style,
			Source: doc.ID,
		})
		reported = append(reported, span{start: op.pos, end: end})
	}

	// Pass 2: closing sequences with no prior opener.
	for _, cs := range closings {
		if inside(reported, cs.pos) || inside(reported, cs.end-1) {
			continue
		}

		found = append(found, m.MalformedSpan{
			Text:   text[cs.pos:cs.end],
			Start:  cs.pos,
			End:    cs.end,
			Reason: m.ReasonClosingOnly,
			Style:  cs.style,
			Source: doc.ID,
		})
		reported = append(reported, span{start: cs.pos, end: cs.end})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Start < found[j].Start })

	return dropOverlapping(found)
}

// classifyOpener decides whether the unpaired opener is a code attempt and,
// if so, its failure point and reason. The region runs to regionEnd.
func classifyOpener(text string, op opener, regionEnd int, closings []closingSeq) (int, m.MalformedReason, bool) {
	openTok, closeTok := op.style.Open(), op.style.Close()

	nameStart := op.pos + len(openTok)

	closeRel := strings.Index(text[nameStart:regionEnd], closeTok)
	if closeRel < 0 {
		// No close token at all. It is still a code attempt when an ==
		// separator follows the opener on the same line ({{name==body...).
		sepRel := strings.Index(text[nameStart:regionEnd], "==")
		if sepRel < 0 || strings.ContainsRune(text[nameStart:nameStart+sepRel], '\n') {
			return 0, "", false
		}

		return regionEnd, m.ReasonUnterminated, true
	}

	// Close token present: require the == separator right after it.
	afterClose := nameStart + closeRel + len(closeTok)
	if !strings.HasPrefix(text[skipSpace(text, afterClose):], "==") {
		return 0, "", false
	}

	name, _, ok := parseName(text, nameStart, closeTok)
	if !ok {
		return regionEnd, m.ReasonForbiddenName, true
	}

	// A same-style closing sequence inside the region decides the reason:
	// a different name means the operator mistyped the close.
	for _, cs := range closings {
		if cs.pos <= op.pos || cs.pos >= regionEnd || cs.style != op.style {
			continue
		}

		if cs.name != name {
			return cs.end, m.ReasonMismatchedName, true
		}

		return cs.end, m.ReasonUnterminated, true
	}

	return regionEnd, m.ReasonUnterminated, true
}

// collectOpeners gathers opening delimiters outside claimed ranges. Openers
// that directly follow an == separator belong to closing sequences and are
// excluded here.
func (d *MalformedDetector) collectOpeners(text string, claimed []span) []opener {
	var out []opener

	for _, style := range d.styles {
		openTok := style.Open()

		i := 0
		for {
			rel := strings.Index(text[i:], openTok)
			if rel < 0 {
				break
			}

			p := i + rel
			i = p + 1

			if inside(claimed, p) || precededBySeparator(text, p) {
				continue
			}

			out = append(out, opener{pos: p, style: style})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })

	return out
}

// collectClosings gathers ==<open><name><close> sequences outside claimed
// ranges.
func (d *MalformedDetector) collectClosings(text string, claimed []span) []closingSeq {
	var out []closingSeq

	for _, style := range d.styles {
		openTok, closeTok := style.Open(), style.Close()

		i := 0
		for {
			rel := strings.Index(text[i:], "=="+openTok)
			if rel < 0 {
				break
			}

			p := i + rel
			i = p + 1

			name, end, ok := parseName(text, p+2+len(openTok), closeTok)
			if !ok {
				continue
			}

			// A sequence touching a claimed span belongs to that span's
			// markup or its surrounding prose, never to a malformed region.
			if overlaps(claimed, p, end) {
				continue
			}

			out = append(out, closingSeq{pos: p, end: end, name: name, style: style})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })

	return out
}

// precededBySeparator reports whether the text right before pos, ignoring
// spaces and tabs, ends with the == separator.
func precededBySeparator(text string, pos int) bool {
	i := pos
	for i > 0 && (text[i-1] == ' ' || text[i-1] == '\t') {
		i--
	}

	return i >= 2 && text[i-2] == '=' && text[i-1] == '='
}

// overlaps reports whether [start, end) intersects any of the ranges.
func overlaps(ranges []span, start, end int) bool {
	for _, r := range ranges {
		if start < r.end && end > r.start {
			return true
		}
	}

	return false
}

// inside reports whether pos falls within any of the ranges.
func inside(ranges []span, pos int) bool {
	for _, r := range ranges {
		if pos >= r.start && pos < r.end {
			return true
		}
	}

	return false
}

// nextRangeStart returns the start of the first range beginning after pos,
// or the maximum int if none does.
func nextRangeStart(ranges []span, pos int) int {
	next := int(^uint(0) >> 1)

	for _, r := range ranges {
		if r.start > pos && r.start < next {
			next = r.start
		}
	}

	return next
}

// dropOverlapping keeps the earlier of any two overlapping spans so no
// region is ever reported twice.
func dropOverlapping(spans []m.MalformedSpan) []m.MalformedSpan {
	kept := spans[:0]
	lastEnd := -1

	for _, s := range spans {
		if s.Start < lastEnd {
			continue
		}

		kept = append(kept, s)
		lastEnd = s.End
	}

	return kept
}
