package domain

import (
	"regexp"
	"sort"
	"strings"

	m "github.com/structur-io/structur/internal/model"
)

// Range is a half-open [Start, End) byte interval to excise.
type Range struct {
	Start int
	End   int
}

// Cut pairs an excised range's original offset with its raw text, enough to
// restore the source exactly.
type Cut struct {
	Start int
	Text  string
}

// blankRuns matches three or more newlines separated only by blank space.
var blankRuns = regexp.MustCompile(`\n[ \t\r]*\n(?:[ \t\r]*\n)+`)

// Excise deletes the given ranges from text in a single offset-aware pass,
// preserving every other character verbatim. Ranges may arrive unordered or
// overlapping; they are sorted and merged first. The returned cuts allow
// Reinsert to reconstruct the original text exactly.
func Excise(text string, ranges []Range) (residual string, cuts []Cut) {
	merged := mergeRanges(ranges, len(text))

	var b strings.Builder

	pos := 0
	for _, r := range merged {
		b.WriteString(text[pos:r.Start])
		cuts = append(cuts, Cut{Start: r.Start, Text: text[r.Start:r.End]})
		pos = r.End
	}

	b.WriteString(text[pos:])

	return b.String(), cuts
}

// Reinsert restores the original text from a residual and the cuts produced
// by Excise. Excise followed by Reinsert is the identity.
func Reinsert(residual string, cuts []Cut) string {
	var b strings.Builder

	ri := 0  // consumed residual bytes
	pos := 0 // position in the original text

	for _, c := range cuts {
		keep := c.Start - pos
		b.WriteString(residual[ri : ri+keep])
		b.WriteString(c.Text)
		ri += keep
		pos = c.Start + len(c.Text)
	}

	b.WriteString(residual[ri:])

	return b.String()
}

// CollapseWhitespace applies the uncoded-output rule: runs of three or more
// newlines (with only blank space between them) collapse to a single blank
// line, then leading and trailing whitespace is trimmed. Everything else is
// preserved verbatim.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n\n"))
}

// SpanRanges converts coded and malformed spans into excision ranges
// covering their full markup.
func SpanRanges(coded []m.CodeSpan, malformed []m.MalformedSpan) []Range {
	ranges := make([]Range, 0, len(coded)+len(malformed))

	for _, c := range coded {
		ranges = append(ranges, Range{Start: c.Start, End: c.End})
	}

	for _, ms := range malformed {
		ranges = append(ranges, Range{Start: ms.Start, End: ms.End})
	}

	return ranges
}

// mergeRanges sorts, clamps and merges the ranges so excision can run as one
// forward pass.
func mergeRanges(ranges []Range, limit int) []Range {
	cleaned := make([]Range, 0, len(ranges))

	for _, r := range ranges {
		if r.Start < 0 {
			r.Start = 0
		}

		if r.End > limit {
			r.End = limit
		}

		if r.Start >= r.End {
			continue
		}

		cleaned = append(cleaned, r)
	}

	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Start < cleaned[j].Start })

	merged := cleaned[:0]
	for _, r := range cleaned {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}

			continue
		}

		merged = append(merged, r)
	}

	return merged
}
