// Package domain implements the coded-text segmentation engine: span
// matching, malformed detection, residual computation, duplicate tracking
// and the per-document processing workflow.
package domain

import (
	"sort"
	"strings"

	m "github.com/structur-io/structur/internal/model"
)

// forbiddenNameChars are delimiter characters that may never appear inside
// a code name. An opener carrying them is handed to malformed detection.
const forbiddenNameChars = "{}[]"

// Matcher finds well-formed coded spans via an explicit ordered-candidate
// scan. Matching is non-overlapping and greedy on the shortest valid body;
// overlap between styles resolves leftmost-longest.
type Matcher struct {
	styles []m.BracketStyle
}

// NewMatcher creates a Matcher for the given bracket styles. With no styles
// provided, both supported styles are scanned.
func NewMatcher(styles ...m.BracketStyle) *Matcher {
	if len(styles) == 0 {
		styles = append(styles, m.AllStyles...)
	}

	return &Matcher{styles: styles}
}

// Scan returns every well-formed coded span in the document, ordered by
// position. Per-style passes run independently and merge by position.
func (mt *Matcher) Scan(doc m.Document) []m.CodeSpan {
	var all []m.CodeSpan

	for _, style := range mt.styles {
		all = append(all, scanStyle(doc, style)...)
	}

	return resolveOverlaps(all)
}

// scanStyle walks the document looking for spans of a single style.
func scanStyle(doc m.Document, style m.BracketStyle) []m.CodeSpan {
	var spans []m.CodeSpan

	text := doc.Text
	open := style.Open()

	i := 0
	for {
		p := strings.Index(text[i:], open)
		if p < 0 {
			break
		}

		p += i

		span, ok := parseSpanAt(text, p, style, doc.ID)
		if !ok {
			i = p + len(open)

			continue
		}

		spans = append(spans, span)
		i = span.End
	}

	return spans
}

// parseSpanAt attempts to parse a full coded span whose opening delimiter
// sits at offset p. It returns false for any candidate that is not
// well-formed; malformed detection deals with those later.
func parseSpanAt(text string, p int, style m.BracketStyle, source string) (m.CodeSpan, bool) {
	open, closeTok := style.Open(), style.Close()

	name, nameEnd, ok := parseName(text, p+len(open), closeTok)
	if !ok {
		return m.CodeSpan{}, false
	}

	// Opening delimiter must be followed by the == separator.
	j := skipSpace(text, nameEnd)
	if !strings.HasPrefix(text[j:], "==") {
		return m.CodeSpan{}, false
	}

	bodyStart := j + 2

	// Greedy on the shortest valid body: take the first == that is followed
	// by a matching same-style, same-name closing delimiter.
	k := bodyStart
	for {
		rel := strings.Index(text[k:], "==")
		if rel < 0 {
			return m.CodeSpan{}, false
		}

		k += rel

		closeEnd, matched := matchClosing(text, k+2, style, name)
		if !matched {
			k += 2

			continue
		}

		body := strings.TrimSpace(text[bodyStart:k])
		end := closeEnd

		identifier, idEnd := parseIdentifier(text, closeEnd)
		if identifier != "" {
			end = idEnd
		}

		return m.CodeSpan{
			Code:       name,
			Body:       body,
			Start:      p,
			End:        end,
			Identifier: identifier,
			Style:      style,
			Source:     source,
		}, true
	}
}

// parseName reads the code name between an opening delimiter and its close
// token. Names containing delimiter characters or newlines are rejected.
func parseName(text string, start int, closeTok string) (name string, end int, ok bool) {
	rel := strings.Index(text[start:], closeTok)
	if rel < 0 {
		return "", 0, false
	}

	raw := text[start : start+rel]

	name = strings.TrimSpace(raw)
	if name == "" {
		return "", 0, false
	}

	if strings.ContainsAny(name, forbiddenNameChars) || strings.ContainsRune(name, '\n') {
		return "", 0, false
	}

	return name, start + rel + len(closeTok), true
}

// matchClosing checks whether the text at pos (just past a == separator)
// reads as the closing delimiter for the given style and name. It returns
// the offset just past the closing delimiter.
func matchClosing(text string, pos int, style m.BracketStyle, name string) (int, bool) {
	open, closeTok := style.Open(), style.Close()

	q := skipSpace(text, pos)
	if !strings.HasPrefix(text[q:], open) {
		return 0, false
	}

	closeName, end, ok := parseName(text, q+len(open), closeTok)
	if !ok || closeName != name {
		return 0, false
	}

	return end, true
}

// parseIdentifier consumes an optional " ^id-<alnum>" token directly after a
// closing delimiter. The returned identifier omits the caret.
func parseIdentifier(text string, pos int) (string, int) {
	const marker = " ^id-"

	if !strings.HasPrefix(text[pos:], marker) {
		return "", pos
	}

	i := pos + len(marker)

	j := i
	for j < len(text) && isAlphanumeric(text[j]) {
		j++
	}

	if j == i {
		return "", pos
	}

	return "id-" + text[i:j], j
}

// resolveOverlaps merges per-style span lists by position. On overlap the
// earlier-starting span wins; on an exact tie the longer one does. Dropped
// regions are left in place for malformed detection.
func resolveOverlaps(spans []m.CodeSpan) []m.CodeSpan {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}

		return spans[i].End > spans[j].End
	})

	kept := spans[:0]
	lastEnd := -1

	for _, span := range spans {
		if span.Start < lastEnd {
			continue
		}

		kept = append(kept, span)
		lastEnd = span.End
	}

	return kept
}

// skipSpace advances past spaces and tabs (never newlines; the == separator
// must sit on the same line as its delimiter).
func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}

	return i
}

func isAlphanumeric(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
