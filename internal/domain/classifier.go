package domain

import (
	"fmt"
	"unicode/utf8"

	m "github.com/structur-io/structur/internal/model"
)

// Classifier drives one document through matching, malformed detection,
// duplicate checking and residual computation, producing the per-document
// result. It is pure with respect to the filesystem; writing is the
// workflow's job.
type Classifier struct {
	matcher  *Matcher
	detector *MalformedDetector
	registry *Registry
	filters  map[string]struct{} // nil means every code is in scope
}

// NewClassifier wires a classifier against the shared run registry. filters,
// when non-empty, restricts processing to the named codes; spans of other
// codes are left in place and surface in the uncoded bucket.
func NewClassifier(styles []m.BracketStyle, filters []string, registry *Registry) *Classifier {
	var filterSet map[string]struct{}

	if len(filters) > 0 {
		filterSet = make(map[string]struct{}, len(filters))
		for _, f := range filters {
			filterSet[f] = struct{}{}
		}
	}

	return &Classifier{
		matcher:  NewMatcher(styles...),
		detector: NewMalformedDetector(styles...),
		registry: registry,
		filters:  filterSet,
	}
}

// Classify runs the sequential per-document pipeline. Documents that cannot
// be decoded fail as a whole; no partial result is produced for them.
func (c *Classifier) Classify(doc m.Document) (m.ProcessingResult, error) {
	if !utf8.ValidString(doc.Text) {
		return m.ProcessingResult{
			DocID:         doc.ID,
			State:         m.StateFailed,
			FailureReason: "content is not valid UTF-8",
		}, fmt.Errorf("document %s: content is not valid UTF-8", doc.ID)
	}

	result := m.ProcessingResult{DocID: doc.ID, State: m.StateRead}

	all := c.matcher.Scan(doc)
	result.State = m.StateMatched

	// Every well-formed span shields its region from malformed detection,
	// filtered or not; filtering only decides what gets extracted.
	malformed := c.detector.Detect(doc, all)

	spans := c.applyFilters(all)
	result.State = m.StateFiltered

	c.checkSpans(doc, spans, &result)
	c.checkMalformed(doc, malformed, &result)
	result.State = m.StateDuplicateChecked

	raw, _ := Excise(doc.Text, SpanRanges(spans, malformed))
	result.RawResidual = raw
	result.Uncoded = CollapseWhitespace(raw)

	if result.Uncoded != "" {
		check := c.registry.CheckAndRegister(NamespaceUncoded, result.Uncoded, doc.ID)
		if check.IsDuplicate {
			result.UncodedDup = &m.DuplicateHit{
				Content:       result.Uncoded,
				FirstLocation: check.FirstLocation,
				Seeded:        check.Seeded,
			}
		}
	}

	result.State = m.StateResidualComputed
	result.Counts = countWords(doc, result)
	result.Tolerance = 3 * (len(spans) + len(malformed))

	return result, nil
}

// applyFilters drops spans whose code is outside the configured filter set.
// Dropped spans keep their markup in the document and are never excised.
func (c *Classifier) applyFilters(spans []m.CodeSpan) []m.CodeSpan {
	if c.filters == nil {
		return spans
	}

	kept := make([]m.CodeSpan, 0, len(spans))

	for _, span := range spans {
		if _, ok := c.filters[span.Code]; ok {
			kept = append(kept, span)
		}
	}

	return kept
}

// checkSpans routes each span through the registry: new spans stay coded,
// repeats split between in-run duplicates and already-coded content from
// previous runs.
func (c *Classifier) checkSpans(doc m.Document, spans []m.CodeSpan, result *m.ProcessingResult) {
	seenCodes := make(map[string]struct{})

	for _, span := range spans {
		if _, ok := seenCodes[span.Code]; !ok {
			seenCodes[span.Code] = struct{}{}
			result.ExtractedCodes = append(result.ExtractedCodes, span.Code)
		}

		location := fmt.Sprintf("%s (%s)", doc.ID, span.Code)

		check := c.registry.CheckAndRegister(NamespaceCoded, span.Body, location)
		if !check.IsDuplicate {
			result.Coded = append(result.Coded, span)

			continue
		}

		hit := m.DuplicateHit{
			Content:       span.Body,
			Code:          span.Code,
			Style:         span.Style,
			FirstLocation: check.FirstLocation,
			Seeded:        check.Seeded,
		}

		if check.Seeded {
			result.AlreadyCoded = append(result.AlreadyCoded, hit)
		} else {
			result.Duplicates = append(result.Duplicates, hit)
		}
	}
}

// checkMalformed routes malformed fragments through their own namespace.
func (c *Classifier) checkMalformed(doc m.Document, malformed []m.MalformedSpan, result *m.ProcessingResult) {
	for _, ms := range malformed {
		location := fmt.Sprintf("%s (malformed:%s)", doc.ID, ms.Reason)

		check := c.registry.CheckAndRegister(NamespaceMalformed, ms.Text, location)
		if !check.IsDuplicate {
			result.Malformed = append(result.Malformed, ms)

			continue
		}

		hit := m.DuplicateHit{
			Content:       ms.Text,
			Style:         ms.Style,
			FirstLocation: check.FirstLocation,
			Seeded:        check.Seeded,
		}

		if check.Seeded {
			result.AlreadyCoded = append(result.AlreadyCoded, hit)
		} else {
			result.Duplicates = append(result.Duplicates, hit)
		}
	}
}

// countWords reconciles the document's words across buckets. Marker tokens
// are excluded everywhere, which is what the tolerance absorbs.
func countWords(doc m.Document, result m.ProcessingResult) m.WordCounts {
	counts := m.WordCounts{Original: m.WordCount(doc.Text)}

	for _, span := range result.Coded {
		counts.Coded += span.Words()
	}

	for _, ms := range result.Malformed {
		counts.Malformed += ms.Words()
	}

	for _, hit := range result.Duplicates {
		counts.Duplicate += m.WordCount(hit.Content)
	}

	for _, hit := range result.AlreadyCoded {
		counts.Duplicate += m.WordCount(hit.Content)
	}

	if result.UncodedDup != nil {
		counts.Duplicate += m.WordCount(result.Uncoded)
	} else {
		counts.Uncoded = m.WordCount(result.Uncoded)
	}

	return counts
}
