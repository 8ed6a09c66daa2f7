package domain

import (
	"strings"
	"testing"

	m "github.com/structur-io/structur/internal/model"
)

func newTestClassifier(filters ...string) *Classifier {
	return NewClassifier(m.AllStyles, filters, NewRegistry())
}

func TestClassifier_BasicExtraction(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(doc("Intro.\n\n{{theme}}==Coded passage.=={{theme}}\n\nOutro."))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.State != m.StateResidualComputed {
		t.Fatalf("expected residual-computed state, got %q", result.State)
	}
	if len(result.Coded) != 1 || result.Coded[0].Body != "Coded passage." {
		t.Fatalf("unexpected coded spans %+v", result.Coded)
	}
	if result.Uncoded != "Intro.\n\nOutro." {
		t.Fatalf("unexpected uncoded residual %q", result.Uncoded)
	}
	if len(result.ExtractedCodes) != 1 || result.ExtractedCodes[0] != "theme" {
		t.Fatalf("unexpected extracted codes %v", result.ExtractedCodes)
	}
	if !result.Counts.Reconciles(result.Tolerance) {
		t.Fatalf("word counts do not reconcile: %+v tolerance %d", result.Counts, result.Tolerance)
	}
}

func TestClassifier_RawResidualRoundTrips(t *testing.T) {
	c := newTestClassifier()
	text := "a {{x}}==b=={{x}} c"

	result, err := c.Classify(doc(text))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.RawResidual != "a  c" {
		t.Fatalf("unexpected raw residual %q", result.RawResidual)
	}
}

func TestClassifier_DuplicateWithinRun(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(doc("{{a}}==Same body.=={{a}}\n{{a}}==Same body.=={{a}}"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Coded) != 1 {
		t.Fatalf("expected 1 coded span, got %d", len(result.Coded))
	}
	if len(result.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(result.Duplicates))
	}
	if result.Duplicates[0].Seeded {
		t.Fatalf("in-run duplicate must not be seeded")
	}
	if !strings.Contains(result.Duplicates[0].FirstLocation, "(a)") {
		t.Fatalf("expected code in first location, got %q", result.Duplicates[0].FirstLocation)
	}
}

func TestClassifier_SeededContentRoutesToAlreadyCoded(t *testing.T) {
	registry := NewRegistry()
	registry.Seed(NamespaceCoded, "Old passage.", "prior.md (a)")

	c := NewClassifier(m.AllStyles, nil, registry)

	result, err := c.Classify(doc("{{a}}==Old passage.=={{a}}"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Coded) != 0 {
		t.Fatalf("seeded content extracted as new, %+v", result.Coded)
	}
	if len(result.AlreadyCoded) != 1 {
		t.Fatalf("expected 1 already-coded hit, got %d", len(result.AlreadyCoded))
	}
	if len(result.Duplicates) != 0 {
		t.Fatalf("seeded hit leaked into duplicates")
	}
}

func TestClassifier_FilteredSpansStayInResidual(t *testing.T) {
	c := newTestClassifier("keep")

	result, err := c.Classify(doc("{{keep}}==Wanted.=={{keep}} {{drop}}==Unwanted.=={{drop}}"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Coded) != 1 || result.Coded[0].Code != "keep" {
		t.Fatalf("unexpected coded spans %+v", result.Coded)
	}
	if len(result.Malformed) != 0 {
		t.Fatalf("filtered span misreported as malformed: %+v", result.Malformed)
	}
	if !strings.Contains(result.Uncoded, "{{drop}}==Unwanted.=={{drop}}") {
		t.Fatalf("filtered span missing from residual %q", result.Uncoded)
	}
}

func TestClassifier_MalformedRouted(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(doc("fine text {{a}}==never closed"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Malformed) != 1 {
		t.Fatalf("expected 1 malformed span, got %d", len(result.Malformed))
	}
	if result.Malformed[0].Reason != m.ReasonUnterminated {
		t.Fatalf("unexpected reason %q", result.Malformed[0].Reason)
	}
	if strings.Contains(result.Uncoded, "never closed") {
		t.Fatalf("malformed text leaked into uncoded %q", result.Uncoded)
	}
}

func TestClassifier_RepeatedMalformedIsDuplicate(t *testing.T) {
	c := newTestClassifier()

	first, err := c.Classify(doc("{{a}}==never closed"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(first.Malformed) != 1 {
		t.Fatalf("expected 1 malformed span, got %d", len(first.Malformed))
	}

	second, err := c.Classify(m.Document{ID: "other.md", Text: "{{a}}==never closed"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(second.Malformed) != 0 {
		t.Fatalf("repeat reported as new malformed")
	}
	if len(second.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(second.Duplicates))
	}
}

func TestClassifier_UncodedResidualDuplicate(t *testing.T) {
	c := newTestClassifier()

	if _, err := c.Classify(m.Document{ID: "a.md", Text: "Shared residual text."}); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	second, err := c.Classify(m.Document{ID: "b.md", Text: "Shared residual text."})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if second.UncodedDup == nil {
		t.Fatalf("expected uncoded duplicate hit")
	}
	if second.UncodedDup.FirstLocation != "a.md" {
		t.Fatalf("expected first location a.md, got %q", second.UncodedDup.FirstLocation)
	}
	if second.Counts.Uncoded != 0 || second.Counts.Duplicate == 0 {
		t.Fatalf("duplicate residual counted as uncoded: %+v", second.Counts)
	}
}

func TestClassifier_InvalidUTF8Fails(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(m.Document{ID: "bad.md", Text: string([]byte{0xff, 0xfe})})
	if err == nil {
		t.Fatalf("expected error for invalid encoding")
	}
	if result.State != m.StateFailed {
		t.Fatalf("expected failed state, got %q", result.State)
	}
	if result.FailureReason == "" {
		t.Fatalf("expected failure reason")
	}
}

func TestClassifier_ToleranceScalesWithSpans(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(doc("{{a}}==one=={{a}} {{b}}==two=={{b}} {{c}}==broken"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Tolerance != 3*(2+1) {
		t.Fatalf("expected tolerance 9, got %d", result.Tolerance)
	}
}
