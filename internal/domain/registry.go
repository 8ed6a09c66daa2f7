package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"

	m "github.com/structur-io/structur/internal/model"
)

// Namespace keeps duplicate tracking for coded bodies, uncoded residuals and
// malformed fragments logically separate, so a coded duplicate never masks
// an uncoded one or vice versa.
type Namespace string

const (
	NamespaceCoded     Namespace = "coded"
	NamespaceUncoded   Namespace = "uncoded"
	NamespaceMalformed Namespace = "malformed"
)

// CheckResult is the outcome of a single registry lookup.
type CheckResult struct {
	IsDuplicate   bool
	FirstLocation string
	Seeded        bool // first occurrence was rehydrated from prior outputs
}

// Registry is the run-scoped store of previously seen normalized content.
// It is owned by the workflow for the run's duration and mutated only
// through CheckAndRegister and Seed; entries never leave within a run.
type Registry struct {
	entries    map[Namespace]map[string]registryEntry
	duplicates int
}

type registryEntry struct {
	location   string
	normalized string
	seeded     bool
}

// NewRegistry creates an empty registry. Tests and repeated runs get their
// own instance; there is no hidden process-wide state.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Namespace]map[string]registryEntry)}
}

// Normalize prepares content for comparison: trim, collapse internal
// whitespace runs, lowercase. Stored and returned content keeps its
// original formatting; normalization is for lookup only.
func Normalize(content string) string {
	return strings.ToLower(strings.Join(strings.Fields(content), " "))
}

// CheckAndRegister looks the content up and registers it when unseen.
// The first call for a given normalized content returns IsDuplicate=false;
// every later call with equal normalized content reports the original
// location. Blank content is never tracked.
func (r *Registry) CheckAndRegister(ns Namespace, content, location string) CheckResult {
	normalized := Normalize(content)
	if normalized == "" {
		return CheckResult{}
	}

	key := fingerprint(normalized)

	if e, found := r.lookup(ns, key); found {
		r.duplicates++

		return CheckResult{IsDuplicate: true, FirstLocation: e.location, Seeded: e.seeded}
	}

	r.store(ns, key, registryEntry{location: location, normalized: normalized})

	return CheckResult{}
}

// Seed registers content rehydrated from a previous run's outputs without
// counting it as a duplicate. Already-present entries are left untouched so
// in-run first-seen locations win over late seeding.
func (r *Registry) Seed(ns Namespace, content, location string) {
	normalized := Normalize(content)
	if normalized == "" {
		return
	}

	key := fingerprint(normalized)
	if _, found := r.lookup(ns, key); found {
		return
	}

	r.store(ns, key, registryEntry{location: location, normalized: normalized, seeded: true})
}

// Size returns the number of distinct entries in a namespace.
func (r *Registry) Size(ns Namespace) int {
	return len(r.entries[ns])
}

// Duplicates returns how many duplicate hits the run has produced.
func (r *Registry) Duplicates() int {
	return r.duplicates
}

// Snapshot exports every entry as a flat manifest for persistence. Order is
// not significant; the manifest stores normalized content only.
func (r *Registry) Snapshot() []m.SeenEntry {
	var out []m.SeenEntry

	for ns, bucket := range r.entries {
		for _, e := range bucket {
			out = append(out, m.SeenEntry{
				Namespace: string(ns),
				Location:  e.location,
				Content:   e.normalized,
			})
		}
	}

	return out
}

// RestoreSeeded rehydrates the registry from a persisted manifest, marking
// every entry as seeded so repeats route to the already-coded bucket.
func (r *Registry) RestoreSeeded(entries []m.SeenEntry) {
	for _, e := range entries {
		r.Seed(Namespace(e.Namespace), e.Content, e.Location)
	}
}

func (r *Registry) lookup(ns Namespace, key string) (registryEntry, bool) {
	bucket, ok := r.entries[ns]
	if !ok {
		return registryEntry{}, false
	}

	e, ok := bucket[key]

	return e, ok
}

func (r *Registry) store(ns Namespace, key string, e registryEntry) {
	if r.entries[ns] == nil {
		r.entries[ns] = make(map[string]registryEntry)
	}

	r.entries[ns][key] = e
}

func fingerprint(normalized string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(normalized)))
}
