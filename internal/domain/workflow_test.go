package domain

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/structur-io/structur/internal/adapter"
	"github.com/structur-io/structur/internal/config"
	m "github.com/structur-io/structur/internal/model"
)

// fakeSource serves documents from memory in a fixed order.
type fakeSource struct {
	order []m.Path
	docs  map[m.Path]m.Document
	fail  map[m.Path]bool
}

func (f *fakeSource) List(_ m.Path) ([]m.Path, error) {
	return f.order, nil
}

func (f *fakeSource) Read(path m.Path) (m.Document, error) {
	if f.fail[path] {
		return m.Document{}, fmt.Errorf("read %s: boom", path)
	}

	return f.docs[path], nil
}

// fakeStore records writes in memory.
type fakeStore struct {
	coded     map[m.CodeKey][]string
	buckets   map[adapter.Bucket]map[string][]string
	originals []string
	manifest  []m.SeenEntry
	saved     []m.SeenEntry
	cleaned   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		coded:   make(map[m.CodeKey][]string),
		buckets: make(map[adapter.Bucket]map[string][]string),
	}
}

func (f *fakeStore) EnsureLayout() error { return nil }

func (f *fakeStore) AppendCoded(key m.CodeKey, content string) (m.Path, error) {
	f.coded[key] = append(f.coded[key], content)

	return m.Path(key.Name + ".md"), nil
}

func (f *fakeStore) AppendBucket(bucket adapter.Bucket, docID, content string) error {
	if f.buckets[bucket] == nil {
		f.buckets[bucket] = make(map[string][]string)
	}

	f.buckets[bucket][docID] = append(f.buckets[bucket][docID], content)

	return nil
}

func (f *fakeStore) CopyOriginal(doc m.Document) error {
	f.originals = append(f.originals, doc.ID)

	return nil
}

func (f *fakeStore) LoadManifest() ([]m.SeenEntry, error) { return f.manifest, nil }

func (f *fakeStore) SaveManifest(entries []m.SeenEntry) error {
	f.saved = entries

	return nil
}

func (f *fakeStore) CleanupEmpty() (int, error) {
	f.cleaned = true

	return 0, nil
}

// fakeCodes records master code list updates.
type fakeCodes struct {
	known     []string
	appended  []string
	generated int
}

func (f *fakeCodes) Load(_ m.Path) ([]string, error) { return f.known, nil }

func (f *fakeCodes) AppendNew(_ m.Path, codes []string) ([]string, error) {
	var added []string

	seen := make(map[string]struct{}, len(f.known))
	for _, c := range f.known {
		seen[c] = struct{}{}
	}

	for _, c := range codes {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			added = append(added, c)
		}
	}

	f.appended = added

	return added, nil
}

func (f *fakeCodes) CreateEmptyCodeFiles(_ m.Path, codes []string) (int, error) {
	f.generated = len(codes)

	return len(codes), nil
}

// fakeUI counts lifecycle calls.
type fakeUI struct {
	total     int
	started   int
	completed int
	summary   *m.RunStats
	closed    bool
}

func (f *fakeUI) Start(total int) error { f.total = total; return nil }
func (f *fakeUI) DocumentStarted(_ string) {
	f.started++
}

func (f *fakeUI) DocumentCompleted(_ string, _ m.ProcessingResult) {
	f.completed++
}

func (f *fakeUI) DisplaySummary(stats m.RunStats) error {
	f.summary = &stats

	return nil
}

func (f *fakeUI) Close() { f.closed = true }

func testSettings() *config.Settings {
	return &config.Settings{
		InputFolder:       "in",
		OutputBase:        "out",
		AppendMode:        true,
		Styles:            []string{string(m.StyleBrace), string(m.StyleBracket)},
		UncodedEnabled:    true,
		DuplicatesEnabled: true,
		OriginalsEnabled:  true,
	}
}

func newTestWorkflow(t *testing.T, cfg *config.Settings, source *fakeSource, store *fakeStore, codes *fakeCodes, ui *fakeUI) Workflow {
	t.Helper()

	wf, err := NewWorkflow(cfg, source, store, codes, ui, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWorkflow() error = %v", err)
	}

	return wf
}

func TestWorkflow_Run_WritesBuckets(t *testing.T) {
	source := &fakeSource{
		order: []m.Path{"in/a.md", "in/b.md"},
		docs: map[m.Path]m.Document{
			"in/a.md": {ID: "a.md", Text: "{{x}}==First passage.=={{x}}\n\nProse one."},
			"in/b.md": {ID: "b.md", Text: "{{x}}==First passage.=={{x}}\n\nProse two."},
		},
	}
	store := newFakeStore()
	ui := &fakeUI{}

	wf := newTestWorkflow(t, testSettings(), source, store, &fakeCodes{}, ui)

	stats, err := wf.Run("in")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Processed != 2 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.CodedSpans != 1 || stats.Duplicates != 1 {
		t.Fatalf("expected 1 coded and 1 duplicate, got %d and %d", stats.CodedSpans, stats.Duplicates)
	}

	key := m.CodeKey{Name: "x", Style: m.StyleBrace}
	if got := store.coded[key]; len(got) != 1 || got[0] != "First passage." {
		t.Fatalf("unexpected coded writes %v", got)
	}

	dups := store.buckets[adapter.BucketDuplicates]["b.md"]
	if len(dups) != 1 || !strings.Contains(dups[0], "first seen: a.md (x)") {
		t.Fatalf("unexpected duplicate writes %v", dups)
	}

	uncoded := store.buckets[adapter.BucketUncoded]
	if len(uncoded["a.md"]) != 1 || uncoded["a.md"][0] != "Prose one." {
		t.Fatalf("unexpected uncoded writes %v", uncoded["a.md"])
	}

	if len(store.originals) != 2 {
		t.Fatalf("expected 2 originals copied, got %d", len(store.originals))
	}
	if len(store.saved) == 0 {
		t.Fatalf("manifest was not persisted")
	}
	if !store.cleaned {
		t.Fatalf("empty-file cleanup did not run")
	}
	if ui.total != 2 || ui.completed != 2 || ui.summary == nil {
		t.Fatalf("unexpected UI lifecycle %+v", ui)
	}
}

func TestWorkflow_Run_SeededManifestRoutesToAlreadyCoded(t *testing.T) {
	source := &fakeSource{
		order: []m.Path{"in/a.md"},
		docs: map[m.Path]m.Document{
			"in/a.md": {ID: "a.md", Text: "{{x}}==Old passage.=={{x}}"},
		},
	}
	store := newFakeStore()
	store.manifest = []m.SeenEntry{
		{Namespace: string(NamespaceCoded), Location: "prior.md (x)", Content: "old passage."},
	}
	ui := &fakeUI{}

	wf := newTestWorkflow(t, testSettings(), source, store, &fakeCodes{}, ui)

	stats, err := wf.Run("in")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.AlreadyCoded != 1 || stats.CodedSpans != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	already := store.buckets[adapter.BucketAlreadyCoded]["a.md"]
	if len(already) != 1 || !strings.Contains(already[0], "prior.md (x)") {
		t.Fatalf("unexpected already-coded writes %v", already)
	}
	if len(store.coded) != 0 {
		t.Fatalf("seeded content must not reach coded output")
	}
}

func TestWorkflow_Run_ReadFailureIsIsolated(t *testing.T) {
	source := &fakeSource{
		order: []m.Path{"in/bad.md", "in/good.md"},
		docs: map[m.Path]m.Document{
			"in/good.md": {ID: "good.md", Text: "{{x}}==Fine.=={{x}}"},
		},
		fail: map[m.Path]bool{"in/bad.md": true},
	}
	store := newFakeStore()
	ui := &fakeUI{}

	wf := newTestWorkflow(t, testSettings(), source, store, &fakeCodes{}, ui)

	stats, err := wf.Run("in")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Failed != 1 || stats.Processed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats.DocFailures) != 1 || !strings.Contains(stats.DocFailures[0], "bad.md") {
		t.Fatalf("unexpected failures %v", stats.DocFailures)
	}
	if ui.completed != 2 {
		t.Fatalf("failed document missing from UI, completed %d", ui.completed)
	}
}

func TestWorkflow_Run_AutoCodesFile(t *testing.T) {
	source := &fakeSource{
		order: []m.Path{"in/a.md"},
		docs: map[m.Path]m.Document{
			"in/a.md": {ID: "a.md", Text: "{{fresh}}==One.=={{fresh}} {{known}}==Two.=={{known}}"},
		},
	}
	codes := &fakeCodes{known: []string{"known"}}
	cfg := testSettings()
	cfg.CodesFile = "codes.txt"
	cfg.AutoCodesFile = true

	wf := newTestWorkflow(t, cfg, source, newFakeStore(), codes, &fakeUI{})

	stats, err := wf.Run("in")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(codes.appended) != 1 || codes.appended[0] != "fresh" {
		t.Fatalf("unexpected appended codes %v", codes.appended)
	}
	if len(stats.NewCodes) != 1 || stats.NewCodes[0] != "fresh" {
		t.Fatalf("unexpected new codes %v", stats.NewCodes)
	}
}

func TestWorkflow_Run_RegenerateCodes(t *testing.T) {
	source := &fakeSource{order: nil, docs: nil}
	codes := &fakeCodes{known: []string{"a", "b", "c"}}
	cfg := testSettings()
	cfg.CodesFile = "codes.txt"
	cfg.RegenerateCodes = true

	wf := newTestWorkflow(t, cfg, source, newFakeStore(), codes, &fakeUI{})

	if _, err := wf.Run("in"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if codes.generated != 3 {
		t.Fatalf("expected 3 generated code files, got %d", codes.generated)
	}
}

func TestWorkflow_Run_PreserveCodesKeepsMarkup(t *testing.T) {
	source := &fakeSource{
		order: []m.Path{"in/a.md"},
		docs: map[m.Path]m.Document{
			"in/a.md": {ID: "a.md", Text: "{{x}}==Body.=={{x}}"},
		},
	}
	store := newFakeStore()
	cfg := testSettings()
	cfg.PreserveCodes = true

	wf := newTestWorkflow(t, cfg, source, store, &fakeCodes{}, &fakeUI{})

	if _, err := wf.Run("in"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	key := m.CodeKey{Name: "x", Style: m.StyleBrace}
	if got := store.coded[key]; len(got) != 1 || got[0] != "{{x}}==Body.=={{x}}" {
		t.Fatalf("expected markup preserved, got %v", got)
	}
}
