package adapter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/structur-io/structur/internal/config"
	m "github.com/structur-io/structur/internal/model"
)

// Bucket names the non-coded output destinations.
type Bucket string

const (
	BucketUncoded      Bucket = "uncoded"
	BucketDuplicates   Bucket = "duplicates"
	BucketMalformed    Bucket = "malformed"
	BucketAlreadyCoded Bucket = "already_coded"
)

// manifestDir and manifestFile hold the persisted duplicate manifest under
// the output base.
const (
	manifestDir  = ".structur"
	manifestFile = "seen.tsv"
)

// OutputStore persists processing results. Every destination is treated as
// an append-only log: prior content is never truncated or reordered within
// append mode, and content already present is never written twice.
type OutputStore interface {
	EnsureLayout() error
	AppendCoded(key m.CodeKey, content string) (m.Path, error)
	AppendBucket(bucket Bucket, docID, content string) error
	CopyOriginal(doc m.Document) error
	LoadManifest() ([]m.SeenEntry, error)
	SaveManifest(entries []m.SeenEntry) error
	CleanupEmpty() (int, error)
}

// LocalOutputStore writes results under the configured output base.
type LocalOutputStore struct {
	cfg *config.Settings

	// claims maps a code name to the first bracket style that used it this
	// run; a later style gets a suffixed destination so styles never merge.
	claims map[string]m.BracketStyle

	// truncated tracks destinations already reset in overwrite mode.
	truncated map[string]struct{}
}

// NewLocalOutputStore constructs a store for the given settings.
func NewLocalOutputStore(cfg *config.Settings) *LocalOutputStore {
	return &LocalOutputStore{
		cfg:       cfg,
		claims:    make(map[string]m.BracketStyle),
		truncated: make(map[string]struct{}),
	}
}

// EnsureLayout creates the enabled output folders.
func (s *LocalOutputStore) EnsureLayout() error {
	paths := []m.Path{s.cfg.CodedPath(), s.cfg.MalformedPath(), s.cfg.AlreadyCodedPath()}

	if s.cfg.UncodedEnabled {
		paths = append(paths, s.cfg.UncodedPath())
	}

	if s.cfg.DuplicatesEnabled {
		paths = append(paths, s.cfg.DuplicatesPath())
	}

	if s.cfg.OriginalsEnabled {
		paths = append(paths, s.cfg.OriginalsPath())
	}

	for _, p := range paths {
		if err := os.MkdirAll(string(p), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
	}

	return nil
}

// AppendCoded appends content to the destination for a code name and style,
// creating it when missing. The first style to claim a name gets
// <name>.md; a later style gets <name>.<style>.md.
func (s *LocalOutputStore) AppendCoded(key m.CodeKey, content string) (m.Path, error) {
	first, claimed := s.claims[key.Name]
	if !claimed {
		s.claims[key.Name] = key.Style
		first = key.Style
	}

	filename := key.Name + ".md"
	if first != key.Style {
		filename = fmt.Sprintf("%s.%s.md", key.Name, key.Style)
	}

	dest := filepath.Join(string(s.cfg.CodedPath()), filename)

	if err := s.appendIfAbsent(dest, content); err != nil {
		return "", err
	}

	return m.Path(dest), nil
}

// AppendBucket appends content to <bucket folder>/<docID>.md.
func (s *LocalOutputStore) AppendBucket(bucket Bucket, docID, content string) error {
	var dir m.Path

	switch bucket {
	case BucketUncoded:
		dir = s.cfg.UncodedPath()
	case BucketDuplicates:
		dir = s.cfg.DuplicatesPath()
	case BucketMalformed:
		dir = s.cfg.MalformedPath()
	case BucketAlreadyCoded:
		dir = s.cfg.AlreadyCodedPath()
	default:
		return fmt.Errorf("unknown bucket %q", bucket)
	}

	name := docID
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}

	return s.appendIfAbsent(filepath.Join(string(dir), name), content)
}

// CopyOriginal preserves the unmodified document under the originals folder.
func (s *LocalOutputStore) CopyOriginal(doc m.Document) error {
	if !s.cfg.OriginalsEnabled {
		return nil
	}

	dest := filepath.Join(string(s.cfg.OriginalsPath()), doc.ID)

	if err := os.WriteFile(dest, []byte(doc.Text), 0o644); err != nil {
		return fmt.Errorf("copy original %s: %w", doc.ID, err)
	}

	return nil
}

// LoadManifest reads the persisted duplicate manifest. A missing manifest
// is an empty one.
func (s *LocalOutputStore) LoadManifest() ([]m.SeenEntry, error) {
	path := filepath.Join(s.cfg.OutputBase, manifestDir, manifestFile)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var entries []m.SeenEntry

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		entries = append(entries, m.SeenEntry{
			Namespace: parts[0],
			Location:  parts[1],
			Content:   parts[2],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return entries, nil
}

// SaveManifest writes the duplicate manifest, replacing any previous one.
// Normalized content never contains tabs or newlines, so a TSV line per
// entry is unambiguous.
func (s *LocalOutputStore) SaveManifest(entries []m.SeenEntry) error {
	dir := filepath.Join(s.cfg.OutputBase, manifestDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest folder: %w", err)
	}

	var b strings.Builder

	b.WriteString("# structur duplicate manifest: namespace\tfirst location\tnormalized content\n")

	for _, e := range entries {
		b.WriteString(e.Namespace)
		b.WriteByte('\t')
		b.WriteString(e.Location)
		b.WriteByte('\t')
		b.WriteString(e.Content)
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, manifestFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// CleanupEmpty removes zero-length files left in the output folders and
// returns how many were removed.
func (s *LocalOutputStore) CleanupEmpty() (int, error) {
	folders := []m.Path{
		s.cfg.CodedPath(), s.cfg.UncodedPath(), s.cfg.DuplicatesPath(),
		s.cfg.MalformedPath(), s.cfg.AlreadyCodedPath(),
	}

	removed := 0

	for _, folder := range folders {
		entries, err := os.ReadDir(string(folder))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return removed, err
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			info, err := entry.Info()
			if err != nil || info.Size() > 0 {
				continue
			}

			if err := os.Remove(filepath.Join(string(folder), entry.Name())); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// appendIfAbsent appends content to path unless the destination already
// contains it. In overwrite mode the destination is reset on its first
// write of the run and appended to afterwards.
func (s *LocalOutputStore) appendIfAbsent(path, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	if !s.cfg.AppendMode {
		if _, done := s.truncated[path]; !done {
			s.truncated[path] = struct{}{}

			if err := os.WriteFile(path, nil, 0o644); err != nil {
				return fmt.Errorf("reset %s: %w", path, err)
			}
		}
	}

	existing := ""

	if raw, err := os.ReadFile(path); err == nil {
		existing = string(raw)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if strings.Contains(existing, trimmed) {
		return nil
	}

	out := trimmed + "\n"
	if existing != "" {
		out = "\n" + out
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteString(out); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}

	return nil
}
