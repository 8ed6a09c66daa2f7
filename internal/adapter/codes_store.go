package adapter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "github.com/structur-io/structur/internal/model"
)

// CodesStore manages the master code list: an ordered, newline-separated
// set of known code names. Comments prefixed # and blank lines are kept on
// disk and ignored on load; entries are appended, never removed.
type CodesStore interface {
	Load(path m.Path) ([]string, error)
	AppendNew(path m.Path, codes []string) ([]string, error)
	CreateEmptyCodeFiles(dir m.Path, codes []string) (int, error)
}

// LocalCodesStore is the filesystem-backed CodesStore.
type LocalCodesStore struct{}

// NewLocalCodesStore constructs a LocalCodesStore.
func NewLocalCodesStore() *LocalCodesStore {
	return &LocalCodesStore{}
}

// Load reads code names from the list, skipping blank lines and comments.
// A missing file is an empty list.
func (s *LocalCodesStore) Load(path m.Path) ([]string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("open codes file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var codes []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		codes = append(codes, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read codes file: %w", err)
	}

	return codes, nil
}

// AppendNew merges codes into the list, appending only names not already
// present, and returns the ones it added.
func (s *LocalCodesStore) AppendNew(path m.Path, codes []string) ([]string, error) {
	existing, err := s.Load(path)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c] = struct{}{}
	}

	var added []string

	for _, c := range codes {
		if _, ok := known[c]; ok {
			continue
		}

		known[c] = struct{}{}
		added = append(added, c)
	}

	if len(added) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o755); err != nil {
		return nil, fmt.Errorf("create codes folder: %w", err)
	}

	f, err := os.OpenFile(string(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open codes file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteString(strings.Join(added, "\n") + "\n"); err != nil {
		return nil, fmt.Errorf("append codes file: %w", err)
	}

	return added, nil
}

// CreateEmptyCodeFiles creates a headed, empty destination for every code
// that does not have one yet and returns how many were created.
func (s *LocalCodesStore) CreateEmptyCodeFiles(dir m.Path, codes []string) (int, error) {
	if err := os.MkdirAll(string(dir), 0o755); err != nil {
		return 0, fmt.Errorf("create coded folder: %w", err)
	}

	created := 0

	for _, code := range codes {
		dest := filepath.Join(string(dir), code+".md")

		if _, err := os.Stat(dest); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, err
		}

		header := fmt.Sprintf("# %s\n\n", code)
		if err := os.WriteFile(dest, []byte(header), 0o644); err != nil {
			return created, fmt.Errorf("create %s: %w", dest, err)
		}

		created++
	}

	return created, nil
}
