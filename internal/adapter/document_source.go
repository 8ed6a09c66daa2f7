// Package adapter contains filesystem and persistence adapters for the
// structur CLI. The domain layer sees interfaces only, so the workflow can
// be tested without touching the disk.
package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	m "github.com/structur-io/structur/internal/model"
)

// sourceExtensions are the document types the tool processes.
var sourceExtensions = map[string]struct{}{
	".md":  {},
	".txt": {},
}

// DocumentSource abstracts document discovery and reading. List returns
// paths in natural/alphanumeric sort order; the duplicate registry's
// first-seen semantics depend on that order staying stable.
type DocumentSource interface {
	List(root m.Path) ([]m.Path, error)
	Read(path m.Path) (m.Document, error)
}

// LocalDocumentSource reads documents from the local filesystem.
type LocalDocumentSource struct{}

// NewLocalDocumentSource constructs a LocalDocumentSource.
func NewLocalDocumentSource() *LocalDocumentSource {
	return &LocalDocumentSource{}
}

// List walks root recursively and returns every .md and .txt file in
// natural sort order over the full path.
func (s *LocalDocumentSource) List(root m.Path) ([]m.Path, error) {
	info, err := os.Stat(string(root))
	if err != nil {
		return nil, fmt.Errorf("input folder: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", root)
	}

	var paths []m.Path

	err = filepath.Walk(string(root), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if _, ok := sourceExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, m.Path(path))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return naturalLess(string(paths[i]), string(paths[j]))
	})

	return paths, nil
}

// Read loads a document and verifies it decodes as UTF-8.
func (s *LocalDocumentSource) Read(path m.Path) (m.Document, error) {
	raw, err := os.ReadFile(string(path))
	if err != nil {
		return m.Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	if !utf8.Valid(raw) {
		return m.Document{}, fmt.Errorf("read %s: content is not valid UTF-8", path)
	}

	return m.Document{
		ID:   filepath.Base(string(path)),
		Path: path,
		Text: string(raw),
	}, nil
}

// naturalLess orders strings the way a file browser does: digit runs
// compare numerically, everything else case-insensitively.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		ar, an := chunk(a)
		br, bn := chunk(b)

		if ar != br {
			aNum, aErr := strconv.ParseUint(ar, 10, 64)
			bNum, bErr := strconv.ParseUint(br, 10, 64)

			if aErr == nil && bErr == nil {
				if aNum != bNum {
					return aNum < bNum
				}
			} else {
				al, bl := strings.ToLower(ar), strings.ToLower(br)
				if al != bl {
					return al < bl
				}

				return ar < br
			}
		}

		a, b = an, bn
	}

	return len(a) < len(b)
}

// chunk splits off the leading run of digits or non-digits.
func chunk(s string) (head, tail string) {
	if s == "" {
		return "", ""
	}

	digit := unicode.IsDigit(rune(s[0]))

	for i := 0; i < len(s); i++ {
		if unicode.IsDigit(rune(s[i])) != digit {
			return s[:i], s[i:]
		}
	}

	return s, ""
}
