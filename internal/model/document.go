// Package model defines the data structures for coded-text processing.
package model

import "strings"

// Path represents a file system path.
type Path string

// Document is a source text under processing. The text is immutable once
// read; every transformation produces a new value.
type Document struct {
	ID   string // identifying name, usually the file name
	Path Path   // full origin path, empty for synthetic documents
	Text string
}

// WordCount counts whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
