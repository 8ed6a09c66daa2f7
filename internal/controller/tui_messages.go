package controller

import (
	"time"

	m "github.com/structur-io/structur/internal/model"
)

type tickMsg time.Time

// Message types.
type runStartMsg struct {
	total int
}

type startDocMsg struct {
	id string
}

type completedDocMsg struct {
	id     string
	state  m.DocState
	coded  int
	dups   int
	seen   int
	broken int
	reason string
}

type summaryMsg struct {
	stats m.RunStats
}

// List item type for completed documents.
type docItem struct {
	id     string
	status string
	detail string
}

func (d docItem) FilterValue() string {
	return d.id + " " + d.status
}
