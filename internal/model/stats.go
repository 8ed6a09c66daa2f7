package model

import "time"

// RunStats aggregates a whole processing run.
type RunStats struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Processed int
	Failed    int

	CodedSpans     int
	MalformedSpans int
	Duplicates     int
	AlreadyCoded   int

	Words       WordCounts
	Mismatches  int // documents whose word counts did not reconcile
	NewCodes    []string
	WriteErrors []string
	DocFailures []string
}

// Percent returns n as a percentage of the original word count.
func (s RunStats) Percent(n int) float64 {
	if s.Words.Original == 0 {
		return 0
	}

	return float64(n) / float64(s.Words.Original) * 100
}
