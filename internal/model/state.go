package model

// DocState tracks a document through the sequential processing pipeline.
// Transitions are strictly forward; any unexpected condition moves the
// document to StateFailed and excludes it from aggregation.
type DocState string

const (
	StateRead             DocState = "read"
	StateMatched          DocState = "matched"
	StateFiltered         DocState = "filtered"
	StateDuplicateChecked DocState = "duplicate-checked"
	StateResidualComputed DocState = "residual-computed"
	StateWritten          DocState = "written"
	StateFailed           DocState = "failed"
)
