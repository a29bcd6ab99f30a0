package importer

// Outcome states how a run ended.
type Outcome string

const (
	// Completed means the whole source was consumed.
	Completed Outcome = "completed"
	// Cancelled means the caller cancelled between chunks; everything
	// committed before that point stays committed.
	Cancelled Outcome = "cancelled"
	// Aborted means the database became unreachable mid-run; prior chunks
	// stay committed.
	Aborted Outcome = "aborted"
)

// RowFailure records one row that did not reach the table. Index is the
// 1-based data row position in the source.
type RowFailure struct {
	Index  int64
	Row    string
	Reason string
}

// Result is the summary a run leaves behind. Immutable once returned:
// Attempted = Succeeded + Failed, and Failures holds one entry per failed
// row in source order.
type Result struct {
	RunID     string
	Attempted int64
	Succeeded int64
	Failed    int64
	Outcome   Outcome
	Failures  []RowFailure
}
