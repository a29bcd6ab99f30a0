package contracts

import (
	"context"
	"database/sql"

	"github.com/oarkflow/tabular/pkg/utils"
)

// DB is the connection handle the engine drives. It is satisfied by the
// squealx adapter and by in-memory fakes in tests.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Driver() string
}

// Tx is one open transaction on a DB.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

// Rows is a forward-only result cursor.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// RowSource yields source rows one at a time, in file order. Next returns
// io.EOF after the last row. Sources are finite, forward-only and lazy; a
// consumed source cannot be rewound.
type RowSource interface {
	Header() []string
	Next() (utils.Record, error)
	Close() error
}

// Progress is a snapshot of run counters. Total is -1 when the source does
// not know its row count up front.
type Progress struct {
	Attempted int64
	Succeeded int64
	Failed    int64
	Total     int64
}

// ProgressSink receives progress snapshots after each processed chunk.
// Delivery is advisory and lossy-tolerant: a slow consumer may miss
// snapshots, so the run's returned result, not the sink, is authoritative.
type ProgressSink interface {
	OnProgress(p Progress)
}

// Event is one line of the persisted run log.
type Event struct {
	RunID    string
	RowIndex int64
	Level    string
	Message  string
}

// EventLog records per-row failures and fatal errors for later inspection.
type EventLog interface {
	Append(ev Event) error
	Close() error
}
