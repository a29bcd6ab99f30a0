package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/oarkflow/log"
	"github.com/oarkflow/xid"

	"github.com/oarkflow/tabular/pkg/adapters/sqladapter"
	"github.com/oarkflow/tabular/pkg/contracts"
	"github.com/oarkflow/tabular/pkg/logs"
	"github.com/oarkflow/tabular/pkg/mapping"
	"github.com/oarkflow/tabular/pkg/utils"
)

// Importer drives one mapped source into one target table: rows are
// projected one at a time, accepted rows are grouped into chunks, and each
// chunk runs in its own transaction. A failed chunk is rolled back and its
// rows retried individually so one bad row never takes its neighbours down.
type Importer struct {
	db        contracts.DB
	chunkSize int
	progress  contracts.ProgressSink
	events    contracts.EventLog
	logger    *log.Logger
	truncate  bool
	total     int64
}

// New builds an Importer around db. The handle belongs to the run; no
// other work should share it while Run is active.
func New(db contracts.DB, opts ...Option) *Importer {
	im := &Importer{
		db:        db,
		chunkSize: defaultChunkSize,
		progress:  NopSink{},
		events:    logs.Nop{},
		logger:    &log.DefaultLogger,
		total:     -1,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

type pendingRow struct {
	index int64
	raw   utils.Record
	row   utils.Record
}

// Run consumes source to exhaustion (or cancellation) and returns the
// run's Result. The error is non-nil only for fatal conditions: setup
// failures before the first row, a broken reader, or the database becoming
// unreachable mid-run. Cancellation is an Outcome, not an error.
func (im *Importer) Run(ctx context.Context, compiled *mapping.Compiled, source contracts.RowSource) (*Result, error) {
	runID := xid.New().String()
	res := &Result{RunID: runID, Outcome: Completed}
	table := compiled.Table().Name

	im.logger.Info().Str("run_id", runID).Str("table", table).Str("mode", string(compiled.Mode())).Msg("import started")
	_ = im.events.Append(contracts.Event{RunID: runID, RowIndex: -1, Level: "INFO",
		Message: fmt.Sprintf("import into %s started (%s mode)", table, compiled.Mode())})

	if im.truncate && compiled.Mode() == mapping.ModeInsert {
		stmt := sqladapter.TruncateStatement(im.db.Driver(), table)
		if _, err := im.db.ExecContext(ctx, stmt); err != nil {
			return nil, im.fatal(res, fmt.Errorf("importer: truncate %s: %w", table, err))
		}
	}

	var (
		index int64
		eof   bool
	)
	for !eof {
		// Cancellation takes effect only here, between chunks: once it is
		// requested, no further rows are pulled, projected, or counted.
		if ctx.Err() != nil {
			res.Outcome = Cancelled
			break
		}
		chunk := make([]pendingRow, 0, im.chunkSize)
		for len(chunk) < im.chunkSize {
			raw, err := source.Next()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				res.Outcome = Aborted
				im.report(res)
				return res, im.fatal(res, fmt.Errorf("importer: read row %d: %w", index+1, err))
			}
			index++
			row, rej := compiled.Apply(raw)
			if rej != nil {
				im.recordFailure(res, index, raw, rej.String())
				continue
			}
			chunk = append(chunk, pendingRow{index: index, raw: raw, row: row})
		}
		if len(chunk) == 0 {
			break
		}
		if err := im.execChunk(ctx, compiled, chunk, res); err != nil {
			res.Outcome = Aborted
			im.report(res)
			return res, im.fatal(res, err)
		}
		im.report(res)
	}

	im.report(res)
	im.logger.Info().Str("run_id", runID).Str("outcome", string(res.Outcome)).
		Int("attempted", int(res.Attempted)).Int("succeeded", int(res.Succeeded)).Int("failed", int(res.Failed)).
		Msg("import finished")
	_ = im.events.Append(contracts.Event{RunID: runID, RowIndex: -1, Level: "INFO",
		Message: fmt.Sprintf("import %s: %d attempted, %d succeeded, %d failed", res.Outcome, res.Attempted, res.Succeeded, res.Failed)})
	return res, nil
}

// execChunk runs one chunk in a transaction. Statements use a context
// detached from cancellation so a mid-chunk cancel cannot tear the
// transaction apart. The returned error is fatal for the run.
func (im *Importer) execChunk(ctx context.Context, compiled *mapping.Compiled, chunk []pendingRow, res *Result) error {
	detached := context.WithoutCancel(ctx)
	tx, err := im.db.Begin(detached)
	if err != nil {
		return fmt.Errorf("importer: begin transaction: %w", err)
	}
	if err := im.execAll(detached, tx, compiled, chunk); err != nil {
		_ = tx.Rollback()
		im.logger.Warn().Str("run_id", res.RunID).Err(err).Msg("chunk failed, isolating rows")
		return im.isolateRows(detached, compiled, chunk, res)
	}
	if err := tx.Commit(); err != nil {
		im.logger.Warn().Str("run_id", res.RunID).Err(err).Msg("chunk commit failed, isolating rows")
		return im.isolateRows(detached, compiled, chunk, res)
	}
	res.Attempted += int64(len(chunk))
	res.Succeeded += int64(len(chunk))
	return nil
}

func (im *Importer) execAll(ctx context.Context, tx contracts.Tx, compiled *mapping.Compiled, chunk []pendingRow) error {
	driver := im.db.Driver()
	table := compiled.Table().Name
	if compiled.Mode() == mapping.ModeUpdate {
		setCols, keyCol := compiled.SetColumns(), compiled.KeyColumn()
		for _, p := range chunk {
			query, args := sqladapter.UpdateStatement(driver, table, setCols, keyCol, p.row)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	}
	cols := compiled.Columns()
	if sqladapter.SupportsMultiRowInsert(driver) {
		rows := make([]utils.Record, len(chunk))
		for i, p := range chunk {
			rows[i] = p.row
		}
		query, args := sqladapter.InsertStatement(driver, table, cols, rows)
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}
	for _, p := range chunk {
		query, args := sqladapter.InsertStatement(driver, table, cols, []utils.Record{p.row})
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// isolateRows replays a rolled-back chunk row by row in autocommit, so the
// healthy rows land and only the offender is recorded. A statement error
// with an unreachable database aborts the run; everything committed before
// this chunk stays committed.
func (im *Importer) isolateRows(ctx context.Context, compiled *mapping.Compiled, chunk []pendingRow, res *Result) error {
	driver := im.db.Driver()
	table := compiled.Table().Name
	for _, p := range chunk {
		var (
			query string
			args  []any
		)
		if compiled.Mode() == mapping.ModeUpdate {
			query, args = sqladapter.UpdateStatement(driver, table, compiled.SetColumns(), compiled.KeyColumn(), p.row)
		} else {
			query, args = sqladapter.InsertStatement(driver, table, compiled.Columns(), []utils.Record{p.row})
		}
		if _, err := im.db.ExecContext(ctx, query, args...); err != nil {
			im.recordFailure(res, p.index, p.raw, err.Error())
			if pingErr := im.db.Ping(ctx); pingErr != nil {
				return fmt.Errorf("importer: database unreachable during row isolation: %w", pingErr)
			}
			continue
		}
		res.Attempted++
		res.Succeeded++
	}
	return nil
}

func (im *Importer) recordFailure(res *Result, index int64, raw utils.Record, reason string) {
	res.Attempted++
	res.Failed++
	res.Failures = append(res.Failures, RowFailure{Index: index, Row: utils.Snapshot(raw), Reason: reason})
	_ = im.events.Append(contracts.Event{RunID: res.RunID, RowIndex: index, Level: "ERROR", Message: reason})
}

func (im *Importer) report(res *Result) {
	im.progress.OnProgress(contracts.Progress{
		Attempted: res.Attempted,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Total:     im.total,
	})
}

func (im *Importer) fatal(res *Result, err error) error {
	im.logger.Error().Str("run_id", res.RunID).Err(err).Msg("import aborted")
	_ = im.events.Append(contracts.Event{RunID: res.RunID, RowIndex: -1, Level: "ERROR", Message: err.Error()})
	return err
}
