package importer

import (
	"github.com/oarkflow/log"

	"github.com/oarkflow/tabular/pkg/contracts"
)

const defaultChunkSize = 500

// Option configures an Importer.
type Option func(*Importer)

// WithChunkSize sets how many accepted rows share one transaction. Values
// below 1 keep the default.
func WithChunkSize(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.chunkSize = n
		}
	}
}

// WithProgress registers the sink receiving counter snapshots after every
// chunk.
func WithProgress(sink contracts.ProgressSink) Option {
	return func(im *Importer) {
		if sink != nil {
			im.progress = sink
		}
	}
}

// WithEventLog routes per-row failures and run events to a persisted log.
func WithEventLog(eventLog contracts.EventLog) Option {
	return func(im *Importer) {
		if eventLog != nil {
			im.events = eventLog
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// WithTruncate empties the target table before the first chunk. Insert
// mode only.
func WithTruncate() Option {
	return func(im *Importer) {
		im.truncate = true
	}
}

// WithTotal declares the source row count when the caller knows it, so
// progress snapshots can carry it. Unset means Total -1.
func WithTotal(total int64) Option {
	return func(im *Importer) {
		im.total = total
	}
}
