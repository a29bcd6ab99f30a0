package importer

import (
	"github.com/oarkflow/tabular/pkg/contracts"
)

// SinkFunc adapts a plain function to contracts.ProgressSink.
type SinkFunc func(contracts.Progress)

func (f SinkFunc) OnProgress(p contracts.Progress) { f(p) }

// NopSink discards progress updates.
type NopSink struct{}

func (NopSink) OnProgress(contracts.Progress) {}

// ChannelSink forwards progress snapshots over a buffered channel without
// ever blocking the run. When the consumer lags, intermediate snapshots
// are dropped; counters are monotonic so the next one supersedes them.
type ChannelSink struct {
	ch chan contracts.Progress
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan contracts.Progress, buffer)}
}

// C is the receive side for the consumer.
func (s *ChannelSink) C() <-chan contracts.Progress {
	return s.ch
}

func (s *ChannelSink) OnProgress(p contracts.Progress) {
	select {
	case s.ch <- p:
	default:
	}
}

// Close releases the channel once the run is over.
func (s *ChannelSink) Close() {
	close(s.ch)
}
