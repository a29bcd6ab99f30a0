package logs

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/oarkflow/tabular/pkg/contracts"
)

// FileLog is an append-only line log surviving across runs. Concurrent
// processes appending to the same file are serialized through a sibling
// .lock file.
type FileLog struct {
	file     *os.File
	writer   *bufio.Writer
	fileLock *flock.Flock
	mu       sync.Mutex
	now      func() time.Time
}

// NewFileLog opens path for appending, creating it when missing. Existing
// content is never rewritten.
func NewFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logs: open %s: %w", path, err)
	}
	return &FileLog{
		file:     f,
		writer:   bufio.NewWriter(f),
		fileLock: flock.New(path + ".lock"),
		now:      time.Now,
	}, nil
}

func (l *FileLog) Append(ev contracts.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fileLock.Lock(); err != nil {
		return fmt.Errorf("logs: lock: %w", err)
	}
	defer func() {
		_ = l.fileLock.Unlock()
	}()
	if _, err := fmt.Fprintln(l.writer, FormatEvent(l.now(), ev)); err != nil {
		return fmt.Errorf("logs: append: %w", err)
	}
	return l.writer.Flush()
}

func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// FormatEvent renders one log line. Row -1 marks run-level events.
func FormatEvent(ts time.Time, ev contracts.Event) string {
	if ev.RowIndex < 0 {
		return fmt.Sprintf("%s [%s] run=%s: %s",
			ts.Format(time.RFC3339), ev.Level, ev.RunID, ev.Message)
	}
	return fmt.Sprintf("%s [%s] run=%s row=%d: %s",
		ts.Format(time.RFC3339), ev.Level, ev.RunID, ev.RowIndex, ev.Message)
}

// Memory keeps events in process memory. It backs tests and callers that
// do not want a file on disk.
type Memory struct {
	mu     sync.Mutex
	events []contracts.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(ev contracts.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of everything appended so far.
func (m *Memory) Events() []contracts.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]contracts.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Nop drops every event.
type Nop struct{}

func (Nop) Append(contracts.Event) error { return nil }
func (Nop) Close() error                 { return nil }
