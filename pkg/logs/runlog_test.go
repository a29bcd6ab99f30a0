package logs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oarkflow/tabular/pkg/contracts"
)

func TestFileLogAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	l, err := NewFileLog(path)
	if err != nil {
		t.Fatalf("NewFileLog: %v", err)
	}
	if err := l.Append(contracts.Event{RunID: "r1", RowIndex: 4, Level: "ERROR", Message: "bad value"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l, err = NewFileLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := l.Append(contracts.Event{RunID: "r2", RowIndex: -1, Level: "INFO", Message: "run finished"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}
	if !strings.Contains(lines[0], "run=r1 row=4: bad value") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "run=r2: run finished") {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2024, 2, 13, 10, 0, 0, 0, time.UTC)
	got := FormatEvent(ts, contracts.Event{RunID: "abc", RowIndex: 12, Level: "ERROR", Message: "boom"})
	want := "2024-02-13T10:00:00Z [ERROR] run=abc row=12: boom"
	if got != want {
		t.Fatalf("FormatEvent = %q, want %q", got, want)
	}
}

func TestMemoryLog(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 3; i++ {
		if err := m.Append(contracts.Event{RowIndex: int64(i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	events := m.Events()
	if len(events) != 3 || events[2].RowIndex != 2 {
		t.Fatalf("unexpected events: %v", events)
	}
	events[0].RowIndex = 99
	if m.Events()[0].RowIndex == 99 {
		t.Fatalf("Events must return a copy")
	}
}
