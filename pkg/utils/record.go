package utils

import (
	"strings"

	"github.com/oarkflow/json"
)

// Record is a single row keyed by field name. Source rows are keyed by the
// file's header fields, mapped rows by target column names.
type Record map[string]any

// IsBlank reports whether every cell of the record is nil or an empty string.
func IsBlank(rec Record) bool {
	for _, v := range rec {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}

// Snapshot renders the record as a single-line JSON string for failure
// records and the run log. Marshal errors degrade to an empty object rather
// than failing the caller.
func Snapshot(rec Record) string {
	data, err := json.Marshal(rec)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Clone returns a shallow copy so callers can retain a snapshot of a row
// that is otherwise transient.
func Clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
