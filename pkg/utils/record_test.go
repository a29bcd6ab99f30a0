package utils

import (
	"strings"
	"testing"
)

func TestIsBlank(t *testing.T) {
	cases := []struct {
		rec  Record
		want bool
	}{
		{Record{}, true},
		{Record{"a": nil, "b": nil}, true},
		{Record{"a": "", "b": "  "}, true},
		{Record{"a": nil, "b": "x"}, false},
		{Record{"a": 0}, false},
	}
	for _, tc := range cases {
		if got := IsBlank(tc.rec); got != tc.want {
			t.Fatalf("IsBlank(%v) = %v, want %v", tc.rec, got, tc.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(Record{"id": 1, "name": "a"})
	if !strings.Contains(s, `"id"`) || !strings.Contains(s, `"name"`) {
		t.Fatalf("unexpected snapshot: %s", s)
	}
}

func TestClone(t *testing.T) {
	orig := Record{"a": 1}
	cp := Clone(orig)
	cp["a"] = 2
	if orig["a"] != 1 {
		t.Fatalf("clone mutated original: %v", orig)
	}
}
