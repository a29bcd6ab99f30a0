package mapping

import (
	"testing"
	"time"

	"github.com/oarkflow/tabular/pkg/schema"
)

func TestCoerceInteger(t *testing.T) {
	cases := []struct {
		in   any
		rule Rule
		want int64
		fail bool
	}{
		{in: "42", want: 42},
		{in: " 42 ", want: 42},
		{in: "1,000", want: 1000},
		{in: "1.000", rule: Rule{DecimalComma: true}, want: 1000},
		{in: 7, want: 7},
		{in: float64(12), want: 12},
		{in: "12.0", want: 12},
		{in: float64(12.5), fail: true},
		{in: "abc", fail: true},
		{in: true, fail: true},
	}
	for _, tc := range cases {
		got, err := coerce(tc.in, schema.Integer, tc.rule)
		if tc.fail {
			if err == nil {
				t.Fatalf("coerce(%v) expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("coerce(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("coerce(%v) = %v, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCoerceDecimal(t *testing.T) {
	cases := []struct {
		in   any
		rule Rule
		want float64
		fail bool
	}{
		{in: "3.14", want: 3.14},
		{in: "1,234.56", want: 1234.56},
		{in: "1.234,56", rule: Rule{DecimalComma: true}, want: 1234.56},
		{in: "3,14", rule: Rule{DecimalComma: true}, want: 3.14},
		{in: 2.5, want: 2.5},
		{in: "nope", fail: true},
	}
	for _, tc := range cases {
		got, err := coerce(tc.in, schema.Decimal, tc.rule)
		if tc.fail {
			if err == nil {
				t.Fatalf("coerce(%v) expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("coerce(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("coerce(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCoerceDate(t *testing.T) {
	got, err := coerce("13/02/2024", schema.Date, Rule{Format: "DD/MM/YYYY"})
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	ts := got.(time.Time)
	if ts.Year() != 2024 || ts.Month() != time.February || ts.Day() != 13 {
		t.Fatalf("coerce = %v", ts)
	}

	if _, err := coerce("31/31/2024", schema.Date, Rule{Format: "DD/MM/YYYY"}); err == nil {
		t.Fatalf("expected layout mismatch error")
	}

	got, err = coerce("2024-02-13", schema.Date, Rule{})
	if err != nil {
		t.Fatalf("fallback parse: %v", err)
	}
	if ts := got.(time.Time); ts.Day() != 13 {
		t.Fatalf("fallback parse = %v", ts)
	}
}

func TestCoerceNullsAndEmpties(t *testing.T) {
	for _, kind := range []schema.Kind{schema.Text, schema.Integer, schema.Decimal, schema.Date, schema.Boolean, schema.Binary} {
		if got, err := coerce(nil, kind, Rule{}); err != nil || got != nil {
			t.Fatalf("coerce(nil, %s) = %v, %v", kind, got, err)
		}
		if got, err := coerce("  ", kind, Rule{}); err != nil || got != nil {
			t.Fatalf("coerce(blank, %s) = %v, %v", kind, got, err)
		}
	}
}

func TestTranslateLayout(t *testing.T) {
	cases := map[string]string{
		"DD/MM/YYYY":          "02/01/2006",
		"YYYY-MM-DD":          "2006-01-02",
		"MM-DD-YY":            "01-02-06",
		"YYYY-MM-DD HH:MI:SS": "2006-01-02 15:04:05",
	}
	for in, want := range cases {
		if got := TranslateLayout(in); got != want {
			t.Fatalf("TranslateLayout(%q) = %q, want %q", in, got, want)
		}
	}
}
