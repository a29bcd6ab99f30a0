package mapping

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oarkflow/convert"
	"github.com/oarkflow/date"

	"github.com/oarkflow/tabular/pkg/schema"
)

// coerce normalizes one raw cell into a bind-ready value for the column
// kind. nil stays nil; empty strings collapse to nil. Failures reject only
// the row they belong to.
func coerce(v any, kind schema.Kind, rule Rule) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	switch kind {
	case schema.Text:
		s, ok := convert.ToString(v)
		if !ok {
			return nil, fmt.Errorf("not representable as text: %T", v)
		}
		return s, nil
	case schema.Integer:
		return coerceInteger(v, rule)
	case schema.Decimal:
		return coerceDecimal(v, rule)
	case schema.Boolean:
		b, ok := convert.ToBool(v)
		if !ok {
			return nil, fmt.Errorf("not a boolean: %v", v)
		}
		return b, nil
	case schema.Date:
		return coerceDate(v, rule)
	case schema.Binary:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
		return nil, fmt.Errorf("not binary: %T", v)
	}
	return v, nil
}

func coerceInteger(v any, rule Rule) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return nil, fmt.Errorf("fractional value %v in integer column", n)
		}
		return int64(n), nil
	case string:
		s := stripGrouping(n, rule.DecimalComma)
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr == nil && f == float64(int64(f)) {
			return int64(f), nil
		}
		return nil, fmt.Errorf("not an integer: %q", n)
	}
	return nil, fmt.Errorf("not an integer: %T", v)
}

func coerceDecimal(v any, rule Rule) (any, error) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(normalizeDecimal(s, rule.DecimalComma), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		return f, nil
	}
	f, ok := convert.ToFloat64(v)
	if !ok {
		return nil, fmt.Errorf("not a number: %v", v)
	}
	return f, nil
}

func coerceDate(v any, rule Rule) (any, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		s := strings.TrimSpace(d)
		if rule.Format != "" {
			t, err := time.Parse(TranslateLayout(rule.Format), s)
			if err != nil {
				return nil, fmt.Errorf("date %q does not match layout %s", s, rule.Format)
			}
			return t, nil
		}
		t, err := date.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("unparseable date: %q", s)
		}
		return t, nil
	}
	return nil, fmt.Errorf("not a date: %T", v)
}

// stripGrouping removes thousands separators from an integer literal. With
// a comma-decimal locale the dot groups thousands, otherwise the comma does.
func stripGrouping(s string, decimalComma bool) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if decimalComma {
		return strings.ReplaceAll(s, ".", "")
	}
	return strings.ReplaceAll(s, ",", "")
}

// normalizeDecimal rewrites a locale-formatted decimal literal into the
// form strconv understands: "1.234,56" -> "1234.56" under comma-decimal,
// "1,234.56" -> "1234.56" otherwise.
func normalizeDecimal(s string, decimalComma bool) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}
	return strings.ReplaceAll(s, ",", "")
}

var layoutReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"MI", "04",
	"SS", "05",
)

// TranslateLayout converts a DD/MM/YYYY-style declaration into a Go time
// layout. Unknown characters pass through, so separators are preserved.
func TranslateLayout(format string) string {
	return layoutReplacer.Replace(format)
}
