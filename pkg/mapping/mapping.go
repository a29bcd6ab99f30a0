package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oarkflow/tabular/pkg/schema"
	"github.com/oarkflow/tabular/pkg/utils"
)

var (
	ErrUnknownTargetColumn    = errors.New("mapping: target column not in table")
	ErrUnknownSourceField     = errors.New("mapping: source field not in file header")
	ErrMissingKeyMapping      = errors.New("mapping: update mode requires a key mapping")
	ErrInvalidKeyColumn       = errors.New("mapping: invalid key column")
	ErrRequiredColumnUnmapped = errors.New("mapping: required column has no mapping")
	ErrDuplicateTarget        = errors.New("mapping: target column mapped twice")
)

// Mode selects how accepted rows reach the table.
type Mode string

const (
	ModeInsert Mode = "insert"
	ModeUpdate Mode = "update"
)

// RuleKind tags how one target column is populated.
type RuleKind string

const (
	// FromField copies (and coerces) a source field.
	FromField RuleKind = "field"
	// Constant writes the same literal into every row.
	Constant RuleKind = "constant"
	// Skip leaves the target column out of the run entirely.
	Skip RuleKind = "skip"
)

// Rule declares how one target column is populated. Rules are user input
// and validated as a set by Compile.
type Rule struct {
	Target       string
	Kind         RuleKind
	Source       string
	Const        any
	Key          bool
	Format       string
	DecimalComma bool
}

// Reason classifies why a row was rejected before reaching the database.
type Reason string

const (
	ReasonTypeCoercion Reason = "type_coercion"
	ReasonRequiredNull Reason = "required_null"
	ReasonMissingKey   Reason = "missing_key"
)

// Rejection describes one rejected row.
type Rejection struct {
	Reason Reason
	Column string
	Value  any
	Err    error
}

func (r *Rejection) String() string {
	switch r.Reason {
	case ReasonTypeCoercion:
		return fmt.Sprintf("column %s: cannot coerce %v: %v", r.Column, r.Value, r.Err)
	case ReasonRequiredNull:
		return fmt.Sprintf("column %s: null in non-nullable column without default", r.Column)
	case ReasonMissingKey:
		return fmt.Sprintf("column %s: null key, row cannot be matched", r.Column)
	}
	return string(r.Reason)
}

type binding struct {
	col  schema.Column
	rule Rule
}

// Compiled is a validated, read-only projection from source rows to
// bind-ready target rows. Safe to share for the duration of a run.
type Compiled struct {
	table    *schema.Table
	mode     Mode
	bindings []binding
	keyCol   string
}

// Compile validates rules against the live table descriptor and the file
// header, then freezes the projection. All validation failures surface here
// so that no run starts with a half-usable mapping.
func Compile(table *schema.Table, header []string, rules []Rule, mode Mode) (*Compiled, error) {
	if mode != ModeInsert && mode != ModeUpdate {
		return nil, fmt.Errorf("mapping: unknown mode %q", mode)
	}
	fields := make(map[string]bool, len(header))
	for _, h := range header {
		fields[strings.ToLower(h)] = true
	}

	seen := make(map[string]bool, len(rules))
	var bindings []binding
	keyCol := ""
	for _, rule := range rules {
		col, ok := table.Column(rule.Target)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTargetColumn, rule.Target)
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTarget, rule.Target)
		}
		seen[lower] = true

		if rule.Kind == Skip {
			continue
		}
		if rule.Kind == FromField && !fields[strings.ToLower(rule.Source)] {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownSourceField, rule.Source, rule.Target)
		}
		if rule.Key && mode == ModeUpdate {
			if !col.PrimaryKey {
				return nil, fmt.Errorf("%w: %s is not a primary key column", ErrInvalidKeyColumn, col.Name)
			}
			if keyCol != "" {
				return nil, fmt.Errorf("%w: more than one key (%s, %s)", ErrInvalidKeyColumn, keyCol, col.Name)
			}
			keyCol = col.Name
		}
		rule.Target = col.Name
		bindings = append(bindings, binding{col: *col, rule: rule})
	}

	if mode == ModeUpdate {
		if keyCol == "" {
			return nil, ErrMissingKeyMapping
		}
		if len(bindings) < 2 {
			return nil, fmt.Errorf("%w: key %s is the only mapped column, nothing to update", ErrInvalidKeyColumn, keyCol)
		}
	}
	if mode == ModeInsert {
		for _, col := range table.Columns {
			if col.Nullable || col.HasDefault {
				continue
			}
			if !seen[strings.ToLower(col.Name)] || isSkipped(rules, col.Name) {
				return nil, fmt.Errorf("%w: %s", ErrRequiredColumnUnmapped, col.Name)
			}
		}
	}

	sort.SliceStable(bindings, func(i, j int) bool {
		return bindings[i].col.Ordinal < bindings[j].col.Ordinal
	})
	return &Compiled{table: table, mode: mode, bindings: bindings, keyCol: keyCol}, nil
}

func isSkipped(rules []Rule, target string) bool {
	for _, r := range rules {
		if strings.EqualFold(r.Target, target) {
			return r.Kind == Skip
		}
	}
	return false
}

// Table returns the target table descriptor the mapping was compiled for.
func (c *Compiled) Table() *schema.Table { return c.table }

// Mode returns the compiled run mode.
func (c *Compiled) Mode() Mode { return c.mode }

// Columns returns the populated target column names in table ordinal order.
func (c *Compiled) Columns() []string {
	out := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		out[i] = b.col.Name
	}
	return out
}

// KeyColumn returns the update-mode key column, empty in insert mode.
func (c *Compiled) KeyColumn() string { return c.keyCol }

// SetColumns returns the columns written by an update, i.e. every mapped
// column except the key.
func (c *Compiled) SetColumns() []string {
	out := make([]string, 0, len(c.bindings))
	for _, b := range c.bindings {
		if b.col.Name == c.keyCol {
			continue
		}
		out = append(out, b.col.Name)
	}
	return out
}

// Apply projects one source row into a bind-ready target row. It is pure:
// the input record is never mutated and the same input always produces the
// same output. A non-nil Rejection means the row must be recorded as failed
// and skipped; only that row is affected.
func (c *Compiled) Apply(row utils.Record) (utils.Record, *Rejection) {
	out := make(utils.Record, len(c.bindings))
	for _, b := range c.bindings {
		var raw any
		switch b.rule.Kind {
		case Constant:
			raw = b.rule.Const
		default:
			raw = lookupField(row, b.rule.Source)
		}
		val, err := coerce(raw, b.col.Kind, b.rule)
		if err != nil {
			return nil, &Rejection{Reason: ReasonTypeCoercion, Column: b.col.Name, Value: raw, Err: err}
		}
		if val == nil {
			if c.mode == ModeUpdate && b.col.Name == c.keyCol {
				return nil, &Rejection{Reason: ReasonMissingKey, Column: b.col.Name}
			}
			if !b.col.Nullable && !b.col.HasDefault {
				return nil, &Rejection{Reason: ReasonRequiredNull, Column: b.col.Name}
			}
		}
		out[b.col.Name] = val
	}
	return out, nil
}

// lookupField fetches a source field, tolerating header case differences.
func lookupField(row utils.Record, field string) any {
	if v, ok := row[field]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, field) {
			return v
		}
	}
	return nil
}
