package models

import (
	"database/sql"
	"strconv"
)

// Cell is a single wide-table value. A cell starts as text and becomes
// numeric after coercion; a numeric cell with an invalid Number is null.
type Cell struct {
	Text    string
	Number  sql.NullFloat64
	Numeric bool
}

func TextCell(s string) Cell { return Cell{Text: s} }

func NumberCell(f float64) Cell {
	return Cell{Number: sql.NullFloat64{Float64: f, Valid: true}, Numeric: true}
}

func NullCell() Cell { return Cell{Numeric: true} }

// IsNull reports whether the cell is numeric but carries no value.
func (c Cell) IsNull() bool { return c.Numeric && !c.Number.Valid }

// String renders the cell the way it would appear in a CSV export.
// Numbers are printed without trailing zeros so that a coerced year
// stays "2011" when used as an identifier.
func (c Cell) String() string {
	if !c.Numeric {
		return c.Text
	}
	if !c.Number.Valid {
		return ""
	}
	return strconv.FormatFloat(c.Number.Float64, 'f', -1, 64)
}

// Row is one wide-table record.
type Row struct {
	Cells []Cell
}

// WideTable has one row per observation and one named column per field.
// Column names and count are fixed when the table is built.
type WideTable struct {
	Columns []string
	Rows    []Row
}

// ColumnIndex returns the position of the named column or -1.
func (t WideTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy, so stages can derive a new table without
// touching their input.
func (t WideTable) Clone() WideTable {
	out := WideTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = Row{Cells: append([]Cell(nil), r.Cells...)}
	}
	return out
}

// MetricKind tells whether an observation is an absolute count or a percentage.
type MetricKind string

const (
	KindTotal   MetricKind = "total"
	KindPercent MetricKind = "percent"
)

// Observation is one (identifiers, category) pair of a long table.
// Keys holds the identifier-column values; the first key is the period.
type Observation struct {
	Keys     []string
	Category string
	Kind     MetricKind
	Value    sql.NullFloat64
}

// Period returns the first identifier value, or "" when there is none.
func (o Observation) Period() string {
	if len(o.Keys) == 0 {
		return ""
	}
	return o.Keys[0]
}

// LongTable has one row per (identifier tuple, category).
type LongTable struct {
	Name         string
	KeyColumns   []string
	Observations []Observation
}

// Categories lists the distinct categories in order of first appearance.
func (t LongTable) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range t.Observations {
		if _, ok := seen[o.Category]; ok {
			continue
		}
		seen[o.Category] = struct{}{}
		out = append(out, o.Category)
	}
	return out
}
