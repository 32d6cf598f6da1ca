package services

import (
	"fmt"

	"stopfrisk/models"
)

const stageConcat = "concat"

// JoinMode decides what happens to keys present in only one table.
type JoinMode string

const (
	// JoinInner drops rows whose key is missing from the other table.
	JoinInner JoinMode = "inner"
	// JoinOuter keeps them and pads the other table's columns with nulls.
	JoinOuter JoinMode = "outer"
)

// ParseJoinMode maps a config value to a JoinMode; empty means inner.
func ParseJoinMode(s string) (JoinMode, error) {
	switch JoinMode(s) {
	case "", JoinInner:
		return JoinInner, nil
	case JoinOuter:
		return JoinOuter, nil
	}
	return "", fmt.Errorf("%s: unknown join mode %q", stageConcat, s)
}

// ConcatColumns places the columns of b next to those of a, matching rows
// on the key column. Row order follows a, then (outer mode) the keys only
// b has, in b's order. The result's row count is computed from the keys.
//
// Both tables must have the key column, unique keys, and no other column
// name in common.
func ConcatColumns(a, b models.WideTable, key string, mode JoinMode) (models.WideTable, error) {
	ka, kb := a.ColumnIndex(key), b.ColumnIndex(key)
	if ka < 0 || kb < 0 {
		return models.WideTable{}, models.SchemaError(stageConcat, "key column %q missing (left %v, right %v)", key, a.Columns, b.Columns)
	}

	out := models.WideTable{Columns: append([]string(nil), a.Columns...)}
	var bCols []int
	for i, c := range b.Columns {
		if i == kb {
			continue
		}
		if a.ColumnIndex(c) >= 0 {
			return models.WideTable{}, models.SchemaError(stageConcat, "column %q present in both tables", c)
		}
		out.Columns = append(out.Columns, c)
		bCols = append(bCols, i)
	}

	aRows, err := indexByKey(a, ka)
	if err != nil {
		return models.WideTable{}, err
	}
	bRows, err := indexByKey(b, kb)
	if err != nil {
		return models.WideTable{}, err
	}

	width := len(out.Columns)
	for _, ra := range a.Rows {
		k := cellAt(ra, ka).String()
		rb, ok := bRows[k]
		if !ok && mode != JoinOuter {
			continue
		}
		cells := make([]models.Cell, 0, width)
		for i := range a.Columns {
			cells = append(cells, cellAt(ra, i))
		}
		for _, i := range bCols {
			if ok {
				cells = append(cells, cellAt(rb, i))
			} else {
				cells = append(cells, models.NullCell())
			}
		}
		out.Rows = append(out.Rows, models.Row{Cells: cells})
	}

	if mode == JoinOuter {
		for _, rb := range b.Rows {
			k := cellAt(rb, kb).String()
			if _, ok := aRows[k]; ok {
				continue
			}
			cells := make([]models.Cell, 0, width)
			for i := range a.Columns {
				if i == ka {
					cells = append(cells, cellAt(rb, kb))
				} else {
					cells = append(cells, models.NullCell())
				}
			}
			for _, i := range bCols {
				cells = append(cells, cellAt(rb, i))
			}
			out.Rows = append(out.Rows, models.Row{Cells: cells})
		}
	}
	return out, nil
}

func indexByKey(t models.WideTable, col int) (map[string]models.Row, error) {
	idx := make(map[string]models.Row, len(t.Rows))
	for _, r := range t.Rows {
		k := cellAt(r, col).String()
		if _, dup := idx[k]; dup {
			return nil, models.SchemaError(stageConcat, "duplicate key %q in column %q", k, t.Columns[col])
		}
		idx[k] = r
	}
	return idx, nil
}
