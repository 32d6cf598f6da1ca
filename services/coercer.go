package services

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"stopfrisk/models"
)

const stageCoerce = "coerce"

// ParseNumber strips thousands separators and other punctuation, then
// parses what is left. Examples:
//
//	"26,913"   → 26913
//	"$1,200.5" → 1200.5
//	"(88%)"    → 88
//	"N/A"      → false
func ParseNumber(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == '-':
			return r
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			return -1
		}
		return r
	}, raw)
	if !plainDecimal(cleaned) {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// plainDecimal accepts digits, dots and a leading minus only. ParseFloat
// alone would also take hex floats, exponents, NaN and Inf.
func plainDecimal(s string) bool {
	if s == "" || s == "-" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case r == '-' && i == 0:
		default:
			return false
		}
	}
	return true
}

// Coerce returns a copy of t with the given columns converted to numbers.
// A cell that does not parse becomes null and is reported as a ParseError;
// its row is kept. Cells that are already numeric are left alone, so
// coercing twice changes nothing.
func Coerce(t models.WideTable, columns []int) (models.WideTable, []models.Diagnostic, error) {
	for _, c := range columns {
		if c < 0 || c >= len(t.Columns) {
			return models.WideTable{}, nil, models.SchemaError(stageCoerce,
				"column index %d out of range for %d columns", c, len(t.Columns))
		}
	}

	out := t.Clone()
	var diags []models.Diagnostic

	for i, row := range out.Rows {
		for _, c := range columns {
			if c >= len(row.Cells) {
				continue
			}
			cell := row.Cells[c]
			if cell.Numeric {
				continue
			}
			if f, ok := ParseNumber(cell.Text); ok {
				row.Cells[c] = models.NumberCell(f)
				continue
			}
			row.Cells[c] = models.NullCell()
			diags = append(diags, models.Diagnostic{
				Kind:    models.ErrParse,
				Stage:   stageCoerce,
				Row:     i,
				Subject: cell.Text,
				Detail:  fmt.Sprintf("column %q is not numeric, set to null", t.Columns[c]),
			})
		}
	}
	return out, diags, nil
}

// CoerceByName resolves column names and calls Coerce.
func CoerceByName(t models.WideTable, names []string) (models.WideTable, []models.Diagnostic, error) {
	idx, err := columnIndexes(stageCoerce, t, names)
	if err != nil {
		return models.WideTable{}, nil, err
	}
	return Coerce(t, idx)
}

func columnIndexes(stage string, t models.WideTable, names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j := t.ColumnIndex(n)
		if j < 0 {
			return nil, models.SchemaError(stage, "column %q not found in %v", n, t.Columns)
		}
		idx[i] = j
	}
	return idx, nil
}
