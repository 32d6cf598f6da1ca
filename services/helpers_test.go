package services

import (
	"database/sql"
	"math"

	"stopfrisk/models"
)

// wide builds a text-only table from literal rows.
func wide(columns []string, rows ...[]string) models.WideTable {
	t := models.WideTable{Columns: columns}
	for _, r := range rows {
		cells := make([]models.Cell, len(r))
		for i, v := range r {
			cells[i] = models.TextCell(v)
		}
		t.Rows = append(t.Rows, models.Row{Cells: cells})
	}
	return t
}

func num(f float64) sql.NullFloat64 { return sql.NullFloat64{Float64: f, Valid: true} }

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }
