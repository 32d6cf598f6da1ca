package services

import (
	"database/sql"

	"stopfrisk/models"
)

const stageMelt = "melt"

// MeltSpec declares one wide→long reshape.
type MeltSpec struct {
	Name         string
	IDColumns    []string
	ValueColumns []string
	Kind         models.MetricKind
	// Categories relabels value columns. A column missing from the map
	// keeps its own name as the category.
	Categories map[string]string
}

// Melt turns every (row, value column) pair of t into one observation,
// row by row. The output always has len(t.Rows)*len(spec.ValueColumns)
// observations: a null or text cell becomes a null value, never a
// missing row.
func Melt(t models.WideTable, spec MeltSpec) (models.LongTable, error) {
	if len(spec.ValueColumns) == 0 {
		return models.LongTable{}, models.SchemaError(stageMelt, "%s: no value columns declared", spec.Name)
	}
	ids, err := columnIndexes(stageMelt, t, spec.IDColumns)
	if err != nil {
		return models.LongTable{}, err
	}
	vals, err := columnIndexes(stageMelt, t, spec.ValueColumns)
	if err != nil {
		return models.LongTable{}, err
	}
	categories, err := meltCategories(spec)
	if err != nil {
		return models.LongTable{}, err
	}
	kind := spec.Kind
	if kind == "" {
		kind = models.KindTotal
	}

	out := models.LongTable{
		Name:         spec.Name,
		KeyColumns:   append([]string(nil), spec.IDColumns...),
		Observations: make([]models.Observation, 0, len(t.Rows)*len(vals)),
	}

	for _, row := range t.Rows {
		keys := make([]string, len(ids))
		for k, c := range ids {
			keys[k] = cellAt(row, c).String()
		}
		for v, c := range vals {
			out.Observations = append(out.Observations, models.Observation{
				Keys:     append([]string(nil), keys...),
				Category: categories[v],
				Kind:     kind,
				Value:    cellValue(cellAt(row, c)),
			})
		}
	}
	return out, nil
}

// meltCategories resolves the category of each value column. A column
// listed twice, or two columns relabelled to one category, would emit the
// same (row, category) pair twice.
func meltCategories(spec MeltSpec) ([]string, error) {
	out := make([]string, len(spec.ValueColumns))
	seen := make(map[string]string, len(spec.ValueColumns))
	cols := make(map[string]struct{}, len(spec.ValueColumns))
	for i, name := range spec.ValueColumns {
		if _, dup := cols[name]; dup {
			return nil, models.SchemaError(stageMelt, "%s: value column %q listed twice", spec.Name, name)
		}
		cols[name] = struct{}{}

		category := name
		if label, ok := spec.Categories[name]; ok && label != "" {
			category = label
		}
		if prev, dup := seen[category]; dup {
			return nil, models.SchemaError(stageMelt, "%s: columns %q and %q both melt to category %q",
				spec.Name, prev, name, category)
		}
		seen[category] = name
		out[i] = category
	}
	return out, nil
}

// cellAt tolerates short rows from ragged sources.
func cellAt(r models.Row, i int) models.Cell {
	if i < len(r.Cells) {
		return r.Cells[i]
	}
	return models.NullCell()
}

func cellValue(c models.Cell) sql.NullFloat64 {
	if !c.Numeric {
		return sql.NullFloat64{}
	}
	return c.Number
}
