package services

import (
	"fmt"

	"stopfrisk/models"
)

const stageAssemble = "assemble"

// Assemble zips token sets into a wide table with the schema's columns.
// A set whose length differs from the schema is rejected with a
// MalformedRecord diagnostic instead of shifting values into the wrong
// columns. The only error is a schema that cannot name a table.
func Assemble(sets []models.TokenSet, schema models.Schema) (models.WideTable, []models.Diagnostic, error) {
	if schema.Len() == 0 {
		return models.WideTable{}, nil, models.SchemaError(stageAssemble, "schema declares no fields")
	}
	seen := make(map[string]struct{}, schema.Len())
	for _, f := range schema.Fields {
		if _, dup := seen[f]; dup {
			return models.WideTable{}, nil, models.SchemaError(stageAssemble, "field %q declared twice", f)
		}
		seen[f] = struct{}{}
	}

	table := models.WideTable{
		Columns: append([]string(nil), schema.Fields...),
		Rows:    make([]models.Row, 0, len(sets)),
	}
	var diags []models.Diagnostic

	for i, set := range sets {
		if set.Len() != schema.Len() {
			diags = append(diags, models.Diagnostic{
				Kind:    models.ErrMalformedRecord,
				Stage:   stageAssemble,
				Row:     i,
				Subject: set.Fragment.Text,
				Detail: fmt.Sprintf("line %d yielded %d tokens, schema expects %d",
					set.Fragment.Position, set.Len(), schema.Len()),
			})
			continue
		}
		cells := make([]models.Cell, len(set.Tokens))
		for j, tok := range set.Tokens {
			cells[j] = models.TextCell(tok)
		}
		table.Rows = append(table.Rows, models.Row{Cells: cells})
	}

	return table, diags, nil
}
