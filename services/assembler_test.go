package services

import (
	"errors"
	"testing"

	"stopfrisk/models"
)

func tokenSet(pos int, tokens ...string) models.TokenSet {
	return models.TokenSet{Fragment: models.RawFragment{Text: "fragment", Position: pos}, Tokens: tokens}
}

func TestAssembleRowsInDeclaredOrder(t *testing.T) {
	schema := models.Schema{Fields: []string{"year", "stops", "pct"}}
	sets := []models.TokenSet{
		tokenSet(3, "2011", "685,724", "88"),
		tokenSet(4, "2012", "532,911", "89"),
	}

	table, diags, err := Assemble(sets, schema)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(table.Rows))
	}
	for i, col := range schema.Fields {
		if table.Columns[i] != col {
			t.Errorf("column %d: got %q, want %q", i, table.Columns[i], col)
		}
	}
	if got := table.Rows[1].Cells[1].Text; got != "532,911" {
		t.Errorf("row 1 stops: got %q, want %q", got, "532,911")
	}
}

func TestAssembleRejectsMalformedRecords(t *testing.T) {
	schema := models.Schema{Fields: []string{"year", "stops", "pct"}}
	sets := []models.TokenSet{
		tokenSet(1, "2011", "685,724", "88"),
		tokenSet(2, "2012", "532,911"),
		tokenSet(3, "2013", "191,851", "88", "2"),
		tokenSet(4, "2014", "45,787", "82"),
	}

	table, diags, err := Assemble(sets, schema)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(table.Rows))
	}
	if got := table.Rows[1].Cells[0].Text; got != "2014" {
		t.Errorf("second kept row year: got %q, want 2014", got)
	}
	if len(diags) != 2 {
		t.Fatalf("diagnostics: got %d, want 2", len(diags))
	}
	for i, d := range diags {
		if !errors.Is(d, models.ErrMalformedRecord) {
			t.Errorf("diag %d: got kind %v, want MalformedRecord", i, d.Kind)
		}
	}
	if diags[0].Row != 1 || diags[1].Row != 2 {
		t.Errorf("diag rows: got %d,%d; want 1,2", diags[0].Row, diags[1].Row)
	}
}

func TestAssembleSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema models.Schema
	}{
		{"empty", models.Schema{}},
		{"duplicate", models.Schema{Fields: []string{"year", "year"}}},
	}
	for _, tt := range tests {
		_, _, err := Assemble(nil, tt.schema)
		if !errors.Is(err, models.ErrSchemaMismatch) {
			t.Errorf("%s: got %v, want ErrSchemaMismatch", tt.name, err)
		}
	}
}
