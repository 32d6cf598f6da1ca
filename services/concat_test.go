package services

import (
	"errors"
	"testing"

	"stopfrisk/models"
)

func boroughTables() (models.WideTable, models.WideTable) {
	race := wide([]string{"Borough", "White"},
		[]string{"Bronx", "200"},
		[]string{"Brooklyn", "800"},
		[]string{"Queens", "600"},
	)
	hispanic := wide([]string{"Borough", "Hispanic"},
		[]string{"Brooklyn", "500"},
		[]string{"Bronx", "700"},
		[]string{"Staten Island", "90"},
	)
	return race, hispanic
}

func rowText(r models.Row) []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		if c.IsNull() {
			out[i] = "<null>"
			continue
		}
		out[i] = c.String()
	}
	return out
}

func TestConcatColumnsInner(t *testing.T) {
	a, b := boroughTables()
	got, err := ConcatColumns(a, b, "Borough", JoinInner)
	if err != nil {
		t.Fatalf("ConcatColumns: %v", err)
	}

	wantCols := []string{"Borough", "White", "Hispanic"}
	if len(got.Columns) != len(wantCols) {
		t.Fatalf("columns: got %v, want %v", got.Columns, wantCols)
	}
	want := [][]string{
		{"Bronx", "200", "700"},
		{"Brooklyn", "800", "500"},
	}
	if len(got.Rows) != len(want) {
		t.Fatalf("rows: got %d, want %d", len(got.Rows), len(want))
	}
	for i, w := range want {
		g := rowText(got.Rows[i])
		for j := range w {
			if g[j] != w[j] {
				t.Errorf("row %d col %d: got %q, want %q", i, j, g[j], w[j])
			}
		}
	}
}

func TestConcatColumnsOuter(t *testing.T) {
	a, b := boroughTables()
	got, err := ConcatColumns(a, b, "Borough", JoinOuter)
	if err != nil {
		t.Fatalf("ConcatColumns: %v", err)
	}
	want := [][]string{
		{"Bronx", "200", "700"},
		{"Brooklyn", "800", "500"},
		{"Queens", "600", "<null>"},
		{"Staten Island", "<null>", "90"},
	}
	if len(got.Rows) != len(want) {
		t.Fatalf("rows: got %d, want %d", len(got.Rows), len(want))
	}
	for i, w := range want {
		g := rowText(got.Rows[i])
		for j := range w {
			if g[j] != w[j] {
				t.Errorf("row %d col %d: got %q, want %q", i, j, g[j], w[j])
			}
		}
	}
}

func TestConcatColumnsValidation(t *testing.T) {
	a, b := boroughTables()
	dupKey := wide([]string{"Borough", "Asian"}, []string{"Bronx", "1"}, []string{"Bronx", "2"})
	overlap := wide([]string{"Borough", "White"}, []string{"Bronx", "1"})

	tests := []struct {
		name string
		a, b models.WideTable
		key  string
	}{
		{"missing key", a, b, "County"},
		{"duplicate key", a, dupKey, "Borough"},
		{"overlapping column", a, overlap, "Borough"},
	}
	for _, tt := range tests {
		if _, err := ConcatColumns(tt.a, tt.b, tt.key, JoinInner); !errors.Is(err, models.ErrSchemaMismatch) {
			t.Errorf("%s: got %v, want ErrSchemaMismatch", tt.name, err)
		}
	}
}

func TestParseJoinMode(t *testing.T) {
	tests := []struct {
		in      string
		want    JoinMode
		wantErr bool
	}{
		{"", JoinInner, false},
		{"inner", JoinInner, false},
		{"outer", JoinOuter, false},
		{"left", "", true},
	}
	for _, tt := range tests {
		got, err := ParseJoinMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseJoinMode(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
