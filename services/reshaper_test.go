package services

import (
	"errors"
	"testing"

	"stopfrisk/models"
)

func TestMeltRowCountLaw(t *testing.T) {
	in := wide([]string{"year", "black", "latino", "white"},
		[]string{"2011", "1", "2", "3"},
		[]string{"2012", "4", "5", "6"},
		[]string{"2013", "7", "8", "9"},
	)
	coerced, _, err := CoerceByName(in, in.Columns)
	if err != nil {
		t.Fatalf("CoerceByName: %v", err)
	}

	values := []string{"black", "white"}
	long, err := Melt(coerced, MeltSpec{Name: "stops", IDColumns: []string{"year"}, ValueColumns: values})
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}

	if want := len(in.Rows) * len(values); len(long.Observations) != want {
		t.Fatalf("observations: got %d, want %d", len(long.Observations), want)
	}

	seen := make(map[[2]string]int)
	for _, o := range long.Observations {
		seen[[2]string{o.Period(), o.Category}]++
		if o.Kind != models.KindTotal {
			t.Errorf("default kind: got %q, want total", o.Kind)
		}
	}
	for _, year := range []string{"2011", "2012", "2013"} {
		for _, cat := range values {
			if n := seen[[2]string{year, cat}]; n != 1 {
				t.Errorf("pair (%s, %s) appears %d times, want 1", year, cat, n)
			}
		}
	}

	if got := long.Observations[3]; got.Period() != "2012" || got.Category != "white" || got.Value != num(6) {
		t.Errorf("observation 3: got %+v, want 2012/white/6", got)
	}
}

func TestMeltPropagatesNulls(t *testing.T) {
	in := wide([]string{"year", "black", "white"},
		[]string{"2011", "N/A", "10"},
		[]string{"2012", "5", "unknown"},
	)
	coerced, diags, err := CoerceByName(in, []string{"year", "black"})
	if err != nil {
		t.Fatalf("CoerceByName: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("parse diagnostics: got %d, want 1", len(diags))
	}

	// "white" is left as text on purpose: uncoerced cells are null too.
	long, err := Melt(coerced, MeltSpec{IDColumns: []string{"year"}, ValueColumns: []string{"black", "white"}})
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}
	if len(long.Observations) != 4 {
		t.Fatalf("observations: got %d, want 4", len(long.Observations))
	}
	if long.Observations[0].Value.Valid {
		t.Errorf("2011/black should be null, got %+v", long.Observations[0].Value)
	}
	if long.Observations[2].Value != num(5) {
		t.Errorf("2012/black: got %+v, want 5", long.Observations[2].Value)
	}
	for _, i := range []int{1, 3} {
		if long.Observations[i].Value.Valid {
			t.Errorf("text cell %d should melt to null, got %+v", i, long.Observations[i].Value)
		}
	}
}

func TestMeltRelabelsCategories(t *testing.T) {
	in := wide([]string{"year", "black_pct", "white_pct"}, []string{"2011", "53", "9"})
	long, err := Melt(in, MeltSpec{
		IDColumns:    []string{"year"},
		ValueColumns: []string{"black_pct", "white_pct"},
		Kind:         models.KindPercent,
		Categories:   map[string]string{"black_pct": "black"},
	})
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}
	cats := long.Categories()
	if len(cats) != 2 || cats[0] != "black" || cats[1] != "white_pct" {
		t.Errorf("categories: got %v, want [black white_pct]", cats)
	}
	if long.Observations[0].Kind != models.KindPercent {
		t.Errorf("kind: got %q, want percent", long.Observations[0].Kind)
	}
}

func TestMeltSchemaErrors(t *testing.T) {
	in := wide([]string{"year", "black"}, []string{"2011", "1"})
	tests := []struct {
		name string
		spec MeltSpec
	}{
		{"missing id", MeltSpec{IDColumns: []string{"period"}, ValueColumns: []string{"black"}}},
		{"missing value", MeltSpec{IDColumns: []string{"year"}, ValueColumns: []string{"asian"}}},
		{"no values", MeltSpec{IDColumns: []string{"year"}}},
		{"repeated value column", MeltSpec{IDColumns: []string{"year"}, ValueColumns: []string{"black", "black"}}},
	}
	for _, tt := range tests {
		if _, err := Melt(in, tt.spec); !errors.Is(err, models.ErrSchemaMismatch) {
			t.Errorf("%s: got %v, want ErrSchemaMismatch", tt.name, err)
		}
	}
}

func TestMeltRejectsCategoryCollision(t *testing.T) {
	in := wide([]string{"year", "black", "black_pct"}, []string{"2011", "350743", "53"})
	_, err := Melt(in, MeltSpec{
		IDColumns:    []string{"year"},
		ValueColumns: []string{"black", "black_pct"},
		Categories:   map[string]string{"black_pct": "black"},
	})
	if !errors.Is(err, models.ErrSchemaMismatch) {
		t.Errorf("got %v, want ErrSchemaMismatch", err)
	}
}

func TestMeltObservationsOwnTheirKeys(t *testing.T) {
	in := wide([]string{"year", "black", "white"}, []string{"2011", "1", "2"})
	long, err := Melt(in, MeltSpec{IDColumns: []string{"year"}, ValueColumns: []string{"black", "white"}})
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}
	long.Observations[0].Keys[0] = "changed"
	if got := long.Observations[1].Keys[0]; got != "2011" {
		t.Errorf("second observation key: got %q, want 2011", got)
	}
}
