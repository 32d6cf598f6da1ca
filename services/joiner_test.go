package services

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stopfrisk/models"
)

func TestCanonicalizerKey(t *testing.T) {
	c := NewCanonicalizer(map[string]string{
		"Black or African American": "black",
		"black":                     "black",
		"latino":                    "hispanic",
	}, true)

	tests := []struct {
		label string
		want  string
	}{
		{"Black or African American", "black"},
		{"BLACK OR  AFRICAN AMERICAN", "black"},
		{"black", "black"},
		{"Latino", "hispanic"},
		{"  Asian ", "asian"},
		{"Two or More Races", "two or more races"},
	}
	for _, tt := range tests {
		if got := c.Key(tt.label); got != tt.want {
			t.Errorf("Key(%q) = %q; want %q", tt.label, got, tt.want)
		}
	}

	strict := NewCanonicalizer(map[string]string{"latino": "hispanic"}, false)
	if got := strict.Key("Latino"); got != "Latino" {
		t.Errorf("without folding Key(%q) = %q; want it unchanged", "Latino", got)
	}
}

func TestCanonicalizerFoldsMappedKeys(t *testing.T) {
	c := NewCanonicalizer(map[string]string{"Black or African American": "Black"}, true)
	if got, want := c.Key("Black or African American"), c.Key("black"); got != want {
		t.Errorf("mapped key %q and unmapped key %q should join", got, want)
	}
}

func TestAggregateCombinesCanonicalLabels(t *testing.T) {
	long := models.LongTable{Observations: []models.Observation{
		{Keys: []string{"Bronx"}, Category: "Black or African American", Value: num(1_500_000)},
		{Keys: []string{"Bronx"}, Category: "White", Value: num(1_000_000)},
		{Keys: []string{"Bronx"}, Category: "Two or More Races", Value: sql.NullFloat64{}},
		{Keys: []string{"Brooklyn"}, Category: "black", Value: num(500_000)},
		{Keys: []string{"Brooklyn"}, Category: "White", Value: num(1_700_000)},
		{Keys: []string{"Brooklyn"}, Category: "Two or More Races", Value: sql.NullFloat64{}},
	}}
	c := NewCanonicalizer(map[string]string{"Black or African American": "black"}, true)

	got := Aggregate(long, c)
	want := []models.CategoryAggregate{
		{Category: "black", Sum: 2_000_000},
		{Category: "white", Sum: 2_700_000},
		{Category: "two or more races", Sum: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinDropsOneSidedCategories(t *testing.T) {
	population := []models.CategoryAggregate{
		{Category: "black", Sum: 2_000_000},
		{Category: "hispanic", Sum: 1_800_000},
		{Category: "white", Sum: 2_700_000},
		{Category: "two or more races", Sum: 300_000},
	}
	stops := []models.CategoryAggregate{
		{Category: "black", Sum: 3_000},
		{Category: "hispanic", Sum: 1_200},
		{Category: "white", Sum: 900},
		{Category: "unknown", Sum: 40},
	}

	joined, diags := Join(population, stops, "population", "stops")
	want := []models.JoinedRecord{
		{Category: "black", A: 2_000_000, B: 3_000},
		{Category: "hispanic", A: 1_800_000, B: 1_200},
		{Category: "white", A: 2_700_000, B: 900},
	}
	if diff := cmp.Diff(want, joined); diff != "" {
		t.Errorf("Join mismatch (-want +got):\n%s", diff)
	}

	if len(diags) != 2 {
		t.Fatalf("diagnostics: got %d, want 2", len(diags))
	}
	for _, d := range diags {
		if !errors.Is(d, models.ErrJoinMismatch) {
			t.Errorf("diagnostic kind: got %v, want JoinMismatch", d.Kind)
		}
	}
	if diags[0].Subject != "two or more races" || diags[1].Subject != "unknown" {
		t.Errorf("dropped categories: got %q, %q", diags[0].Subject, diags[1].Subject)
	}
}
