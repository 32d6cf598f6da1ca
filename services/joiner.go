package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"stopfrisk/models"
)

const stageJoin = "join"

// Canonicalizer turns category labels from different sources into join keys.
// A label is looked up in the mapping as written, then (with FoldCase) by its
// folded form; a label with no mapping is used as is, folded if FoldCase is set.
// With FoldCase the mapped keys are folded too, so they meet unmapped labels.
type Canonicalizer struct {
	exact    map[string]string
	folded   map[string]string
	foldCase bool
}

// NewCanonicalizer builds a Canonicalizer from a label→key mapping.
func NewCanonicalizer(mapping map[string]string, foldCase bool) Canonicalizer {
	c := Canonicalizer{
		exact:    make(map[string]string, len(mapping)),
		folded:   make(map[string]string, len(mapping)),
		foldCase: foldCase,
	}
	for label, key := range mapping {
		key = squash(key)
		if foldCase {
			key = fold(key)
			c.folded[fold(label)] = key
		}
		c.exact[squash(label)] = key
	}
	return c
}

// Key returns the join key for label.
func (c Canonicalizer) Key(label string) string {
	s := squash(label)
	if k, ok := c.exact[s]; ok {
		return k
	}
	if !c.foldCase {
		return s
	}
	f := fold(s)
	if k, ok := c.folded[f]; ok {
		return k
	}
	return f
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(squash(s)))
}

// Aggregate sums each canonical category of t over all periods. Null values
// are skipped, so a category whose values are all null sums to 0. Labels
// that share a key are combined into one aggregate. Output follows the
// first appearance of each key.
func Aggregate(t models.LongTable, c Canonicalizer) []models.CategoryAggregate {
	pos := make(map[string]int)
	var out []models.CategoryAggregate
	for _, o := range t.Observations {
		key := c.Key(o.Category)
		i, ok := pos[key]
		if !ok {
			i = len(out)
			pos[key] = i
			out = append(out, models.CategoryAggregate{Category: key})
		}
		if o.Value.Valid {
			out[i].Sum += o.Value.Float64
		}
	}
	return out
}

// Join inner-joins two aggregate lists on category, in the order of a.
//
// Categories found on only one side are dropped and reported as
// JoinMismatch diagnostics. This narrows the comparison to the categories
// both sources know about, and the shares computed afterwards are shares
// of that intersection, not of either source's full total.
func Join(a, b []models.CategoryAggregate, labelA, labelB string) ([]models.JoinedRecord, []models.Diagnostic) {
	inB := make(map[string]float64, len(b))
	for _, agg := range b {
		inB[agg.Category] = agg.Sum
	}
	inA := make(map[string]struct{}, len(a))

	var out []models.JoinedRecord
	var diags []models.Diagnostic
	for _, agg := range a {
		inA[agg.Category] = struct{}{}
		sum, ok := inB[agg.Category]
		if !ok {
			diags = append(diags, mismatch(agg.Category, labelA, labelB))
			continue
		}
		out = append(out, models.JoinedRecord{Category: agg.Category, A: agg.Sum, B: sum})
	}
	for _, agg := range b {
		if _, ok := inA[agg.Category]; !ok {
			diags = append(diags, mismatch(agg.Category, labelB, labelA))
		}
	}
	return out, diags
}

func mismatch(category, present, absent string) models.Diagnostic {
	return models.Diagnostic{
		Kind:    models.ErrJoinMismatch,
		Stage:   stageJoin,
		Row:     -1,
		Subject: category,
		Detail:  fmt.Sprintf("only in %s, missing from %s; dropped", present, absent),
	}
}
