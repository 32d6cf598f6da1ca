package models

import "errors"

// CategoryAggregate is the sum of one category's values over every period
// of a long table. Null values do not contribute.
type CategoryAggregate struct {
	Category string
	Sum      float64
}

// JoinedRecord pairs the aggregates of one category from two sources.
// It only exists for categories present in both.
type JoinedRecord struct {
	Category string
	A        float64
	B        float64
}

// ProportionRecord holds each source's share of its own column total.
type ProportionRecord struct {
	Category string
	ShareA   float64
	ShareB   float64
}

// Ratio returns ShareB/ShareA, or 0 when ShareA is zero.
func (p ProportionRecord) Ratio() float64 {
	if p.ShareA == 0 {
		return 0
	}
	return p.ShareB / p.ShareA
}

// Report is everything one pipeline run produces, handed to the
// presentation and export layers.
type Report struct {
	LabelA string
	LabelB string

	Stops        WideTable
	StopTotals   LongTable
	StopPercents LongTable
	Population   LongTable
	Crime        []LongTable

	AggregatesA []CategoryAggregate
	AggregatesB []CategoryAggregate
	Joined      []JoinedRecord
	Shares      []ProportionRecord

	Diagnostics []Diagnostic
}

// Warnings returns the diagnostics whose kind matches kind under errors.Is.
func (r *Report) Warnings(kind error) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if errors.Is(d, kind) {
			out = append(out, d)
		}
	}
	return out
}
