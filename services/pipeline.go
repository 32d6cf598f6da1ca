package services

import (
	"fmt"

	"stopfrisk/config"
	"stopfrisk/models"
	"stopfrisk/utils"
)

// Inputs is what the fetch collaborators hand to the pipeline.
type Inputs struct {
	PageLines  []string
	Population []models.WideTable
	// Crime is keyed by the crime table name from the pipeline config.
	Crime map[string]models.WideTable
}

// Pipeline chains the extraction, reshape and reconciliation stages. It
// holds only configuration; each Run works on its own values.
type Pipeline struct {
	cfg    *config.Pipeline
	canon  Canonicalizer
	concat JoinMode
	logger *utils.Logger
}

// NewPipeline validates cfg and prepares a Pipeline.
func NewPipeline(cfg *config.Pipeline, logger *utils.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseJoinMode(cfg.Population.Concat)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:    cfg,
		canon:  NewCanonicalizer(cfg.Canonical.Map, cfg.Canonical.FoldCase),
		concat: mode,
		logger: logger,
	}, nil
}

// Run executes every stage in order. Row-level problems end up in
// Report.Diagnostics; a configuration problem aborts the run.
func (p *Pipeline) Run(in Inputs) (*models.Report, error) {
	report := &models.Report{
		LabelA: p.cfg.Shares.LabelA,
		LabelB: p.cfg.Shares.LabelB,
	}

	stops, diags, err := p.ExtractStops(in.PageLines)
	if err != nil {
		return nil, err
	}
	report.Stops = stops
	report.Diagnostics = append(report.Diagnostics, diags...)

	report.StopTotals, err = Melt(stops, meltSpec("stop-totals", p.cfg.Stops.Totals, models.KindTotal))
	if err != nil {
		return nil, err
	}
	report.StopPercents, err = Melt(stops, meltSpec("stop-percents", p.cfg.Stops.Percents, models.KindPercent))
	if err != nil {
		return nil, err
	}

	population, diags, err := p.Population(in.Population)
	if err != nil {
		return nil, err
	}
	report.Population = population
	report.Diagnostics = append(report.Diagnostics, diags...)

	report.AggregatesA = Aggregate(report.Population, p.canon)
	report.AggregatesB = Aggregate(report.StopTotals, p.canon)

	joined, diags := Join(report.AggregatesA, report.AggregatesB, report.LabelA, report.LabelB)
	report.Joined = joined
	report.Diagnostics = append(report.Diagnostics, diags...)
	p.logger.Info("[pipeline] Joined %d categories (%d %s, %d %s)",
		len(joined), len(report.AggregatesA), report.LabelA, len(report.AggregatesB), report.LabelB)

	shares, diags := Proportions(joined)
	report.Shares = shares
	report.Diagnostics = append(report.Diagnostics, diags...)

	for _, cc := range p.cfg.Crime {
		table, ok := in.Crime[cc.Name]
		if !ok {
			p.logger.Warn("[pipeline] Crime table %q was not provided, skipping", cc.Name)
			continue
		}
		long, diags, err := p.Crime(cc, table)
		if err != nil {
			return nil, err
		}
		report.Crime = append(report.Crime, long)
		report.Diagnostics = append(report.Diagnostics, diags...)
	}

	for _, d := range report.Diagnostics {
		p.logger.Warn("[pipeline] %v", d)
	}
	return report, nil
}

// ExtractStops runs filter → extract → assemble → coerce over the page lines.
func (p *Pipeline) ExtractStops(lines []string) (models.WideTable, []models.Diagnostic, error) {
	fragments := FilterListItems(lines)
	sets := ExtractAll(fragments)

	wide, diags, err := Assemble(sets, models.Schema{Fields: p.cfg.Stops.Schema})
	if err != nil {
		return models.WideTable{}, nil, err
	}
	p.logger.Info("[pipeline] %d lines → %d list items → %d rows (%d malformed)",
		len(lines), len(fragments), len(wide.Rows), len(diags))

	coerced, parseDiags, err := CoerceByName(wide, p.cfg.Stops.Coerce)
	if err != nil {
		return models.WideTable{}, nil, err
	}
	return coerced, append(diags, parseDiags...), nil
}

// Population concatenates the demographic tables, coerces and melts them.
func (p *Pipeline) Population(tables []models.WideTable) (models.LongTable, []models.Diagnostic, error) {
	if len(tables) == 0 {
		return models.LongTable{}, nil, models.SchemaError("population", "no population tables provided")
	}

	wide := tables[0]
	for i, next := range tables[1:] {
		merged, err := ConcatColumns(wide, next, p.cfg.Population.Key, p.concat)
		if err != nil {
			return models.LongTable{}, nil, fmt.Errorf("population source %d: %w", i+1, err)
		}
		p.logger.Debug("[pipeline] Population concat %s: %d + %d rows → %d",
			p.concat, len(wide.Rows), len(next.Rows), len(merged.Rows))
		wide = merged
	}

	coerced, diags, err := CoerceByName(wide, p.cfg.Population.Coerce)
	if err != nil {
		return models.LongTable{}, nil, err
	}
	long, err := Melt(coerced, meltSpec("population", p.cfg.Population.Melt, models.KindTotal))
	if err != nil {
		return models.LongTable{}, nil, err
	}
	return long, diags, nil
}

// Crime coerces and melts one wide crime table.
func (p *Pipeline) Crime(cc config.CrimeConfig, table models.WideTable) (models.LongTable, []models.Diagnostic, error) {
	coerced, diags, err := CoerceByName(table, cc.Coerce)
	if err != nil {
		return models.LongTable{}, nil, fmt.Errorf("crime %q: %w", cc.Name, err)
	}
	long, err := Melt(coerced, meltSpec(cc.Name, cc.Melt, models.KindTotal))
	if err != nil {
		return models.LongTable{}, nil, fmt.Errorf("crime %q: %w", cc.Name, err)
	}
	return long, diags, nil
}

func meltSpec(name string, m config.MeltConfig, kind models.MetricKind) MeltSpec {
	return MeltSpec{
		Name:         name,
		IDColumns:    m.IDColumns,
		ValueColumns: m.ValueColumns,
		Kind:         kind,
		Categories:   m.Categories,
	}
}
