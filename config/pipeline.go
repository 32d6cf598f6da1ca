package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_pipeline.yaml
var defaultPipeline []byte

// Pipeline declares everything the extraction and reconciliation stages do.
// Nothing about column layout is inferred from the data.
type Pipeline struct {
	Stops      StopsConfig      `yaml:"stops"`
	Population PopulationConfig `yaml:"population"`
	Crime      []CrimeConfig    `yaml:"crime"`
	Canonical  CanonicalConfig  `yaml:"canonical"`
	Shares     SharesConfig     `yaml:"shares"`
}

// StopsConfig describes the list extracted from the stops page.
type StopsConfig struct {
	Schema   []string   `yaml:"schema"`
	Coerce   []string   `yaml:"coerce"`
	Totals   MeltConfig `yaml:"totals"`
	Percents MeltConfig `yaml:"percents"`
}

// MeltConfig selects identifier and value columns for one reshape.
// Categories optionally relabels value columns; unlisted columns keep their name.
type MeltConfig struct {
	IDColumns    []string          `yaml:"id_columns"`
	ValueColumns []string          `yaml:"value_columns"`
	Categories   map[string]string `yaml:"categories,omitempty"`
}

// CSVConfig is how one tabular source is read.
type CSVConfig struct {
	SkipRows          int            `yaml:"skip_rows"`
	HeaderRow         bool           `yaml:"header_row"`
	Rename            map[int]string `yaml:"rename"`
	DropColumns       []int          `yaml:"drop_columns,omitempty"`
	DropTrailingEmpty bool           `yaml:"drop_trailing_empty"`
}

// PopulationConfig describes the demographic tables. When several sources
// are given they are concatenated column-wise on Key.
type PopulationConfig struct {
	Sources []CSVConfig `yaml:"sources"`
	Key     string      `yaml:"key"`
	Concat  string      `yaml:"concat"`
	Coerce  []string    `yaml:"coerce"`
	Melt    MeltConfig  `yaml:"melt"`
}

// CrimeConfig describes one wide crime-rate table.
type CrimeConfig struct {
	Name   string     `yaml:"name"`
	CSV    CSVConfig  `yaml:"csv"`
	Coerce []string   `yaml:"coerce"`
	Melt   MeltConfig `yaml:"melt"`
}

// CanonicalConfig maps differently spelled labels onto one join key.
type CanonicalConfig struct {
	FoldCase bool              `yaml:"fold_case"`
	Map      map[string]string `yaml:"map"`
}

// SharesConfig names the two compared columns.
type SharesConfig struct {
	LabelA string `yaml:"label_a"`
	LabelB string `yaml:"label_b"`
}

// DefaultPipeline returns the built-in configuration for the stops page and
// the census population tables.
func DefaultPipeline() (*Pipeline, error) {
	return ParsePipeline(defaultPipeline)
}

// LoadPipeline reads a YAML pipeline file. An empty path means the default.
func LoadPipeline(path string) (*Pipeline, error) {
	if path == "" {
		return DefaultPipeline()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read pipeline %q: %w", path, err)
	}
	return ParsePipeline(data)
}

// ParsePipeline decodes and validates a YAML pipeline document.
func ParsePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: decode pipeline: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate catches configuration mistakes that do not need any data to spot.
func (p *Pipeline) Validate() error {
	if len(p.Stops.Schema) == 0 {
		return fmt.Errorf("config: stops.schema is empty")
	}
	fields := make(map[string]struct{}, len(p.Stops.Schema))
	for _, f := range p.Stops.Schema {
		if f == "" {
			return fmt.Errorf("config: stops.schema has an empty field name")
		}
		if _, dup := fields[f]; dup {
			return fmt.Errorf("config: stops.schema field %q declared twice", f)
		}
		fields[f] = struct{}{}
	}

	check := func(where string, cols []string) error {
		for _, c := range cols {
			if _, ok := fields[c]; !ok {
				return fmt.Errorf("config: %s column %q is not in stops.schema", where, c)
			}
		}
		return nil
	}
	if err := check("stops.coerce", p.Stops.Coerce); err != nil {
		return err
	}
	for name, m := range map[string]MeltConfig{"stops.totals": p.Stops.Totals, "stops.percents": p.Stops.Percents} {
		if len(m.ValueColumns) == 0 {
			return fmt.Errorf("config: %s.value_columns is empty", name)
		}
		if err := check(name+".id_columns", m.IDColumns); err != nil {
			return err
		}
		if err := check(name+".value_columns", m.ValueColumns); err != nil {
			return err
		}
		if err := m.validate(name); err != nil {
			return err
		}
	}

	switch p.Population.Concat {
	case "", "inner", "outer":
	default:
		return fmt.Errorf("config: population.concat must be inner or outer, got %q", p.Population.Concat)
	}
	if len(p.Population.Sources) > 1 && p.Population.Key == "" {
		return fmt.Errorf("config: population.key is required with more than one source")
	}
	if len(p.Population.Melt.ValueColumns) == 0 {
		return fmt.Errorf("config: population.melt.value_columns is empty")
	}
	if err := p.Population.Melt.validate("population.melt"); err != nil {
		return err
	}

	for i, c := range p.Crime {
		if c.Name == "" {
			return fmt.Errorf("config: crime[%d].name is empty", i)
		}
		if len(c.Melt.ValueColumns) == 0 {
			return fmt.Errorf("config: crime %q melt.value_columns is empty", c.Name)
		}
		if err := c.Melt.validate(fmt.Sprintf("crime %q melt", c.Name)); err != nil {
			return err
		}
	}

	if p.Shares.LabelA == "" || p.Shares.LabelB == "" {
		return fmt.Errorf("config: shares.label_a and shares.label_b are required")
	}
	return nil
}

// validate rejects value columns that would melt to the same category.
func (m MeltConfig) validate(name string) error {
	columns := make(map[string]struct{}, len(m.ValueColumns))
	categories := make(map[string]string, len(m.ValueColumns))
	for _, c := range m.ValueColumns {
		if _, dup := columns[c]; dup {
			return fmt.Errorf("config: %s.value_columns lists %q twice", name, c)
		}
		columns[c] = struct{}{}

		category := c
		if label := m.Categories[c]; label != "" {
			category = label
		}
		if prev, dup := categories[category]; dup {
			return fmt.Errorf("config: %s columns %q and %q both map to category %q", name, prev, c, category)
		}
		categories[category] = c
	}
	return nil
}
