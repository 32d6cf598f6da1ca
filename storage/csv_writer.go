package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"stopfrisk/models"
)

// CSVWriter exports the tables of a report as one CSV file each under a
// directory: stops.csv, <long table name>.csv and shares.csv.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// WriteReport writes every table of r, truncating previous files.
func (c *CSVWriter) WriteReport(r *models.Report) error {
	if err := c.WriteWide("stops", r.Stops); err != nil {
		return err
	}
	longs := append([]models.LongTable{r.StopTotals, r.StopPercents, r.Population}, r.Crime...)
	for _, lt := range longs {
		if lt.Name == "" {
			continue
		}
		if err := c.WriteLong(lt); err != nil {
			return err
		}
	}
	return c.WriteShares(r)
}

// WriteWide writes a wide table with its column names as header.
func (c *CSVWriter) WriteWide(name string, t models.WideTable) error {
	return c.write(name, t.Columns, func(emit func([]string) error) error {
		for _, r := range t.Rows {
			rec := make([]string, len(t.Columns))
			for i := range rec {
				if i < len(r.Cells) {
					rec[i] = r.Cells[i].String()
				}
			}
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteLong writes a long table; null values are written as empty fields.
func (c *CSVWriter) WriteLong(t models.LongTable) error {
	header := append(append([]string(nil), t.KeyColumns...), "category", "kind", "value")
	return c.write(t.Name, header, func(emit func([]string) error) error {
		for _, o := range t.Observations {
			rec := append(append([]string(nil), o.Keys...), o.Category, string(o.Kind), formatNull(o))
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteShares writes the joined totals next to their shares.
func (c *CSVWriter) WriteShares(r *models.Report) error {
	header := []string{"category", r.LabelA, r.LabelB, r.LabelA + "_share", r.LabelB + "_share"}
	return c.write("shares", header, func(emit func([]string) error) error {
		for i, s := range r.Shares {
			var j models.JoinedRecord
			if i < len(r.Joined) {
				j = r.Joined[i]
			}
			if err := emit([]string{
				s.Category,
				strconv.FormatFloat(j.A, 'f', -1, 64),
				strconv.FormatFloat(j.B, 'f', -1, 64),
				strconv.FormatFloat(s.ShareA, 'f', -1, 64),
				strconv.FormatFloat(s.ShareB, 'f', -1, 64),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close is a no-op; every write opens and closes its own file.
func (c *CSVWriter) Close() error { return nil }

func (c *CSVWriter) write(name string, header []string, body func(emit func([]string) error) error) error {
	path := filepath.Join(c.dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := body(w.Write); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush %q: %w", path, err)
	}
	return f.Close()
}

func formatNull(o models.Observation) string {
	if !o.Value.Valid {
		return ""
	}
	return strconv.FormatFloat(o.Value.Float64, 'f', -1, 64)
}
