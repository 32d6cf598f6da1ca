package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"stopfrisk/models"
)

// CSVOptions describes how a tabular source is laid out.
type CSVOptions struct {
	// SkipRows physical lines are discarded before parsing (titles, notes).
	SkipRows int
	// HeaderRow takes column names from the first record after SkipRows.
	HeaderRow bool
	// Rename names columns by position and wins over the header row.
	// Columns with no name at all are called col<N>.
	Rename map[int]string
	// DropColumns removes columns by position; negative positions count
	// from the end, so -1 is the last column.
	DropColumns []int
	// DropTrailingEmpty removes the last column when every cell in it,
	// header included, is blank. Exports with a trailing comma produce one.
	DropTrailingEmpty bool
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, opts CSVOptions) (models.WideTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.WideTable{}, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f, opts)
	if err != nil {
		return models.WideTable{}, fmt.Errorf("csv: %q: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a CSV stream into a text-only wide table. Ragged rows are
// padded with empty cells to the widest row.
func ReadCSV(r io.Reader, opts CSVOptions) (models.WideTable, error) {
	br := bufio.NewReader(r)
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return models.WideTable{}, nil
			}
			return models.WideTable{}, fmt.Errorf("csv: skip row %d: %w", i+1, err)
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return models.WideTable{}, fmt.Errorf("csv: parse: %w", err)
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	var header []string
	if opts.HeaderRow && len(records) > 0 {
		header, records = records[0], records[1:]
	}

	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for i := range opts.Rename {
		if i >= width {
			width = i + 1
		}
	}

	columns := make([]string, width)
	for i := range columns {
		switch {
		case opts.Rename[i] != "":
			columns[i] = opts.Rename[i]
		case i < len(header) && strings.TrimSpace(header[i]) != "":
			columns[i] = strings.TrimSpace(header[i])
		default:
			columns[i] = "col" + strconv.Itoa(i)
		}
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, width)
		for j := range row {
			if j < len(rec) {
				row[j] = strings.TrimSpace(rec[j])
			}
		}
		rows[i] = row
	}

	drop := dropSet(width, opts.DropColumns)
	if opts.DropTrailingEmpty && width > 0 && trailingEmpty(header, rows, width-1) {
		drop[width-1] = struct{}{}
	}

	return buildTable(columns, rows, drop), nil
}

func dropSet(width int, cols []int) map[int]struct{} {
	drop := make(map[int]struct{}, len(cols)+1)
	for _, c := range cols {
		if c < 0 {
			c += width
		}
		if c >= 0 && c < width {
			drop[c] = struct{}{}
		}
	}
	return drop
}

func trailingEmpty(header []string, rows [][]string, col int) bool {
	if col < len(header) && strings.TrimSpace(header[col]) != "" {
		return false
	}
	for _, r := range rows {
		if r[col] != "" {
			return false
		}
	}
	return true
}

func buildTable(columns []string, rows [][]string, drop map[int]struct{}) models.WideTable {
	keep := make([]int, 0, len(columns))
	for i := range columns {
		if _, ok := drop[i]; !ok {
			keep = append(keep, i)
		}
	}
	sort.Ints(keep)

	t := models.WideTable{Columns: make([]string, len(keep)), Rows: make([]models.Row, len(rows))}
	for k, i := range keep {
		t.Columns[k] = columns[i]
	}
	for r, row := range rows {
		cells := make([]models.Cell, len(keep))
		for k, i := range keep {
			cells[k] = models.TextCell(row[i])
		}
		t.Rows[r] = models.Row{Cells: cells}
	}
	return t
}
