package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"stopfrisk/models"
)

// Printer renders a Report as terminal tables.
type Printer struct {
	Style table.Style
}

// NewPrinter returns a Printer using the light box style.
func NewPrinter() *Printer {
	return &Printer{Style: table.StyleLight}
}

// Print writes every section of r to w.
func (p *Printer) Print(w io.Writer, r *models.Report) {
	sep := strings.Repeat("═", 60)

	fmt.Fprintf(w, "\n%s\n  STOP-AND-FRISK DISPARITY REPORT\n%s\n\n", sep, sep)

	p.printStops(w, r.Stops)
	p.printShares(w, r)
	p.printCrime(w, r.Crime)
	p.printDiagnostics(w, r.Diagnostics)

	fmt.Fprintf(w, "%s\n\n", sep)
}

func (p *Printer) newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(p.Style)
	t.SetTitle(title)
	return t
}

func (p *Printer) printStops(w io.Writer, stops models.WideTable) {
	if len(stops.Rows) == 0 {
		fmt.Fprintln(w, "  No stop records extracted")
		fmt.Fprintln(w)
		return
	}

	t := p.newTable(w, "Stops by year")
	header := make(table.Row, len(stops.Columns))
	for i, c := range stops.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range stops.Rows {
		row := make(table.Row, len(stops.Columns))
		for i := range stops.Columns {
			row[i] = formatCell(cellAt(r, i), i == 0)
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintln(w)
}

func (p *Printer) printShares(w io.Writer, r *models.Report) {
	if len(r.Shares) == 0 {
		fmt.Fprintln(w, "  No categories present in both sources")
		fmt.Fprintln(w)
		return
	}

	t := p.newTable(w, fmt.Sprintf("Share of %s vs share of %s", r.LabelA, r.LabelB))
	t.AppendHeader(table.Row{"Category", r.LabelA, r.LabelB, r.LabelA + " share", r.LabelB + " share", "Ratio"})

	totals := make(map[string]models.JoinedRecord, len(r.Joined))
	for _, j := range r.Joined {
		totals[j.Category] = j
	}
	for _, s := range r.Shares {
		j := totals[s.Category]
		t.AppendRow(table.Row{
			s.Category,
			humanize.Commaf(j.A),
			humanize.Commaf(j.B),
			formatShare(s.ShareA),
			formatShare(s.ShareB),
			fmt.Sprintf("%.2fx", s.Ratio()),
		})
	}
	t.Render()
	fmt.Fprintln(w)
}

func (p *Printer) printCrime(w io.Writer, tables []models.LongTable) {
	if len(tables) == 0 {
		return
	}
	t := p.newTable(w, "Crime tables")
	t.AppendHeader(table.Row{"Table", "Observations", "Categories", "Missing values", "Total"})
	for _, lt := range tables {
		var missing int
		var total float64
		for _, o := range lt.Observations {
			if !o.Value.Valid {
				missing++
				continue
			}
			total += o.Value.Float64
		}
		t.AppendRow(table.Row{
			lt.Name,
			humanize.Comma(int64(len(lt.Observations))),
			len(lt.Categories()),
			missing,
			humanize.Commaf(total),
		})
	}
	t.Render()
	fmt.Fprintln(w)
}

func (p *Printer) printDiagnostics(w io.Writer, diags []models.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintln(w, "  No diagnostics")
		fmt.Fprintln(w)
		return
	}
	t := p.newTable(w, fmt.Sprintf("Diagnostics (%d)", len(diags)))
	t.AppendHeader(table.Row{"Kind", "Stage", "Subject", "Detail"})
	for _, d := range diags {
		t.AppendRow(table.Row{d.Kind, d.Stage, truncate(d.Subject, 48), d.Detail})
	}
	t.Render()
	fmt.Fprintln(w)
}

// formatCell prints counts with thousands separators; the period column
// stays unseparated so a year reads as 2011.
func formatCell(c models.Cell, period bool) string {
	switch {
	case !c.Numeric:
		return c.Text
	case !c.Number.Valid:
		return "—"
	case period:
		return c.String()
	}
	return humanize.Commaf(c.Number.Float64)
}

func formatShare(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
