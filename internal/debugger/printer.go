// Package debugger pretty-prints records and run history for debug mode.
package debugger

import (
	"io"
	"strconv"
	"time"

	"go-glassdoor-harvester/internal/models"
	"go-glassdoor-harvester/internal/record"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const valueWidth = 80

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// Printer renders one normalized record per table, field by field.
type Printer struct {
	out io.Writer
	na  string
}

func NewPrinter(out io.Writer, na string) *Printer {
	return &Printer{out: out, na: na}
}

// PrintRecord renders rec as field / kind / value rows. n is the 1-based row
// number the record was written as.
func (p *Printer) PrintRecord(n int, rec *record.Record) {
	t := newTable(p.out)
	t.SetTitle("Record #" + strconv.Itoa(n))
	t.AppendHeader(table.Row{"Field", "Kind", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: valueWidth, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, f := range rec.Fields() {
		t.AppendRow(table.Row{f.Name, f.Value.Kind().String(), f.Value.Format(p.na)})
	}
	t.Render()
}

// PrintRuns renders run history, newest first.
func PrintRuns(out io.Writer, runs []models.Run) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Started", "Job title", "Location", "Written", "Status", "Duration", "Output"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.StartedAt.Local().Format("02-01-2006 15:04"),
			run.JobTitle,
			run.Location,
			strconv.Itoa(run.Written) + "/" + strconv.Itoa(run.Target),
			string(run.Status),
			run.Duration().Round(time.Second).String(),
			run.OutputPath,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Runs", len(runs)})
	t.Render()
}
