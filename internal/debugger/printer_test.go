package debugger

import (
	"bytes"
	"testing"
	"time"

	"go-glassdoor-harvester/internal/models"
	"go-glassdoor-harvester/internal/record"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_PrintRecord(t *testing.T) {
	rec := record.New()
	rec.Set("Company_name", record.Text("Acme"))
	rec.Set("Easy_apply", record.Bool(true))
	rec.Set("Founded", record.NA)
	rec.Set("Pros", record.List([]string{"Great team"}))

	var buf bytes.Buffer
	NewPrinter(&buf, "-1").PrintRecord(3, rec)

	out := buf.String()
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "True")
	assert.Contains(t, out, "-1")
	assert.Contains(t, out, "['Great team']")
}

func TestPrintRuns(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	run := models.NewRun("Data Scientist", "Berlin", 10, "data/raw/out.csv", start)
	run.Finish(10, 1, 0, nil, start.Add(time.Minute))

	var buf bytes.Buffer
	PrintRuns(&buf, []models.Run{*run})

	out := buf.String()
	assert.Contains(t, out, "Data Scientist")
	assert.Contains(t, out, "10/10")
	assert.Contains(t, out, "DONE")
	assert.Contains(t, out, "1m0s")
}
