package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-glassdoor-harvester/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(name string) *record.Record {
	rec := record.New()
	rec.Set("Company_name", record.Text(name))
	rec.Set("Salary_low", record.Int(51000))
	rec.Set("Easy_apply", record.Bool(true))
	rec.Set("Pros", record.List([]string{"Great team", "It's remote"}))
	rec.Set("Founded", record.NA)
	return rec
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSink_HeaderOnceThenRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	s, err := NewCSVSink(path, "utf-8", "-1", nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleRecord("Acme")))
	require.NoError(t, s.Write(sampleRecord("Globex, Inc.")))
	assert.Equal(t, 2, s.Written())

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Company_name", "Salary_low", "Easy_apply", "Pros", "Founded"}, rows[0])
	assert.Equal(t, []string{"Acme", "51000", "True", `['Great team', 'It\'s remote']`, "-1"}, rows[1])
	assert.Equal(t, "Globex, Inc.", rows[2][0])
}

func TestCSVSink_ColumnMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := NewCSVSink(path, "", "-1", nil)
	require.NoError(t, err)
	require.NoError(t, s.Write(sampleRecord("Acme")))

	other := record.New()
	other.Set("Company_name", record.Text("Acme"))
	err = s.Write(other)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, path, we.Path)
	assert.Equal(t, 3, we.Line)
	assert.Equal(t, 1, s.Written())
}

func TestCSVSink_UnencodableRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := NewCSVSink(path, "windows-1252", "-1", nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleRecord("Café")))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// The unencodable rune sits after encodable cells of the same row.
	rec := sampleRecord("Acme")
	rec.Set("Founded", record.Text("株式会社"))
	err = s.Write(rec)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 3, we.Line)
	assert.Contains(t, err.Error(), path)
	assert.Equal(t, 1, s.Written())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed row must not leave a partial line")
}

func TestNewCSVSink_UnknownEncoding(t *testing.T) {
	_, err := NewCSVSink("out.csv", "klingon", "-1", nil)
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2026, 3, 7, 9, 5, 0, 0, time.UTC)
	got := OutputPath("data", "Data Scientist", "New York/NY", now)

	assert.Equal(t, "data", filepath.Dir(got))
	base := filepath.Base(got)
	assert.Contains(t, base, "07-03-2026_09-05.csv")
	assert.NotContains(t, base, " ")
	assert.NotContains(t, base, "/")
}
