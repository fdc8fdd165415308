// Package sink persists normalized records as CSV rows.
package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go-glassdoor-harvester/internal/record"

	"github.com/kennygrant/sanitize"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// WriteError is fatal: a lost row would desynchronize the written count.
type WriteError struct {
	Path string
	Line int
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CSVSink appends one row per record. The file is opened and closed on every
// write; the header is written by the first one.
type CSVSink struct {
	path    string
	na      string
	enc     encoding.Encoding
	header  []string
	written int
	log     *zap.Logger
}

// NewCSVSink returns a sink writing to path. encodingName is a WHATWG label
// such as "utf-8" or "windows-1252"; na is the literal written for NA cells.
func NewCSVSink(path, encodingName, na string, log *zap.Logger) (*CSVSink, error) {
	if encodingName == "" {
		encodingName = "utf-8"
	}
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("output encoding %q: %w", encodingName, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CSVSink{path: path, na: na, enc: enc, log: log}, nil
}

func (s *CSVSink) Path() string { return s.path }

// Written is the number of data rows persisted so far.
func (s *CSVSink) Written() int { return s.written }

// Write persists rec. Every failure is a *WriteError carrying the 1-based
// line being written.
func (s *CSVSink) Write(rec *record.Record) error {
	names := rec.Names()
	first := s.header == nil

	if first {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return &WriteError{Path: s.path, Line: 1, Err: err}
		}
		if err := s.writeRow(names, os.O_CREATE|os.O_TRUNC|os.O_WRONLY); err != nil {
			return &WriteError{Path: s.path, Line: 1, Err: err}
		}
		s.header = names
		s.log.Info("📄 CSV header written", zap.String("path", s.path), zap.Int("columns", len(names)))
	}

	line := s.written + 2
	if !slices.Equal(names, s.header) {
		return &WriteError{Path: s.path, Line: line, Err: fmt.Errorf("columns %v do not match header %v", names, s.header)}
	}

	fields := rec.Fields()
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = f.Value.Format(s.na)
	}
	if err := s.writeRow(row, os.O_APPEND|os.O_WRONLY); err != nil {
		return &WriteError{Path: s.path, Line: line, Err: err}
	}

	s.written++
	return nil
}

// writeRow encodes the whole row before the file is opened, so a rune the
// output encoding cannot represent leaves the file untouched.
func (s *CSVSink) writeRow(row []string, flag int) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	encoded, err := s.enc.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	f, err := os.OpenFile(s.path, flag, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(encoded); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OutputPath builds <dir>/<title>_<location>_<dd-mm-yyyy_HH-MM>.csv with the
// user-supplied parts made safe for a file name.
func OutputPath(dir, title, location string, now time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.csv",
		sanitize.BaseName(title),
		sanitize.BaseName(location),
		now.Format("02-01-2006_15-04"),
	)
	return filepath.Join(dir, name)
}
