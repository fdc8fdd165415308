// Package extract applies a schema to the scopes of one job posting.
package extract

import (
	"strings"

	"go-glassdoor-harvester/internal/browser"
	"go-glassdoor-harvester/internal/record"
	"go-glassdoor-harvester/internal/schema"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

type Extractor struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

// Extract builds the raw record for one posting. It never fails: a field that
// cannot be resolved is NA, and an optional block whose anchor is missing is
// NA as a whole. Whether the record is usable is decided by the caller.
func (e *Extractor) Extract(detail, item browser.Scope, s schema.Schema) *record.Record {
	rec := record.New()
	for _, block := range s.Blocks {
		scope := detail
		if block.Source == schema.Item {
			scope = item
		}

		if block.Optional {
			anchor, err := scope.Locate(block.Anchor)
			if err != nil {
				e.log.Debug("optional block absent", zap.String("block", block.Name), zap.Error(err))
				fillNA(rec, block)
				continue
			}
			scope = anchor
		}

		for _, f := range block.Fields {
			v, ok := resolve(scope, f)
			if !ok {
				v = record.NA
			}
			rec.Set(f.Name, v)
		}
	}
	return rec
}

func fillNA(rec *record.Record, block schema.Block) {
	for _, f := range block.Fields {
		rec.Set(f.Name, record.NA)
	}
}

// resolve reports ok=false when the locator does not resolve or yields
// nothing usable.
func resolve(scope browser.Scope, f schema.Field) (record.Value, bool) {
	if scope == nil {
		return record.NA, false
	}

	if f.Multiplicity == schema.List {
		els, err := scope.LocateAll(f.Locator)
		if err != nil || len(els) == 0 {
			return record.NA, false
		}
		texts := make([]string, 0, len(els))
		for _, el := range els {
			text, err := el.Text()
			if err != nil {
				continue
			}
			texts = append(texts, clean(text))
		}
		if len(texts) == 0 {
			return record.NA, false
		}
		return record.List(texts), true
	}

	el, err := scope.Locate(f.Locator)
	if err != nil {
		return record.NA, false
	}
	text, err := el.Text()
	if err != nil {
		return record.NA, false
	}
	text = clean(text)
	if text == "" || text == "N/A" {
		return record.NA, false
	}
	return record.Text(text), true
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
