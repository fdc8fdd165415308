package main

import (
	"fmt"
	"io"
	"os"

	"go-glassdoor-harvester/internal/browser"
	"go-glassdoor-harvester/internal/config"
	"go-glassdoor-harvester/internal/debugger"
	"go-glassdoor-harvester/internal/extract"
	"go-glassdoor-harvester/internal/normalize"
	"go-glassdoor-harvester/internal/record"
	"go-glassdoor-harvester/internal/schema"
	"go-glassdoor-harvester/internal/scraper"

	"go.uber.org/zap"
)

// runReplay extracts and normalizes a saved page, usually the error page dump
// of a failed run, and prints the resulting record without writing any CSV.
func runReplay(cfg *config.Config, log *zap.Logger, path string, out io.Writer) error {
	rec, err := replayFile(cfg, log, path)
	if err != nil {
		return err
	}
	debugger.NewPrinter(out, cfg.NAValue).PrintRecord(1, rec)
	return nil
}

func replayFile(cfg *config.Config, log *zap.Logger, path string) (*record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	doc, err := browser.ParseDocument(f)
	if err != nil {
		return nil, err
	}

	var detail browser.Scope = doc
	if el, err := doc.Locate(cfg.Selectors.Detail); err == nil {
		detail = el
	} else {
		log.Warn("⚠️ Detail container not found, extracting from the whole page", zap.String("selector", cfg.Selectors.Detail))
	}

	rec := extract.New(log).Extract(detail, doc, schema.Glassdoor())
	if v, _ := rec.Get(scraper.GateField); v.IsNA() {
		log.Warn("⚠️ Record would be discarded by the gate", zap.String("field", scraper.GateField))
	}
	if err := normalize.Default(log).Run(rec); err != nil {
		return nil, fmt.Errorf("normalize replayed record: %w", err)
	}
	return rec, nil
}
