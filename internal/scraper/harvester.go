package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-glassdoor-harvester/internal/browser"
	"go-glassdoor-harvester/internal/config"
	"go-glassdoor-harvester/internal/extract"
	"go-glassdoor-harvester/internal/normalize"
	"go-glassdoor-harvester/internal/record"
	"go-glassdoor-harvester/internal/schema"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// GateField must be observed for a record to be written.
const GateField = schema.FieldCompanyName

// Harvester walks the paginated listing and writes one row per accepted
// posting until the target is reached. written is the only checkpoint: after
// any reload the position on the page is recomputed from it.
type Harvester struct {
	cfg       *config.Config
	driver    browser.Driver
	sink      Sink
	schema    schema.Schema
	extractor *extract.Extractor
	pipeline  Normalizer
	pacer     browser.Pacer
	diag      *Diagnostics
	onRecord  func(rec *record.Record)
	log       *zap.Logger

	written     int
	pageWritten int
	reloads     int
	totalReload int
	pages       int
}

type Option func(*Harvester)

func WithSchema(s schema.Schema) Option { return func(h *Harvester) { h.schema = s } }

func WithNormalizer(n Normalizer) Option { return func(h *Harvester) { h.pipeline = n } }

func WithPacer(p browser.Pacer) Option { return func(h *Harvester) { h.pacer = p } }

func WithDiagnostics(d *Diagnostics) Option { return func(h *Harvester) { h.diag = d } }

// WithRecordHook is called with every record after it was written.
func WithRecordHook(fn func(rec *record.Record)) Option {
	return func(h *Harvester) { h.onRecord = fn }
}

func NewHarvester(cfg *config.Config, driver browser.Driver, sink Sink, log *zap.Logger, opts ...Option) *Harvester {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Harvester{
		cfg:       cfg,
		driver:    driver,
		sink:      sink,
		schema:    schema.Glassdoor(),
		extractor: extract.New(log),
		pipeline:  normalize.Default(log),
		pacer:     browser.RandomPacer{Min: cfg.Pacing.Min(), Max: cfg.Pacing.Max()},
		diag:      NewDiagnostics(cfg.Diagnostics.ErrorPage, cfg.Diagnostics.ScreenshotDir, log),
		log:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Written is the number of rows persisted so far.
func (h *Harvester) Written() int { return h.written }

// Run drives the state machine to Done or Aborted. An abort is returned as
// *AbortError; a cancelled ctx is returned as ctx.Err().
func (h *Harvester) Run(ctx context.Context) (Result, error) {
	target := h.cfg.TargetCount
	h.log.Info("🚀 Harvest started",
		zap.String("job_title", h.cfg.JobTitle),
		zap.String("location", h.cfg.Location),
		zap.Int("target", target),
	)

	if err := h.schema.Validate(); err != nil {
		return h.result(), h.abort(LoadListing, "invalid extraction schema", err)
	}

	url := h.cfg.SearchURL()
	if err := h.retry(ctx, "navigate", func() error { return h.driver.Navigate(url) }); err != nil {
		return h.result(), h.abort(LoadListing, "search page never loaded", err)
	}
	h.pages = 1

	for {
		if err := ctx.Err(); err != nil {
			return h.result(), err
		}

		h.transition(LoadListing)
		items, err := h.loadListing()
		if err != nil {
			return h.result(), h.abort(LoadListing,
				"listing did not render; check the job title for typos or whether the session is being blocked", err)
		}

		next, err := h.iterate(ctx, items)
		if err != nil {
			return h.result(), err
		}

		switch next {
		case Done:
			h.transition(Done)
			h.log.Info("✅ Target reached", zap.Int("written", h.written), zap.String("job_title", h.cfg.JobTitle))
			return h.result(), nil

		case LoadListing:
			if err := h.reload(ctx); err != nil {
				return h.result(), err
			}

		case AdvancePage:
			h.transition(AdvancePage)
			advanced, err := h.advance()
			if err != nil {
				return h.result(), err
			}
			if !advanced {
				if err := h.reload(ctx); err != nil {
					return h.result(), err
				}
			}
		}
	}
}

func (h *Harvester) loadListing() ([]browser.Element, error) {
	list, err := h.driver.WaitFor(h.cfg.Selectors.List, h.cfg.Timeouts.Listing)
	if err != nil {
		return nil, err
	}
	h.dismissPopup()
	if hz, ok := h.driver.(browser.Humanizer); ok {
		if err := hz.Humanize(); err != nil {
			h.log.Debug("humanize failed", zap.Error(err))
		}
	}

	items, err := list.LocateAll(h.cfg.Selectors.Item)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no items match %q", h.cfg.Selectors.Item)
	}
	h.log.Info("📦 Listing loaded", zap.Int("page", h.pages), zap.Int("items", len(items)))
	return items, nil
}

// iterate walks the page from the resume index. It returns Done, AdvancePage
// when the page is exhausted, or LoadListing when the page must be reloaded.
func (h *Harvester) iterate(ctx context.Context, items []browser.Element) (State, error) {
	h.transition(IterateItems)
	if h.pageWritten >= len(items) {
		return AdvancePage, nil
	}

	start := ResumeIndex(h.pageWritten, len(items))
	if start > 0 {
		h.log.Info("↪️ Resuming page", zap.Int("index", start), zap.Int("written", h.written))
	}

	for i := start; i < len(items); i++ {
		if err := ctx.Err(); err != nil {
			return Aborted, err
		}
		item := items[i]

		h.transition(ExtractDetail)
		if err := h.click(item); err != nil {
			h.log.Warn("⚠️ Item click failed, reloading", zap.Int("index", i), zap.Error(err))
			return LoadListing, nil
		}
		h.pacer.Pause()
		h.dismissPopup()

		detail, err := h.driver.WaitFor(h.cfg.Selectors.Detail, h.cfg.Timeouts.Detail)
		if err != nil {
			h.log.Warn("⚠️ Detail panel did not render, reloading", zap.Int("index", i), zap.Error(err))
			return LoadListing, nil
		}
		rec := h.extractor.Extract(detail, item, h.schema)

		h.transition(Gate)
		if v, ok := rec.Get(GateField); !ok || v.IsNA() {
			h.diag.CaptureAndLog(h.driver, "error-page", fmt.Sprintf("%s missing, page looks mis-rendered", GateField))
			return LoadListing, nil
		}

		h.transition(Normalize)
		if err := h.pipeline.Run(rec); err != nil {
			return Aborted, h.abort(Normalize, "record could not be normalized", err)
		}

		h.transition(Write)
		if err := h.sink.Write(rec); err != nil {
			return Aborted, h.abort(Write, "row write failed", err)
		}
		h.written++
		h.pageWritten++
		h.reloads = 0
		h.log.Info("📝 Record written",
			zap.Int("written", h.written),
			zap.Int("target", h.cfg.TargetCount),
			zap.String("company", displayName(rec)),
		)
		if h.onRecord != nil {
			h.onRecord(rec)
		}

		if h.written >= h.cfg.TargetCount {
			return Done, nil
		}
		h.transition(ContinueItems)
	}
	return AdvancePage, nil
}

// advance clicks the next-page control. It reports false when the click
// failed and the page should be reloaded instead.
func (h *Harvester) advance() (bool, error) {
	next, err := h.driver.Locate(h.cfg.Selectors.NextPage)
	if err != nil {
		return false, h.abort(AdvancePage, "no next page", err)
	}
	enabled, err := next.Enabled()
	if err != nil {
		h.log.Warn("⚠️ Next page control went stale", zap.Error(err))
		return false, nil
	}
	if !enabled {
		return false, h.abort(AdvancePage, "last page reached", nil)
	}

	if err := h.click(next); err != nil {
		h.log.Warn("⚠️ Next page click failed, reloading", zap.Error(err))
		return false, nil
	}
	h.pages++
	h.pageWritten = 0
	h.log.Info("➡️ Next page", zap.Int("page", h.pages), zap.Int("written", h.written))
	h.pacer.Pause()
	return true, nil
}

// click falls back to a script click when another element takes the click.
func (h *Harvester) click(el browser.Element) error {
	err := h.driver.Click(el)
	if errors.Is(err, browser.ErrClickIntercepted) {
		h.log.Debug("click intercepted, clicking via script")
		err = h.driver.ClickViaScript(el)
	}
	return err
}

func (h *Harvester) reload(ctx context.Context) error {
	h.reloads++
	h.totalReload++
	if h.reloads > h.cfg.MaxReloads {
		return h.abort(LoadListing, fmt.Sprintf("%d reloads without progress", h.reloads-1), nil)
	}
	h.log.Info("🔄 Reloading listing", zap.Int("attempt", h.reloads), zap.Int("written", h.written))
	if err := h.retry(ctx, "reload", h.driver.Reload); err != nil {
		return h.abort(LoadListing, "reload failed", err)
	}
	h.pacer.Pause()
	return nil
}

// retry runs op with a constant delay, at most NavigateRetries extra times.
func (h *Harvester) retry(ctx context.Context, what string, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(h.cfg.Timeouts.Retry), uint64(h.cfg.NavigateRetries)),
		ctx,
	)
	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		h.log.Warn("⚠️ "+what+" failed, retrying", zap.Duration("in", wait), zap.Error(err))
	})
}

func (h *Harvester) dismissPopup() {
	el, err := h.driver.Locate(h.cfg.Selectors.Popup)
	if err != nil {
		return
	}
	if err := h.click(el); err != nil {
		h.log.Debug("popup close failed", zap.Error(err))
		return
	}
	h.log.Debug("popup closed")
}

func (h *Harvester) transition(s State) {
	h.log.Debug("state", zap.Stringer("state", s), zap.Int("written", h.written))
}

// abort reports how far below target the run stopped; every abort happens
// before the target is reached.
func (h *Harvester) abort(s State, reason string, err error) error {
	shortfall := h.cfg.TargetCount - h.written
	h.transition(Aborted)
	h.log.Error("❌ Harvest aborted",
		zap.Stringer("state", s),
		zap.String("reason", reason),
		zap.Int("written", h.written),
		zap.Int("shortfall", shortfall),
		zap.Error(err),
	)
	return &AbortError{State: s, Reason: reason, Shortfall: shortfall, Err: err}
}

func (h *Harvester) result() Result {
	return Result{Written: h.written, Target: h.cfg.TargetCount, Pages: h.pages, Reloads: h.totalReload}
}

func displayName(rec *record.Record) string {
	v, _ := rec.Get(GateField)
	return v.Str()
}
