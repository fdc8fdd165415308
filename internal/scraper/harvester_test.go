package scraper

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-glassdoor-harvester/internal/browser"
	"go-glassdoor-harvester/internal/config"
	"go-glassdoor-harvester/internal/record"
	"go-glassdoor-harvester/internal/schema"
	"go-glassdoor-harvester/internal/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, target int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		JobTitle:    "Data Scientist",
		Location:    "Berlin",
		TargetCount: target,
		URLTemplate: "https://jobs.example.test/search?q={title}&l={location}",
		NAValue:     "-1",
		Timeouts:    config.Timeouts{Listing: time.Second, Detail: time.Second},
		Selectors: config.Selectors{
			List:     `ul[aria-label="Jobs List"]`,
			Item:     `li[data-test="jobListing"]`,
			Detail:   detailSelector,
			NextPage: `button[data-test="pagination-next"]`,
			Popup:    `[alt="Close"]`,
		},
		Diagnostics: config.Diagnostics{
			ErrorPage:     filepath.Join(dir, "logs", "error_page.html"),
			ScreenshotDir: filepath.Join(dir, "logs", "screenshots"),
		},
		MaxReloads:      5,
		NavigateRetries: 2,
	}
}

func newTestHarvester(cfg *config.Config, drv *fakeDriver, s Sink, opts ...Option) *Harvester {
	opts = append([]Option{WithPacer(browser.NoPause{})}, opts...)
	return NewHarvester(cfg, drv, s, nil, opts...)
}

func requireAbort(t *testing.T, err error) *AbortError {
	t.Helper()
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	return abort
}

func TestHarvester_ReachesTargetAcrossPages(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b", "c"}, []string{"d", "e", "f"}).withDetails("a", "b", "c", "d", "e", "f")
	out := &memSink{}

	res, err := newTestHarvester(testConfig(t, 5), drv, out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Written: 5, Target: 5, Pages: 2, Reloads: 0}, res)
	assert.Equal(t, []string{"Company a", "Company b", "Company c", "Company d", "Company e"}, out.companies())
	assert.Equal(t, 1, drv.navigations)
}

func TestHarvester_NormalizesBeforeWriting(t *testing.T) {
	drv := newFakeDriver([]string{"a"}).withDetails("a")
	out := &memSink{}

	_, err := newTestHarvester(testConfig(t, 1), drv, out).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.records, 1)

	rec := out.records[0]
	assert.False(t, rec.Has(schema.FieldSalary))
	low, _ := rec.Get(schema.FieldSalaryLow)
	assert.True(t, record.Int(51000).Equal(low))
	age, _ := rec.Get("Job_age")
	assert.Equal(t, "1d", age.Str())
}

func TestHarvester_ShortfallWhenPagesRunOut(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b", "c"}, []string{"d", "e", "f"}).withDetails("a", "b", "c", "d", "e", "f")
	out := &memSink{}

	res, err := newTestHarvester(testConfig(t, 10), drv, out).Run(context.Background())

	abort := requireAbort(t, err)
	assert.Equal(t, AdvancePage, abort.State)
	assert.Equal(t, 4, abort.Shortfall)
	assert.Contains(t, err.Error(), "4 records short")
	assert.Equal(t, 6, res.Written)
	assert.Len(t, out.records, 6)
}

func TestHarvester_StaleClickReloadsAndResumes(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b", "c"}).withDetails("a", "b", "c")
	drv.clickErrs["b"] = []error{browser.ErrStaleElement}
	out := &memSink{}

	res, err := newTestHarvester(testConfig(t, 3), drv, out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, drv.reloads)
	assert.Equal(t, 1, res.Reloads)
	assert.Equal(t, []string{"Company a", "Company b", "Company c"}, out.companies())
	assert.Equal(t, []string{"a", "b", "c"}, drv.clicks, "item a must not be revisited after the reload")
}

func TestHarvester_StaleClickOnLaterPageResumesMidPage(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b", "c"}, []string{"d", "e", "f"}).withDetails("a", "b", "c", "d", "e", "f")
	drv.clickErrs["e"] = []error{browser.ErrStaleElement}
	out := &memSink{}

	res, err := newTestHarvester(testConfig(t, 6), drv, out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, drv.reloads)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, []string{"a", "b", "c", "next", "d", "e", "f"}, drv.clicks, "item d must not be revisited after the reload")
	assert.Equal(t, []string{
		"Company a", "Company b", "Company c", "Company d", "Company e", "Company f",
	}, out.companies())
}

func TestHarvester_InterceptedClickUsesScript(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b"}).withDetails("a", "b")
	drv.clickErrs["a"] = []error{browser.ErrClickIntercepted}
	out := &memSink{}

	_, err := newTestHarvester(testConfig(t, 2), drv, out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, drv.scriptClicks)
	assert.Equal(t, 0, drv.reloads)
	assert.Len(t, out.records, 2)
}

func TestHarvester_DetailTimeoutReloads(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b"}).withDetails("a", "b")
	drv.detailErrs = []error{nil, browser.ErrTimeout}
	out := &memSink{}

	_, err := newTestHarvester(testConfig(t, 2), drv, out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, drv.reloads)
	assert.Equal(t, []string{"Company a", "Company b"}, out.companies())
}

func TestHarvester_GateDiscardsMisrenderedRecord(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b"}).withDetails("a")
	drv.details["b"] = []string{detailHTML("   "), detailHTML("Company b")}
	cfg := testConfig(t, 2)
	out := &memSink{}

	_, err := newTestHarvester(cfg, drv, out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, drv.reloads)
	assert.Equal(t, []string{"Company a", "Company b"}, out.companies())

	dump, err := os.ReadFile(cfg.Diagnostics.ErrorPage)
	require.NoError(t, err)
	assert.Contains(t, string(dump), "Jobs List")
}

func TestHarvester_GateSnapshotFailureIsNotFatal(t *testing.T) {
	drv := newFakeDriver([]string{"a"})
	drv.details["a"] = []string{detailHTML(""), detailHTML("Company a")}
	cfg := testConfig(t, 1)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Diagnostics.ErrorPage = filepath.Join(blocker, "error_page.html")
	out := &memSink{}

	_, err := newTestHarvester(cfg, drv, out).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, out.records, 1)
}

func TestHarvester_ListingNeverRenders(t *testing.T) {
	drv := newFakeDriver(nil)
	out := &memSink{}

	_, err := newTestHarvester(testConfig(t, 3), drv, out).Run(context.Background())

	abort := requireAbort(t, err)
	assert.Equal(t, LoadListing, abort.State)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.Contains(t, err.Error(), "job title")
	assert.Empty(t, out.records)
}

func TestHarvester_ReloadBudget(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b"}).withDetails("a", "b")
	drv.clickErrs["a"] = []error{
		browser.ErrStaleElement, browser.ErrStaleElement, browser.ErrStaleElement, browser.ErrStaleElement,
	}
	cfg := testConfig(t, 2)
	cfg.MaxReloads = 2
	out := &memSink{}

	res, err := newTestHarvester(cfg, drv, out).Run(context.Background())

	abort := requireAbort(t, err)
	assert.Equal(t, LoadListing, abort.State)
	assert.Contains(t, abort.Reason, "without progress")
	assert.Equal(t, 2, abort.Shortfall)
	assert.Contains(t, err.Error(), "2 records short")
	assert.Equal(t, 2, drv.reloads)
	assert.Equal(t, 0, res.Written)
}

func TestHarvester_SinkFailureIsFatal(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b", "c"}).withDetails("a", "b", "c")
	out := &memSink{failAt: 2}

	res, err := newTestHarvester(testConfig(t, 3), drv, out).Run(context.Background())

	abort := requireAbort(t, err)
	assert.Equal(t, Write, abort.State)
	assert.Equal(t, 2, abort.Shortfall)
	assert.Equal(t, 1, res.Written)
}

func TestHarvester_NavigationRetries(t *testing.T) {
	drv := newFakeDriver([]string{"a"}).withDetails("a")
	drv.navErrs = []error{errors.New("net::ERR_CONNECTION_RESET"), errors.New("net::ERR_CONNECTION_RESET")}

	_, err := newTestHarvester(testConfig(t, 1), drv, &memSink{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, drv.navigations)
}

func TestHarvester_NavigationGivesUp(t *testing.T) {
	drv := newFakeDriver([]string{"a"}).withDetails("a")
	drv.navErrs = []error{errors.New("down"), errors.New("down"), errors.New("down")}

	_, err := newTestHarvester(testConfig(t, 1), drv, &memSink{}).Run(context.Background())

	abort := requireAbort(t, err)
	assert.Equal(t, LoadListing, abort.State)
	assert.Equal(t, 3, drv.navigations)
}

func TestHarvester_DismissesPopup(t *testing.T) {
	drv := newFakeDriver([]string{"a"}).withDetails("a")
	drv.popup = true
	drv.render()

	_, err := newTestHarvester(testConfig(t, 1), drv, &memSink{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "popup", drv.clicks[0])
	assert.False(t, drv.popup)
}

func TestHarvester_CancelledContext(t *testing.T) {
	drv := newFakeDriver([]string{"a"}).withDetails("a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestHarvester(testConfig(t, 1), drv, &memSink{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHarvester_RecordHook(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b"}).withDetails("a", "b")
	var seen int

	_, err := newTestHarvester(testConfig(t, 2), drv, &memSink{},
		WithRecordHook(func(*record.Record) { seen++ }),
	).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestHarvester_CSVRowCount(t *testing.T) {
	drv := newFakeDriver([]string{"a", "b", "c"}, []string{"d", "e"}).withDetails("a", "b", "c", "d", "e")
	cfg := testConfig(t, 4)
	path := filepath.Join(t.TempDir(), "out", "jobs.csv")
	out, err := sink.NewCSVSink(path, "utf-8", cfg.NAValue, nil)
	require.NoError(t, err)

	_, err = newTestHarvester(cfg, drv, out).Run(context.Background())
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 1+4)
	assert.Equal(t, 4, out.Written())
	assert.Contains(t, rows[0], schema.FieldSalaryProvided)
}

func TestResumeIndex(t *testing.T) {
	tests := []struct {
		c, n, want int
	}{
		{c: 0, n: 10, want: 0},
		{c: 3, n: 10, want: 3},
		{c: 10, n: 10, want: 0},
		{c: 27, n: 10, want: 7},
		{c: 5, n: 1, want: 0},
		{c: 4, n: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResumeIndex(tt.c, tt.n), "c=%d n=%d", tt.c, tt.n)
	}

	for n := 1; n <= 12; n++ {
		for c := 0; c < 50; c++ {
			i := ResumeIndex(c, n)
			assert.GreaterOrEqual(t, i, 0)
			assert.Less(t, i, n)
		}
	}
}

func TestAbortError(t *testing.T) {
	cause := errors.New("boom")
	err := &AbortError{State: Write, Reason: "row write failed", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "aborted in Write: row write failed: boom", err.Error())
	assert.Equal(t, "State(42)", State(42).String())
}
