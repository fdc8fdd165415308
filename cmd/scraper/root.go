package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-glassdoor-harvester/internal/browser"
	"go-glassdoor-harvester/internal/config"
	"go-glassdoor-harvester/internal/database"
	"go-glassdoor-harvester/internal/debugger"
	"go-glassdoor-harvester/internal/logger"
	"go-glassdoor-harvester/internal/models"
	"go-glassdoor-harvester/internal/record"
	"go-glassdoor-harvester/internal/reporter"
	"go-glassdoor-harvester/internal/scraper"
	"go-glassdoor-harvester/internal/sink"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile    string
	jobTitle   string
	location   string
	count      int
	debug      bool
	replayPath string
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Harvest Glassdoor job postings into a CSV file",
	Long: `harvester walks Glassdoor search results for one job title and location,
extracts every posting through a fixed schema, normalizes it and appends it to a
CSV file until the requested number of records is written.

Examples:
  harvester --title "Data Scientist" --location Berlin --count 50
  harvester --replay logs/error_page.html --debug`,
	SilenceUsage: true,
	RunE:         runHarvest,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "path to the YAML config")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging and a table per written record")

	rootCmd.Flags().StringVarP(&jobTitle, "title", "t", "", "job title to search for (overrides job_title)")
	rootCmd.Flags().StringVarP(&location, "location", "l", "", "location to search in (overrides location)")
	rootCmd.Flags().IntVarP(&count, "count", "n", 0, "number of records to write (overrides target_count)")
	rootCmd.Flags().StringVar(&replayPath, "replay", "", "extract a saved detail page instead of browsing")

	rootCmd.AddCommand(runsCmd)
}

// loadConfig reads the YAML config and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("title") {
		cfg.JobTitle = jobTitle
	}
	if flags.Changed("location") {
		cfg.Location = location
	}
	if flags.Changed("count") {
		cfg.TargetCount = count
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, io.Closer, error) {
	return logger.New(cfg.Logging.File, cfg.Logging.Level, cfg.Debug)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	defer log.Sync()

	if replayPath != "" {
		return runReplay(cfg, log, replayPath, os.Stdout)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log.Info("🔧 Config loaded",
		zap.String("job_title", cfg.JobTitle),
		zap.String("location", cfg.Location),
		zap.Int("target", cfg.TargetCount),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outPath := sink.OutputPath(cfg.Output.Dir, cfg.JobTitle, cfg.Location, time.Now())
	csvSink, err := sink.NewCSVSink(outPath, cfg.Output.Encoding, cfg.NAValue, log)
	if err != nil {
		return err
	}

	run := models.NewRun(cfg.JobTitle, cfg.Location, cfg.TargetCount, outPath, time.Now())
	history := openHistory(ctx, cfg, log)
	defer history.close()
	history.start(ctx, run)

	//init playwright manager
	pwManager, err := browser.NewPlaywright(browser.LaunchOptions{
		Headless:  cfg.Browser.Headless,
		UserAgent: cfg.Browser.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("failed to init playwright: %w", err)
	}
	defer pwManager.Close()

	cookies := loadCookies(cfg, log)
	browserCtx, err := pwManager.NewContext(cookies, cfg.Browser.UserAgent)
	if err != nil {
		return err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create new page: %w", err)
	}
	log.Info("✅ Browser initialized")

	var opts []scraper.Option
	if cfg.Debug {
		printer := debugger.NewPrinter(os.Stdout, cfg.NAValue)
		n := 0
		opts = append(opts, scraper.WithRecordHook(func(rec *record.Record) {
			n++
			printer.PrintRecord(n, rec)
		}))
	}

	harvester := scraper.NewHarvester(cfg, browser.NewPage(page), csvSink, log, opts...)
	res, runErr := harvester.Run(ctx)

	run.Finish(res.Written, res.Pages, res.Reloads, runErr, time.Now())
	// The browser may already be gone; history and notification get their own deadline.
	finishCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	history.finish(finishCtx, run)
	notify(cfg, log, run)

	if runErr != nil {
		return runErr
	}
	log.Info("✅ Harvest finished",
		zap.Int("target", cfg.TargetCount),
		zap.String("job_title", cfg.JobTitle),
		zap.String("output", outPath),
	)
	fmt.Printf("✅ Scraped %d %q postings into %s\n", res.Written, cfg.JobTitle, outPath)
	return nil
}

func loadCookies(cfg *config.Config, log *zap.Logger) []playwright.OptionalCookie {
	if cfg.Browser.CookiesPath == "" {
		return nil
	}
	cookies, err := browser.LoadCookies(cfg.Browser.CookiesPath)
	if err != nil {
		log.Warn("⚠️ Could not load cookies, continuing without", zap.Error(err))
		return nil
	}
	log.Info("🍪 Loaded cookies", zap.Int("count", len(cookies)))
	return cookies
}

// runHistory persists runs when a database is configured; otherwise every
// method is a no-op.
type runHistory struct {
	repo *database.Repository
	log  *zap.Logger
}

func openHistory(ctx context.Context, cfg *config.Config, log *zap.Logger) *runHistory {
	h := &runHistory{log: log}
	if cfg.DatabaseURL == "" {
		return h
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	repo, err := database.ConnectDB(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Warn("⚠️ Run history disabled", zap.Error(err))
		return h
	}
	if err := repo.EnsureSchema(connectCtx); err != nil {
		log.Warn("⚠️ Run history disabled", zap.Error(err))
		repo.Close()
		return h
	}
	h.repo = repo
	return h
}

func (h *runHistory) start(ctx context.Context, run *models.Run) {
	if h.repo == nil {
		return
	}
	if err := h.repo.StartRun(ctx, run); err != nil {
		h.log.Warn("⚠️ Could not record run start", zap.Error(err))
	}
}

func (h *runHistory) finish(ctx context.Context, run *models.Run) {
	if h.repo == nil {
		return
	}
	if err := h.repo.FinishRun(ctx, run); err != nil {
		h.log.Warn("⚠️ Could not record run outcome", zap.Error(err))
	}
}

func (h *runHistory) close() {
	if h.repo != nil {
		h.repo.Close()
	}
}

func notify(cfg *config.Config, log *zap.Logger, run *models.Run) {
	if !cfg.TelegramEnabled() {
		return
	}
	tg, err := reporter.NewTelegramReporter(cfg)
	if err != nil {
		log.Warn("⚠️ Telegram disabled", zap.Error(err))
		return
	}
	if err := tg.SendRun(run); err != nil {
		log.Warn("⚠️ Failed to send run report", zap.Error(err))
		return
	}
	log.Info("🤖 Run report sent to Telegram")
}
