// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	//Search criteria
	JobTitle    string `yaml:"job_title"`
	Location    string `yaml:"location"`
	TargetCount int    `yaml:"target_count"`
	URLTemplate string `yaml:"url_template"`

	NAValue string `yaml:"na_value"`

	Output      Output      `yaml:"output"`
	Pacing      Pacing      `yaml:"pacing"`
	Timeouts    Timeouts    `yaml:"timeouts"`
	Browser     Browser     `yaml:"browser"`
	Selectors   Selectors   `yaml:"selectors"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
	Logging     Logging     `yaml:"logging"`

	MaxReloads      int  `yaml:"max_reloads"`
	NavigateRetries int  `yaml:"navigate_retries"`
	Debug           bool `yaml:"debug"`

	DatabaseURL    string `yaml:"database_url" env:"DATABASE_URL"`
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

type Output struct {
	Dir      string `yaml:"dir"`
	Encoding string `yaml:"encoding"`
}

type Pacing struct {
	PauseMinMs int `yaml:"pause_min_ms"`
	PauseMaxMs int `yaml:"pause_max_ms"`
}

func (p Pacing) Min() time.Duration { return time.Duration(p.PauseMinMs) * time.Millisecond }
func (p Pacing) Max() time.Duration { return time.Duration(p.PauseMaxMs) * time.Millisecond }

type Timeouts struct {
	Listing time.Duration `yaml:"listing"`
	Detail  time.Duration `yaml:"detail"`
	// Delay between navigation retries.
	Retry time.Duration `yaml:"retry"`
}

type Browser struct {
	Headless    bool   `yaml:"headless"`
	CookiesPath string `yaml:"cookies_path"`
	UserAgent   string `yaml:"user_agent"`
}

// Selectors are playwright selectors of the listing page.
type Selectors struct {
	List     string `yaml:"list"`
	Item     string `yaml:"item"`
	Detail   string `yaml:"detail"`
	NextPage string `yaml:"next_page"`
	Popup    string `yaml:"popup_close"`
}

type Diagnostics struct {
	ErrorPage     string `yaml:"error_page"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

type Logging struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Load reads .env, then the YAML file at path (missing file is not an
// error), then environment overrides, and fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{Browser: Browser{Headless: true}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	//Override with env vars
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.URLTemplate == "" {
		c.URLTemplate = "https://www.glassdoor.com/Job/jobs.htm?sc.keyword={title}&locKeyword={location}"
	}
	if c.NAValue == "" {
		c.NAValue = "-1"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "data/raw"
	}
	if c.Output.Encoding == "" {
		c.Output.Encoding = "utf-8"
	}
	if c.Pacing.PauseMinMs == 0 && c.Pacing.PauseMaxMs == 0 {
		c.Pacing.PauseMinMs, c.Pacing.PauseMaxMs = 1000, 3000
	}
	if c.Timeouts.Listing == 0 {
		c.Timeouts.Listing = 20 * time.Second
	}
	if c.Timeouts.Detail == 0 {
		c.Timeouts.Detail = 10 * time.Second
	}
	if c.Timeouts.Retry == 0 {
		c.Timeouts.Retry = 4 * time.Second
	}
	if c.MaxReloads == 0 {
		c.MaxReloads = 5
	}
	if c.NavigateRetries == 0 {
		c.NavigateRetries = 5
	}

	s := &c.Selectors
	if s.List == "" {
		s.List = `ul[aria-label="Jobs List"]`
	}
	if s.Item == "" {
		s.Item = `li[data-test="jobListing"]`
	}
	if s.Detail == "" {
		s.Detail = `div[data-test="jobDetailsContainer"]`
	}
	if s.NextPage == "" {
		s.NextPage = `button[data-test="pagination-next"]`
	}
	if s.Popup == "" {
		s.Popup = `[alt="Close"]`
	}

	if c.Diagnostics.ErrorPage == "" {
		c.Diagnostics.ErrorPage = "logs/error_page.html"
	}
	if c.Diagnostics.ScreenshotDir == "" {
		c.Diagnostics.ScreenshotDir = "logs/screenshots"
	}
	if c.Logging.File == "" {
		c.Logging.File = "logs/harvester.log"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JobTitle) == "" {
		errs = append(errs, errors.New("job_title is required"))
	}
	if c.TargetCount <= 0 {
		errs = append(errs, fmt.Errorf("target_count must be > 0, got %d", c.TargetCount))
	}
	if !strings.Contains(c.URLTemplate, "{title}") {
		errs = append(errs, errors.New("url_template must contain {title}"))
	}
	if c.Pacing.PauseMinMs < 0 || c.Pacing.PauseMaxMs < c.Pacing.PauseMinMs {
		errs = append(errs, fmt.Errorf("invalid pacing %d..%d ms", c.Pacing.PauseMinMs, c.Pacing.PauseMaxMs))
	}
	if c.MaxReloads < 0 {
		errs = append(errs, errors.New("max_reloads must be >= 0"))
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	return errors.Join(errs...)
}

// SearchURL fills the URL template with the query-escaped job title and location.
func (c *Config) SearchURL() string {
	return strings.NewReplacer(
		"{title}", url.QueryEscape(c.JobTitle),
		"{location}", url.QueryEscape(c.Location),
	).Replace(c.URLTemplate)
}

// TelegramEnabled reports whether run notifications should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
