package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

type LaunchOptions struct {
	Headless  bool
	UserAgent string
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywright(opts LaunchOptions) (*PlaywrightManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--disable-blink-features=AutomationControlled"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	return &PlaywrightManager{pw: pw, browser: browser}, nil
}

// NewContext opens an isolated browser context preloaded with cookies.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie, userAgent string) (playwright.BrowserContext, error) {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Locale:    playwright.String("en-US"),
		Viewport:  &playwright.Size{Width: 1366, Height: 900},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return bctx, nil
}

func (pm *PlaywrightManager) Close() error {
	if err := pm.browser.Close(); err != nil {
		_ = pm.pw.Stop()
		return err
	}
	return pm.pw.Stop()
}
