package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-glassdoor-harvester/internal/browser"

	"go.uber.org/zap"
)

// Diagnostics dumps the current page when a record fails the gate. Nothing
// it does is allowed to fail the run.
type Diagnostics struct {
	errorPage     string
	screenshotDir string
	log           *zap.Logger
}

func NewDiagnostics(errorPage, screenshotDir string, log *zap.Logger) *Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Diagnostics{errorPage: errorPage, screenshotDir: screenshotDir, log: log}
}

// CaptureAndLog writes the page HTML to the error page file and, when the
// driver supports it, a full-page screenshot.
func (d *Diagnostics) CaptureAndLog(drv browser.Driver, name, message string) {
	d.log.Warn("📸 "+message, zap.String("name", name))

	if d.errorPage != "" {
		if err := d.dumpContent(drv); err != nil {
			d.log.Warn("⚠️ Failed to save error page", zap.String("path", d.errorPage), zap.Error(err))
		} else {
			d.log.Info("   Error page saved", zap.String("path", d.errorPage))
		}
	}

	shooter, ok := drv.(Snapshotter)
	if !ok || d.screenshotDir == "" {
		return
	}
	if err := os.MkdirAll(d.screenshotDir, 0o755); err != nil {
		d.log.Warn("⚠️ Failed to create screenshot dir", zap.Error(err))
		return
	}
	path := filepath.Join(d.screenshotDir, fmt.Sprintf("%s_%s.png", name, time.Now().Format("2006-01-02_15-04-05")))
	if err := shooter.Screenshot(path); err != nil {
		d.log.Warn("⚠️ Failed to capture screenshot", zap.Error(err))
		return
	}
	d.log.Info("   Screenshot saved", zap.String("path", path))
}

func (d *Diagnostics) dumpContent(drv browser.Driver) error {
	html, err := drv.Content()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(d.errorPage), 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.errorPage, []byte(html), 0o644)
}
