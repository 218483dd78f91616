// Package capture takes PNG snapshots of the HTML week page with a headless
// Chromium.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "weekview/internal/log"
)

// Default capture parameters. The height fits a full day at the week page's
// default container height.
const (
	DefaultWidth   = 1280
	DefaultHeight  = 2960
	DefaultTimeout = 30 * time.Second
)

// ReadySelector matches the week page root once it has rendered.
const ReadySelector = `[data-ready="true"]`

// Options defines parameters for one screenshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/week?date=2021-06-07".
	URL string

	// OutputPath is where the PNG is written. Parent directories are
	// created as needed.
	OutputPath string

	// Width and Height are the viewport in pixels; zero means the defaults.
	Width  int
	Height int

	// Timeout bounds the whole capture; zero means DefaultTimeout.
	Timeout time.Duration
}

func (o Options) withDefaults() (Options, error) {
	if o.URL == "" {
		return o, errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return o, errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o, nil
}

// WeekPNG navigates a headless Chromium to opts.URL, waits for
// ReadySelector and writes a full-page screenshot to opts.OutputPath.
func WeekPNG(parentCtx context.Context, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("snapshot captured", "path", opts.OutputPath, "bytes", len(png), "width", opts.Width)
	return nil
}
