// Package browser opens the merchant dashboard in a visible Chrome window.
//
// The responder itself works purely on screen pixels; this package only
// gets the right page in front of it. Chrome is started non-headless with
// the automation banner suppressed, saved cookies are restored before
// navigation so the merchant stays logged in, and cookies are written back
// on shutdown.
//
// Lifecycle:
//
//	d := browser.New(opts)
//	d.Open(ctx)   // allocator, tab, cookies, navigate
//	...           // session runs against the screen
//	d.Close()     // save cookies, cancel tab and allocator
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"review-responder/internal/logging"
)

var errNotOpen = errors.New("dashboard is not open")

// Options configures the dashboard window.
type Options struct {
	Launch     bool          `yaml:"launch"`
	URL        string        `yaml:"url"`
	CookieFile string        `yaml:"cookie_file"`
	ProfileDir string        `yaml:"profile_dir"`
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// DefaultOptions returns the stock dashboard settings. Launch is off: most
// merchants keep the dashboard open in their own browser.
func DefaultOptions() Options {
	return Options{
		Launch:     false,
		URL:        "https://www.doordash.com/merchant/reviews",
		CookieFile: "cookies.json",
		Width:      1280,
		Height:     900,
		NavTimeout: 60 * time.Second,
	}
}

// Validate checks the options needed for a launch.
func (o Options) Validate() error {
	if !o.Launch {
		return nil
	}
	if o.URL == "" {
		return fmt.Errorf("dashboard url is required when launch is enabled")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("dashboard window size must be positive, got %dx%d", o.Width, o.Height)
	}
	return nil
}

// Dashboard is a Chrome window showing the merchant dashboard.
type Dashboard struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// New creates a new Dashboard
func New(opts Options) *Dashboard {
	return &Dashboard{opts: opts}
}

func (d *Dashboard) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(d.opts.Width, d.opts.Height),
	)
	if d.opts.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(d.opts.ProfileDir))
	}
	return opts
}

// Open starts Chrome, restores cookies and navigates to the dashboard.
func (d *Dashboard) Open(ctx context.Context) error {
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(ctx, d.allocatorOptions()...)
	logging.Debug("Browser allocator context created")

	d.ctx, d.cancel = chromedp.NewContext(d.allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logging.Debug(format, args...)
	}))

	cookies, err := LoadCookies(d.opts.CookieFile)
	if err != nil {
		logging.Warn("Ignoring saved cookies: %v", err)
	}
	if len(cookies) > 0 {
		n, err := d.SetCookies(cookies)
		if err != nil {
			logging.Warn("Cookie restore incomplete: %v", err)
		}
		logging.Info("Restored %d of %d saved cookies", n, len(cookies))
	}

	logging.Info("Navigating to %s", d.opts.URL)
	navCtx, navCancel := context.WithTimeout(d.ctx, d.opts.NavTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(d.opts.URL)); err != nil {
		return fmt.Errorf("failed to open dashboard: %w", err)
	}

	logging.Info("Dashboard opened")
	return nil
}

// Alive reports whether the browser tab is still usable.
func (d *Dashboard) Alive() bool {
	return d.ctx != nil && d.ctx.Err() == nil
}

// Cookies reads the dashboard's cookies from the browser.
func (d *Dashboard) Cookies() ([]CookieData, error) {
	if !d.Alive() {
		return nil, errNotOpen
	}

	var raw []*network.Cookie
	read := chromedp.ActionFunc(func(ctx context.Context) (err error) {
		raw, err = network.GetCookies().Do(ctx)
		return err
	})
	if err := chromedp.Run(d.ctx, read); err != nil {
		return nil, fmt.Errorf("read dashboard cookies: %w", err)
	}
	return fromNetwork(raw), nil
}

// SetCookies restores the unexpired cookies and returns how many the browser
// accepted. A rejected cookie is logged and does not stop the rest.
func (d *Dashboard) SetCookies(cookies []CookieData) (int, error) {
	if !d.Alive() {
		return 0, errNotOpen
	}

	fresh := Fresh(cookies, time.Now())
	if dropped := len(cookies) - len(fresh); dropped > 0 {
		logging.Info("Skipping %d expired cookies", dropped)
	}

	restored := 0
	write := chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range fresh {
			if err := c.setParams().Do(ctx); err != nil {
				logging.Warn("Cookie %s rejected: %v", c.Name, err)
				continue
			}
			restored++
		}
		return nil
	})
	if err := chromedp.Run(d.ctx, write); err != nil {
		return restored, fmt.Errorf("restore dashboard cookies: %w", err)
	}
	return restored, nil
}

// Close saves cookies and shuts the browser down.
func (d *Dashboard) Close() {
	if d.Alive() && d.opts.CookieFile != "" {
		if cookies, err := d.Cookies(); err != nil {
			logging.Warn("Could not read cookies on close: %v", err)
		} else if err := SaveCookies(d.opts.CookieFile, cookies); err != nil {
			logging.Warn("Could not save cookies: %v", err)
		} else {
			logging.Info("Saved %d cookies", len(cookies))
		}
	}

	if d.cancel != nil {
		d.cancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
	logging.Info("Browser closed")
}
