package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

type Options struct {
	Headless       bool
	PoolSize       int
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		PoolSize:       3,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-US,en;q=0.9",
		TimezoneID:     "America/New_York",
		Locale:         "en-US",
		ExtraHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Encoding": "gzip, deflate, br",
			"DNT":             "1",
		},
	}
}

// Pool owns one Chromium process and hands out pages up to a fixed
// concurrency limit. Rendering is resource-heavy, so the limit stays
// single-digit; Acquire blocks until a slot frees up or the context ends.
type Pool struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    *Options
	slots   chan struct{}
	logger  *slog.Logger
}

func NewPool(opts *Options) (*Pool, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.PoolSize < 1 {
		opts.PoolSize = 1
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--window-size=1920,1080",
		},
	}

	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{
			Server: opts.ProxyServer,
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	slots := make(chan struct{}, opts.PoolSize)
	for i := 0; i < opts.PoolSize; i++ {
		slots <- struct{}{}
	}

	return &Pool{
		pw:      pw,
		browser: browser,
		opts:    opts,
		slots:   slots,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

// Acquire checks out a fresh page in its own browser context, using the
// given user agent. The returned release func must be called on every exit
// path; it closes the page and returns the slot to the pool.
func (p *Pool) Acquire(ctx context.Context, userAgent string) (playwright.Page, func(), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-p.slots:
	}

	bctx, err := p.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &userAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &p.opts.Locale,
		TimezoneId:        &p.opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  p.opts.ViewportWidth,
			Height: p.opts.ViewportHeight,
		},
		ExtraHttpHeaders: p.opts.ExtraHeaders,
	})
	if err != nil {
		p.slots <- struct{}{}
		return nil, nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		p.slots <- struct{}{}
		return nil, nil, fmt.Errorf("failed to create page: %w", err)
	}

	release := func() {
		if err := page.Close(); err != nil {
			p.logger.Debug("page close failed", "error", err)
		}
		if err := bctx.Close(); err != nil {
			p.logger.Debug("context close failed", "error", err)
		}
		p.slots <- struct{}{}
	}

	return page, release, nil
}

// Available reports free slots; tests use it to verify checkouts return to
// baseline after timeouts.
func (p *Pool) Available() int {
	return len(p.slots)
}

func (p *Pool) Close() error {
	var errs []error

	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

// Humanize adds small mouse movement and scroll noise before extraction.
func Humanize(page playwright.Page) {
	for i := 0; i < 2; i++ {
		x := float64(150 + i*220)
		y := float64(120 + i*160)
		page.Mouse().Move(x, y)
		time.Sleep(time.Millisecond * time.Duration(150+i*100))
	}

	page.Evaluate(`window.scrollBy(0, Math.random() * 400)`)
}
