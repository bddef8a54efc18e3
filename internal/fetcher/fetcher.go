package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"github.com/finchdev/ffe-scraper/internal/browser"
	"github.com/finchdev/ffe-scraper/internal/ratelimit"
)

// Document is a rendered page ready for extraction.
type Document struct {
	SourceURL string
	FinalURL  string
	Status    int
	HTML      string

	doc *goquery.Document
}

// Doc lazily parses the HTML into a goquery document.
func (d *Document) Doc() (*goquery.Document, error) {
	if d.doc == nil {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.HTML))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}
		d.doc = doc
	}
	return d.doc, nil
}

type Options struct {
	Timeout     time.Duration
	SettleDelay time.Duration
	UserAgents  []string
}

// PagePool checks out rendering pages; satisfied by *browser.Pool. The
// release func must be called on every exit path.
type PagePool interface {
	Acquire(ctx context.Context, userAgent string) (playwright.Page, func(), error)
}

var _ PagePool = (*browser.Pool)(nil)

// Fetcher renders vendor pages in headless Chromium. Several vendor
// catalogs hydrate product data client-side, so a plain GET yields an
// empty shell; rendering is not optional.
type Fetcher struct {
	pool    PagePool
	limiter *ratelimit.DomainLimiter
	opts    Options
	uaIdx   atomic.Uint64
	logger  *slog.Logger
}

func New(pool PagePool, limiter *ratelimit.DomainLimiter, opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 25 * time.Second
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = 2 * time.Second
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		}
	}

	return &Fetcher{
		pool:    pool,
		limiter: limiter,
		opts:    opts,
		logger:  slog.Default().With("component", "fetcher"),
	}
}

// Fetch renders the page at rawURL. The caller's deadline propagates into
// navigation and the settle wait; the fetcher's own hard timeout applies
// on top. No retries happen here - retrying against a blocking vendor
// worsens the anti-bot signal, so that policy belongs to the caller.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
			return nil, classifyErr(err)
		}
	}

	page, release, err := f.pool.Acquire(ctx, f.nextUserAgent())
	if err != nil {
		return nil, classifyErr(err)
	}
	defer release()

	deadline, _ := ctx.Deadline()
	navTimeout := float64(time.Until(deadline).Milliseconds())
	if navTimeout <= 0 {
		return nil, ErrFetchTimeout
	}

	resp, err := page.Goto(u.String(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(navTimeout),
	})
	if err != nil {
		return nil, classifyNavErr(ctx, err)
	}

	status := 0
	if resp != nil {
		status = resp.Status()
	}
	if status == 403 || status == 429 {
		f.logger.Warn("anti-bot response", "url", rawURL, "status", status)
		return nil, fmt.Errorf("status %d: %w", status, ErrAntiBotBlocked)
	}
	if status >= 400 {
		return nil, &HTTPError{Status: status, URL: rawURL}
	}

	browser.Humanize(page)

	// Bounded content-ready wait for client-side hydration, never an
	// indefinite network-idle wait.
	if err := settle(ctx, f.opts.SettleDelay); err != nil {
		return nil, classifyErr(err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, classifyNavErr(ctx, err)
	}

	if isChallengePage(html) {
		f.logger.Warn("challenge page detected", "url", rawURL)
		return nil, fmt.Errorf("challenge page: %w", ErrAntiBotBlocked)
	}

	return &Document{
		SourceURL: rawURL,
		FinalURL:  page.URL(),
		Status:    status,
		HTML:      html,
	}, nil
}

func (f *Fetcher) nextUserAgent() string {
	n := f.uaIdx.Add(1)
	return f.opts.UserAgents[int(n)%len(f.opts.UserAgents)]
}

func validateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

func settle(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if err == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	if err == context.Canceled {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func classifyNavErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	if strings.Contains(err.Error(), "Timeout") {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// challengeMarkers are phrases vendor-side defenses put on interstitial
// pages that come back with a 200.
var challengeMarkers = []string{
	"verify you are human",
	"checking your browser",
	"access to this page has been denied",
	"request unsuccessful. incapsula",
	"cf-challenge",
}

func isChallengePage(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
