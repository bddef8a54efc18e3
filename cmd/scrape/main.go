package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/finchdev/ffe-scraper/internal/browser"
	"github.com/finchdev/ffe-scraper/internal/config"
	"github.com/finchdev/ffe-scraper/internal/fetcher"
	"github.com/finchdev/ffe-scraper/internal/images"
	"github.com/finchdev/ffe-scraper/internal/ratelimit"
	"github.com/finchdev/ffe-scraper/internal/scraper"
)

// One-shot scrape of a single product URL, record printed as JSON.
// Useful for testing vendor profiles without running the service.
func main() {
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline for the scrape")
	noImage := flag.Bool("no-image", false, "skip image materialization")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scrape [flags] <product-url>")
		os.Exit(2)
	}
	url := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	pool, err := browser.NewPool(&browser.Options{
		Headless:       cfg.Browser.Headless,
		PoolSize:       1,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start browser:", err)
		os.Exit(1)
	}
	defer pool.Close()

	limiter := ratelimit.NewDomainLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	pageFetcher := fetcher.New(pool, limiter, fetcher.Options{
		Timeout:     cfg.Scraper.FetchTimeout,
		SettleDelay: cfg.Scraper.SettleDelay,
		UserAgents:  cfg.Scraper.UserAgents,
	})

	var materializer scraper.Materializer
	if !*noImage {
		materializer = images.NewMaterializer(images.Options{
			DownloadTimeout: cfg.Images.DownloadTimeout,
			MinBytes:        cfg.Images.MinBytes,
			MinPixels:       cfg.Images.MinPixels,
			MaxDimension:    cfg.Images.MaxDimension,
			JPEGQuality:     cfg.Images.JPEGQuality,
		})
	}

	svc := scraper.NewService(pageFetcher, materializer, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	record, err := svc.Scrape(ctx, url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scrape failed:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode record:", err)
		os.Exit(1)
	}
}
