package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/finchdev/ffe-scraper/internal/api"
	"github.com/finchdev/ffe-scraper/internal/browser"
	"github.com/finchdev/ffe-scraper/internal/cache"
	"github.com/finchdev/ffe-scraper/internal/config"
	"github.com/finchdev/ffe-scraper/internal/fetcher"
	"github.com/finchdev/ffe-scraper/internal/images"
	"github.com/finchdev/ffe-scraper/internal/queue"
	"github.com/finchdev/ffe-scraper/internal/ratelimit"
	"github.com/finchdev/ffe-scraper/internal/scraper"
	"github.com/finchdev/ffe-scraper/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence is optional; without a database the service still
	// scrapes, it just returns records without storage ids.
	var db *store.DB
	if os.Getenv("DB_DISABLED") != "true" {
		db, err = store.New(ctx, store.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	var recordCache *cache.RecordCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		recordCache = cache.New(redisClient, cfg.Redis.CacheTTL)
	}

	pool, err := browser.NewPool(&browser.Options{
		Headless:       cfg.Browser.Headless,
		PoolSize:       cfg.Browser.PoolSize,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
		ProxyServer:    cfg.Browser.ProxyServer,
	})
	if err != nil {
		logger.Error("failed to initialize browser pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	limiter := ratelimit.NewDomainLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	pageFetcher := fetcher.New(pool, limiter, fetcher.Options{
		Timeout:     cfg.Scraper.FetchTimeout,
		SettleDelay: cfg.Scraper.SettleDelay,
		UserAgents:  cfg.Scraper.UserAgents,
	})
	materializer := images.NewMaterializer(images.Options{
		DownloadTimeout: cfg.Images.DownloadTimeout,
		MinBytes:        cfg.Images.MinBytes,
		MinPixels:       cfg.Images.MinPixels,
		MaxDimension:    cfg.Images.MaxDimension,
		JPEGQuality:     cfg.Images.JPEGQuality,
	})

	svc := scraper.NewService(pageFetcher, materializer, logger)

	jobQueue := queue.NewInMemoryQueue()
	defer jobQueue.Close()

	workerPool := scraper.NewPool(svc, jobQueue, cfg.Scraper.ConcurrentLimit, cfg.Scraper.FetchTimeout+30*time.Second,
		func(ctx context.Context, res *scraper.Result) {
			if res.Err != nil || res.Record == nil {
				return
			}
			recordCache.Set(ctx, res.Record.SourceURL, res.Record)
			if db != nil {
				if _, err := db.SaveRecord(ctx, res.Record); err != nil {
					logger.Error("failed to persist record", "url", res.Record.SourceURL, "error", err)
				}
			}
		})
	workerPool.Start(ctx)

	handlers := api.NewHandlers(svc, workerPool, recordCache, db, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "ok",
			"queue_size":     jobQueue.Size(),
			"browser_slots":  pool.Available(),
			"persistence_on": db != nil,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scrape", handlers.Scrape)
		r.Post("/jobs", handlers.CreateJobs)
		r.Get("/jobs/{jobID}", handlers.GetJob)
		r.Get("/products", handlers.GetProductByURL)
		r.Get("/products/{productID}", handlers.GetProduct)
		r.Get("/stats", handlers.GetStats)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()
		jobQueue.Close()
		workerPool.Wait()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
