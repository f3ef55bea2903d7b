package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/duartefn/worten-price-scraper/internal/browser"
	"github.com/duartefn/worten-price-scraper/internal/config"
	"github.com/duartefn/worten-price-scraper/internal/database"
	"github.com/duartefn/worten-price-scraper/internal/events"
	"github.com/duartefn/worten-price-scraper/internal/fetch"
	"github.com/duartefn/worten-price-scraper/internal/jobs"
	"github.com/duartefn/worten-price-scraper/internal/ratelimit"
	"github.com/duartefn/worten-price-scraper/internal/spreadsheet"
	"github.com/duartefn/worten-price-scraper/internal/worten"

	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		importOnly = flag.Bool("import-only", false, "Import the input spreadsheet and exit")
		scrapeOnly = flag.Bool("scrape-only", false, "Skip the import step and scrape what is stored")
		limit      = flag.Int("limit", 0, "Maximum number of products to scrape (0 = all)")
		delay      = flag.Duration("delay", 0, "Pause between products (overrides config)")
		headless   = flag.Bool("headless", false, "Run the browser headless")
		static     = flag.Bool("static", false, "Fetch over plain HTTP instead of a browser")
	)
	flag.Parse()

	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		MaxConns: 5,
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

	if !*scrapeOnly {
		if err := importProducts(ctx, db, cfg.Spreadsheet.InputPath, logger); err != nil {
			logger.Error("import failed", "error", err)
			os.Exit(1)
		}
		if *importOnly {
			return
		}
	}

	fetcher, err := buildFetcher(cfg, *static, *headless, logger)
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}
	defer fetcher.Close()

	searcher := worten.NewSearcher(fetcher, logger, worten.WithTermDelay(cfg.Scraper.TermDelay))

	runnerOpts := []jobs.RunnerOption{
		jobs.WithRateLimiter(ratelimit.NewAdaptiveRateLimiter(
			cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)),
	}
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		runnerOpts = append(runnerOpts, jobs.WithPublisher(events.NewPublisher(redisClient, logger)))
	}

	products, err := db.List(ctx)
	if err != nil {
		logger.Error("failed to load products", "error", err)
		os.Exit(1)
	}

	batchLimit := *limit
	if batchLimit == 0 {
		batchLimit = cfg.Scraper.BatchLimit
	}

	runner := jobs.NewRunner(db, searcher, logger, runnerOpts...)
	summary := runner.Run(ctx, products, batchLimit, *delay)

	if err := exportProducts(ctx, db, cfg.Spreadsheet.OutputPath, logger); err != nil {
		logger.Error("export failed", "error", err)
	}

	fmt.Printf("Scraped: %d  Found: %d  Not found: %d  Errors: %d\n",
		summary.Scraped, summary.Found, summary.NotFound, summary.Errors)
}

func buildFetcher(cfg *config.Config, static, headless bool, logger *slog.Logger) (fetch.Fetcher, error) {
	if static || cfg.Scraper.StaticMode {
		return fetch.NewStaticFetcher(worten.SearchURL, cfg.Browser.Timeout), nil
	}

	b, err := browser.New(&browser.Options{
		Headless:       headless || cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		return nil, err
	}

	return fetch.NewBrowserFetcher(b, worten.BaseURL, worten.SearchURL, logger), nil
}

func importProducts(ctx context.Context, db *database.DB, path string, logger *slog.Logger) error {
	products, err := spreadsheet.ReadProducts(path)
	if err != nil {
		return err
	}

	imported, err := db.ImportProducts(ctx, products)
	if err != nil {
		return err
	}

	logger.Info("import finished", "rows", len(products), "imported", imported)
	return nil
}

func exportProducts(ctx context.Context, db *database.DB, path string, logger *slog.Logger) error {
	products, err := db.List(ctx)
	if err != nil {
		return err
	}

	written, err := spreadsheet.WriteProducts(path, products)
	if err != nil {
		return err
	}

	logger.Info("export finished", "path", written, "products", len(products))
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
