package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"sjsage522/gpuwatcher/config"
	"sjsage522/gpuwatcher/internal/scraper"
	"sjsage522/gpuwatcher/logger"
	"sjsage522/gpuwatcher/services/cache"
	"sjsage522/gpuwatcher/services/history"
	"sjsage522/gpuwatcher/services/metrics"
	"sjsage522/gpuwatcher/services/notifier"
	"sjsage522/gpuwatcher/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration; a bad config aborts before any fetch
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Bool("debug", cfg.Debug).
		Dur("poll_interval", cfg.PollInterval).
		Int("targets", len(cfg.Targets)).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(&cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	if cfg.MetricsAddr != "" {
		go metrics.Expose(cfg.MetricsAddr)
	}

	// Build the extraction pipeline
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	fetcher, err := scraper.NewFetcher(scraper.FetcherConfig{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.FetchTimeout,
		JitterMax: cfg.JitterMax,
		Warmup:    true,
		CacheKey:  "kabum_rate_limited",
	}, services.Cache, limiter, logger.ForComponent("fetcher"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create fetcher")
	}

	extractor, err := scraper.NewFieldExtractor(cfg.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create field extractor")
	}

	pipeline := scraper.NewPipeline(
		fetcher,
		scraper.NewLocator(logger.ForComponent("locator")),
		extractor,
		scraper.NewDeduplicator(services.History),
		services.Notifier,
	)

	// Create and start worker
	w := worker.NewWorker(pipeline, cfg.Targets, cfg.PollInterval, cfg.TargetDelay, cfg.MaxFetchWorkers)

	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting GPU offer watcher")
		workerDone <- w.Start(ctx)
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache    cache.CacheService
	History  history.Store
	Notifier notifier.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.History != nil {
		s.History.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Block cache: memcached when configured, in-memory otherwise
	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Default.Info().Str("addr", cfg.MemcacheAddr).Msg("Using memcached block cache")
	} else {
		services.Cache = cache.NewMemoryService()
	}

	// History store
	switch cfg.HistoryBackend {
	case "file":
		store, err := history.NewFileStore(cfg.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open history file: %w", err)
		}
		services.History = store
		logger.Default.Info().Str("path", cfg.HistoryFile).Msg("Using file history store")
	case "redis":
		services.History = history.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		logger.Default.Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Str("stream", cfg.RedisStream).
			Msg("Using Redis history store")
	case "postgres":
		store, err := history.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres history store: %w", err)
		}
		services.History = store
		logger.Default.Info().Msg("Using Postgres history store")
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}

	services.Notifier = notifier.NewDiscordNotifier(cfg.WebhookURL, cfg.FooterLabel, cfg.NotifyMinDelay)

	return services, nil
}
