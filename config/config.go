package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/gpuwatcher/internal/scraper"
	"sjsage522/gpuwatcher/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Notification endpoint
	WebhookURL     string
	NotifyMinDelay time.Duration
	FooterLabel    string

	// Retailer
	BaseURL string
	Targets []scraper.SearchTarget

	// Scheduling and etiquette
	PollInterval      time.Duration
	TargetDelay       time.Duration
	FetchTimeout      time.Duration
	JitterMax         time.Duration
	MaxFetchWorkers   int
	RequestsPerMinute int

	// History store
	HistoryBackend string // file | redis | postgres
	HistoryFile    string
	RedisAddr      string
	RedisDB        int
	RedisStream    string
	PostgresDSN    string

	// Fetch block cache (memcache optional, in-memory fallback)
	MemcacheAddr string

	// Observability
	MetricsAddr string
	Debug       bool
	Environment string
}

// defaultTargets is the monitored list used when WATCH_TARGETS is not set.
var defaultTargets = []scraper.SearchTarget{
	{SKU: "RTX 3060", MaxPrice: 1700},
	{SKU: "RTX 4060", MaxPrice: 2500},
	{SKU: "RTX 4070", MaxPrice: 3000},
	{SKU: "GTX 1660", MaxPrice: 1100},
	{SKU: "GTX 1650", MaxPrice: 950},
	{SKU: "RX 6600", MaxPrice: 1300},
	{SKU: "RX 6700", MaxPrice: 1800},
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	pollInterval, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "300"))
	targetDelay, _ := strconv.Atoi(getEnv("TARGET_DELAY_SECONDS", "8"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	jitterMax, _ := strconv.Atoi(getEnv("JITTER_MAX_MS", "2500"))
	notifyDelay, _ := strconv.Atoi(getEnv("NOTIFY_MIN_DELAY_MS", "1200"))
	maxWorkers, _ := strconv.Atoi(getEnv("MAX_FETCH_WORKERS", "1"))
	reqPerMin, _ := strconv.Atoi(getEnv("REQUESTS_PER_MINUTE", "12"))

	return Config{
		WebhookURL:        os.Getenv("DISCORD_WEBHOOK_URL"),
		NotifyMinDelay:    time.Duration(notifyDelay) * time.Millisecond,
		FooterLabel:       getEnv("NOTIFY_FOOTER", "GPU Deal Watcher"),
		BaseURL:           getEnv("KABUM_BASE_URL", "https://www.kabum.com.br"),
		Targets:           parseTargets(os.Getenv("WATCH_TARGETS")),
		PollInterval:      time.Duration(pollInterval) * time.Second,
		TargetDelay:       time.Duration(targetDelay) * time.Second,
		FetchTimeout:      time.Duration(fetchTimeout) * time.Second,
		JitterMax:         time.Duration(jitterMax) * time.Millisecond,
		MaxFetchWorkers:   maxWorkers,
		RequestsPerMinute: reqPerMin,
		HistoryBackend:    getEnv("HISTORY_BACKEND", "file"),
		HistoryFile:       getEnv("HISTORY_FILE", "seen_offers.jsonl"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           redisDB,
		RedisStream:       getEnv("REDIS_STREAM", "gpuoffers"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		MemcacheAddr:      os.Getenv("MEMCACHE_ADDR"),
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
		Debug:             getEnv("DEBUG", "false") == "true",
		Environment:       getEnv("GPUWATCHER_ENVIRONMENT", "development"),
	}
}

// parseTargets parses a "SKU=maxprice" comma-separated list, e.g.
// "RTX 4060=2500,RX 6600=1300". Malformed entries are skipped.
func parseTargets(s string) []scraper.SearchTarget {
	if strings.TrimSpace(s) == "" {
		targets := make([]scraper.SearchTarget, len(defaultTargets))
		copy(targets, defaultTargets)
		return targets
	}

	var targets []scraper.SearchTarget
	for _, entry := range strings.Split(s, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		sku := strings.TrimSpace(parts[0])
		maxPrice, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || sku == "" || maxPrice <= 0 {
			continue
		}
		targets = append(targets, scraper.SearchTarget{SKU: sku, MaxPrice: maxPrice})
	}
	return targets
}

// Validate checks the configuration for fatal errors. The process must abort
// before any fetch is attempted when this fails.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return errors.NewConfiguration("DISCORD_WEBHOOK_URL is required", nil)
	}
	if len(c.Targets) == 0 {
		return errors.NewConfiguration("no search targets configured", nil)
	}
	switch c.HistoryBackend {
	case "file", "redis":
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.NewConfiguration("POSTGRES_DSN is required for the postgres history backend", nil)
		}
	default:
		return errors.NewConfiguration(fmt.Sprintf("unknown history backend %q", c.HistoryBackend), nil)
	}
	if c.MaxFetchWorkers < 1 {
		return errors.NewConfiguration("MAX_FETCH_WORKERS must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
