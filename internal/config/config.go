package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// CrawlConfig bundles the knobs for the discovery crawler.
type CrawlConfig struct {
	DataDir      string
	MaxPages     int
	PerHost      int
	FetchDelay   time.Duration
	FetchTimeout time.Duration
	// HardTimeout of zero means no hard deadline: the page cap and link
	// exhaustion are then the only terminators.
	HardTimeout time.Duration
	UserAgent   string
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL         string
	Port                string
	LogFile             string
	BatchDir            string
	GeodataURL          string
	Crawl               CrawlConfig
	MonitorPollInterval time.Duration
	RateLimitCrawlAPI   RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        getEnv("PORT", "8080"),
		LogFile:     getEnv("LOG_FILE", "discovery.log"),
		BatchDir:    getEnv("BATCH_DIR", "batches"),
		GeodataURL:  os.Getenv("GEODATA_URL"),
		Crawl: CrawlConfig{
			DataDir:      getEnv("CRAWL_DATA_DIR", "crawls"),
			MaxPages:     getEnvInt("CRAWL_MAX_PAGES", 50),
			PerHost:      getEnvInt("CRAWL_PER_HOST", 2),
			FetchDelay:   parseDuration(getEnv("CRAWL_FETCH_DELAY", "500ms"), 500*time.Millisecond),
			FetchTimeout: parseDuration(getEnv("CRAWL_FETCH_TIMEOUT", "15s"), 15*time.Second),
			UserAgent:    getEnv("CRAWL_USER_AGENT", "PlaatsgidsBot/1.0 (+https://plaatsgids.nl/bot)"),
		},
		MonitorPollInterval: parseDuration(getEnv("MONITOR_POLL_INTERVAL", "15s"), 15*time.Second),
	}

	hard, err := parseCrawlTimeout(getEnv("CRAWL_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRAWL_TIMEOUT value: %w", err)
	}
	cfg.Crawl.HardTimeout = hard

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_CRAWL", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_CRAWL value: %w", err)
	}
	cfg.RateLimitCrawlAPI = rl

	return cfg, nil
}

// parseCrawlTimeout accepts a duration, or the sentinels "none"/"off"/"0"
// meaning the crawl gets no hard deadline at all.
func parseCrawlTimeout(value string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "off", "0", "":
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("expected duration or \"none\", got %q", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative: %q", value)
	}
	return d, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}
