package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Redis configuration (odds snapshot cache)
	RedisAddr string

	// Odds feed configuration
	OddsAPIKey     string
	OddsAPIBaseURL string
	FeedTimeout    time.Duration
	SnapshotTTL    time.Duration

	// Settlement configuration
	SettlementInterval time.Duration
	SyncInterval       time.Duration

	// Payout policy. The user bonus is a flat per-point credit scaled by the
	// won outcome's price magnitude; the consolation credit is a flat amount
	// returned to the buyer of a losing pick.
	UserBonusPerPoint float64
	ConsolationCredit int64

	// Kafka configuration (settlement event forwarding, optional)
	KafkaBrokers string
	KafkaTopic   string

	// Metrics
	MetricsPort string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		OddsAPIKey:     os.Getenv("ODDS_API_KEY"),
		OddsAPIBaseURL: os.Getenv("ODDS_API_BASE_URL"),
		FeedTimeout:    15 * time.Second,
		SnapshotTTL:    60 * time.Second,

		SettlementInterval: 5 * time.Minute,
		SyncInterval:       30 * time.Minute,

		UserBonusPerPoint: 0.5,
		ConsolationCredit: 10,

		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   os.Getenv("KAFKA_TOPIC"),

		MetricsPort: os.Getenv("METRICS_PORT"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.OddsAPIBaseURL == "" {
		config.OddsAPIBaseURL = "https://api.the-odds-api.com"
	}
	if config.RedisAddr == "" {
		config.RedisAddr = "localhost:6379"
	}
	if config.KafkaTopic == "" {
		config.KafkaTopic = "pick.settlements"
	}
	if config.MetricsPort == "" {
		config.MetricsPort = "9090"
	}

	// Override defaults if environment variables are set
	if interval := os.Getenv("SETTLEMENT_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.SettlementInterval = d
		}
	}
	if interval := os.Getenv("SYNC_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.SyncInterval = d
		}
	}
	if ttl := os.Getenv("SNAPSHOT_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.SnapshotTTL = d
		}
	}
	if timeout := os.Getenv("FEED_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.FeedTimeout = d
		}
	}
	if bonus := os.Getenv("USER_BONUS_PER_POINT"); bonus != "" {
		if parsed, err := strconv.ParseFloat(bonus, 64); err == nil {
			config.UserBonusPerPoint = parsed
		}
	}
	if credit := os.Getenv("CONSOLATION_CREDIT"); credit != "" {
		if parsed, err := strconv.ParseInt(credit, 10, 64); err == nil {
			config.ConsolationCredit = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.OddsAPIKey == "" {
			return nil, fmt.Errorf("ODDS_API_KEY is required")
		}
	}

	return config, nil
}
