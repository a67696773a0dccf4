package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DBPath          string
	LogLevel        string
	AuthorityURL    string
	AuthorityToken  string
	FetchTimeout    time.Duration
	SyncTimeout     time.Duration
	SyncWorkerCount int
	SyncQueueSize   int
	ReviewBatchSize int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:            envOr("ADDR", ":8080"),
		DBPath:          envOr("DB_PATH", "file:studyflash.db"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		AuthorityURL:    strings.TrimRight(envOr("AUTHORITY_URL", ""), "/"),
		AuthorityToken:  os.Getenv("AUTHORITY_TOKEN"),
		FetchTimeout:    time.Duration(envIntOr("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		SyncTimeout:     time.Duration(envIntOr("SYNC_TIMEOUT_SECONDS", 5)) * time.Second,
		SyncWorkerCount: envIntOr("SYNC_WORKER_COUNT", 2),
		SyncQueueSize:   envIntOr("SYNC_QUEUE_SIZE", 128),
		ReviewBatchSize: envIntOr("REVIEW_BATCH_SIZE", 20),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if c.AuthorityURL == "" {
		errs = append(errs, errors.New("AUTHORITY_URL cannot be empty"))
	} else if u, err := url.Parse(c.AuthorityURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("AUTHORITY_URL must be an absolute URL, got %q", c.AuthorityURL))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("FETCH_TIMEOUT_SECONDS must be positive"))
	}
	if c.SyncTimeout <= 0 {
		errs = append(errs, errors.New("SYNC_TIMEOUT_SECONDS must be positive"))
	}
	if c.SyncWorkerCount < 1 {
		errs = append(errs, fmt.Errorf("SYNC_WORKER_COUNT must be at least 1, got %d", c.SyncWorkerCount))
	}
	if c.SyncQueueSize < 1 {
		errs = append(errs, fmt.Errorf("SYNC_QUEUE_SIZE must be at least 1, got %d", c.SyncQueueSize))
	}
	if c.ReviewBatchSize < 1 || c.ReviewBatchSize > 200 {
		errs = append(errs, fmt.Errorf("REVIEW_BATCH_SIZE must be between 1 and 200, got %d", c.ReviewBatchSize))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
