package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backend identifiers accepted in STORE_BACKEND.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// ConfigError reports a missing or invalid required setting. The process
// must not start a run when one is raised.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Setting, e.Reason)
}

// Config is built once at process start and passed into each component.
// No component reads the environment after this point.
type Config struct {
	FeedURL string

	StoreBackend string
	Table        string

	// Supabase REST backend.
	SupabaseURL string
	SupabaseKey string

	// Direct Postgres backend.
	PostgresDSN string

	// Mongo backend.
	MongoURI      string
	MongoDatabase string

	FetchRetries  int
	FetchBackoff  time.Duration
	HTTPTimeout   time.Duration
	WriterWorkers int

	// ExtractContent turns on best-effort page extraction for entries whose
	// feed carries no body.
	ExtractContent bool
}

// NewConfig loads settings from .env (if present) and the environment, and
// validates everything the selected backend needs.
func NewConfig() (*Config, error) {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	c := &Config{
		FeedURL:        os.Getenv("RSS_FEED_URL"),
		StoreBackend:   getenvDefault("STORE_BACKEND", BackendSupabase),
		Table:          getenvDefault("STORE_TABLE", "rss_entries"),
		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_KEY"),
		PostgresDSN:    os.Getenv("DATABASE_URL"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getenvDefault("MONGO_DATABASE", "rss"),
		FetchRetries:   getenvInt("FETCH_RETRIES", 3),
		FetchBackoff:   getenvDuration("FETCH_BACKOFF", 5*time.Second),
		HTTPTimeout:    getenvDuration("HTTP_TIMEOUT", 10*time.Second),
		WriterWorkers:  getenvInt("WRITER_WORKERS", 1),
		ExtractContent: getenvBool("EXTRACT_CONTENT", false),
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.FeedURL == "" {
		return &ConfigError{Setting: "RSS_FEED_URL", Reason: "is required"}
	}

	switch c.StoreBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" {
			return &ConfigError{Setting: "SUPABASE_URL", Reason: "is required for the supabase backend"}
		}
		if c.SupabaseKey == "" {
			return &ConfigError{Setting: "SUPABASE_KEY", Reason: "is required for the supabase backend"}
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return &ConfigError{Setting: "DATABASE_URL", Reason: "is required for the postgres backend"}
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return &ConfigError{Setting: "MONGO_URI", Reason: "is required for the mongo backend"}
		}
	default:
		return &ConfigError{Setting: "STORE_BACKEND", Reason: fmt.Sprintf("unknown backend %q", c.StoreBackend)}
	}

	if c.FetchRetries < 1 {
		return &ConfigError{Setting: "FETCH_RETRIES", Reason: "must be at least 1"}
	}
	if c.WriterWorkers < 1 {
		return &ConfigError{Setting: "WRITER_WORKERS", Reason: "must be at least 1"}
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
