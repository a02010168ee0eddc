package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/storefront-reviews/pkg/config"
)

// Config holds all configuration for the storefront reviews service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEWS_HTTP_PORT" envDefault:"8007"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"REVIEWS_DB_NAME" envDefault:"storefront_reviews"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Review filtering defaults, applied when a request omits the parameter.
	// Zero means "unconstrained" for rating and character thresholds.
	DefaultMinRating float64 `env:"DEFAULT_MIN_RATING" envDefault:"0"`
	DefaultMinChars  int     `env:"DEFAULT_MIN_CHARS" envDefault:"0"`
	DefaultPageSize  int     `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
	DefaultStoreID   int64   `env:"DEFAULT_STORE_ID" envDefault:"1"`

	// Store rating aggregation
	RatingCacheTTLSeconds int `env:"RATING_CACHE_TTL_SECONDS" envDefault:"86400"`
	RatingMinReviews      int `env:"RATING_MIN_REVIEWS" envDefault:"1"`

	// Widget rendering hints
	SchemaOrgEnabled bool `env:"SCHEMA_ORG_ENABLED" envDefault:"true"`
	LazyLoadEnabled  bool `env:"LAZY_LOAD_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.PostgresHost == "" {
		return nil, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.PostgresUser == "" {
		return nil, fmt.Errorf("POSTGRES_USER is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.DefaultMinRating != 0 && (cfg.DefaultMinRating < 1.0 || cfg.DefaultMinRating > 5.0) {
		return nil, fmt.Errorf("DEFAULT_MIN_RATING must be 0 or between 1.0 and 5.0, got %g", cfg.DefaultMinRating)
	}
	if cfg.DefaultMinChars < 0 || cfg.DefaultMinChars > 10000 {
		return nil, fmt.Errorf("DEFAULT_MIN_CHARS must be between 0 and 10000, got %d", cfg.DefaultMinChars)
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 100 {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and 100, got %d", cfg.DefaultPageSize)
	}
	if cfg.DefaultStoreID < 0 {
		return nil, fmt.Errorf("DEFAULT_STORE_ID must not be negative, got %d", cfg.DefaultStoreID)
	}
	if cfg.RatingCacheTTLSeconds < 1 {
		return nil, fmt.Errorf("RATING_CACHE_TTL_SECONDS must be positive, got %d", cfg.RatingCacheTTLSeconds)
	}
	if cfg.RatingMinReviews < 1 {
		return nil, fmt.Errorf("RATING_MIN_REVIEWS must be at least 1, got %d", cfg.RatingMinReviews)
	}
	if cfg.OTELSampleRate < 0 || cfg.OTELSampleRate > 1.0 {
		return nil, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", cfg.OTELSampleRate)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// RatingCacheTTL returns the rating cache TTL as a duration.
func (c *Config) RatingCacheTTL() time.Duration {
	return time.Duration(c.RatingCacheTTLSeconds) * time.Second
}
