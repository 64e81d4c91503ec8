package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/checkout-core/pkg/config"
	"github.com/utafrali/checkout-core/pkg/database"
)

// Config holds all configuration for checkout-core.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server (health and metrics only)
	HTTPPort int `env:"HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"checkout"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"checkout_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"checkout"`
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

	// Shipping listing cache
	ShippingListingCacheTTLSeconds int `env:"SHIPPING_LISTING_CACHE_TTL_SECONDS" envDefault:"300"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Stripe
	StripeAPIURL       string `env:"STRIPE_API_URL" envDefault:"https://api.stripe.com"`
	StripeSecretAPIKey string `env:"STRIPE_SECRET_API_KEY"`
	StripePublicAPIKey string `env:"STRIPE_PUBLIC_API_KEY"`
	StripeAutoCapture  bool   `env:"STRIPE_AUTO_CAPTURE" envDefault:"true"`
	GatewayTimeoutSecs int    `env:"GATEWAY_TIMEOUT_SECONDS" envDefault:"30"`
	GatewayMaxRetries  int    `env:"GATEWAY_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker around the gateway
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load checkout-core config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.RedisPort < 1 || c.RedisPort > 65535 {
		return fmt.Errorf("invalid REDIS_PORT: %d", c.RedisPort)
	}
	if c.ShippingListingCacheTTLSeconds < 0 {
		return fmt.Errorf("SHIPPING_LISTING_CACHE_TTL_SECONDS must not be negative, got %d", c.ShippingListingCacheTTLSeconds)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	if c.GatewayTimeoutSecs < 1 {
		return fmt.Errorf("GATEWAY_TIMEOUT_SECONDS must be positive, got %d", c.GatewayTimeoutSecs)
	}
	if _, err := url.ParseRequestURI(c.StripeAPIURL); err != nil {
		return fmt.Errorf("invalid STRIPE_API_URL %q: %w", c.StripeAPIURL, err)
	}
	if c.StripeSecretAPIKey == "" && !c.IsDevelopment() {
		return fmt.Errorf("STRIPE_SECRET_API_KEY is required outside development")
	}
	return nil
}

// Postgres returns the PostgreSQL pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	cfg.Host = c.RedisHost
	cfg.Port = c.RedisPort
	cfg.Password = c.RedisPassword
	cfg.DB = c.RedisDB
	return cfg
}

// ShippingListingCacheTTL returns the shipping listing cache lifetime.
func (c *Config) ShippingListingCacheTTL() time.Duration {
	return time.Duration(c.ShippingListingCacheTTLSeconds) * time.Second
}
