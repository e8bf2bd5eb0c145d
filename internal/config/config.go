package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ServiceName    = "go-warehouse-ws"
	ServiceVersion = "1.0.0"
)

// FulfillmentMode selects how ProcessOrder commits its writes.
type FulfillmentMode string

const (
	// FulfillmentSequential commits every stock adjustment on its own and never
	// rolls back earlier line items.
	FulfillmentSequential FulfillmentMode = "sequential"
	// FulfillmentStrict runs the whole fulfillment in one transaction and only
	// accepts pending or processing orders.
	FulfillmentStrict FulfillmentMode = "strict"
)

type Config struct {
	Port   string
	AppEnv string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBTimeZone  string

	JWTSecret string
	JWTTTL    time.Duration

	FulfillmentMode    FulfillmentMode
	AllowNegativeStock bool

	KafkaBroker string
	KafkaTopic  string

	OtelEndpoint   string
	OtelAuthHeader string

	// EnvFileLoaded is false when Load found no .env file to read.
	EnvFileLoaded bool
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DSN returns DATABASE_URL or a key/value DSN assembled from the DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}

// Load reads the given env files (.env when none are named) and then the
// process environment. A missing file is not an error; check EnvFileLoaded.
func Load(files ...string) (*Config, error) {
	loadErr := godotenv.Load(files...)

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loadErr == nil
	return cfg, nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getEnv("DB_NAME", "warehouse"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBTimeZone:     getEnv("DB_TIMEZONE", "UTC"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "warehouse-events"),
		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL %q", os.Getenv("JWT_TTL"))
	}
	cfg.JWTTTL = ttl

	mode := FulfillmentMode(strings.ToLower(getEnv("FULFILLMENT_MODE", string(FulfillmentSequential))))
	switch mode {
	case FulfillmentSequential, FulfillmentStrict:
		cfg.FulfillmentMode = mode
	default:
		return nil, fmt.Errorf("invalid FULFILLMENT_MODE %q, use %q or %q", mode, FulfillmentSequential, FulfillmentStrict)
	}

	allow, err := strconv.ParseBool(getEnv("ALLOW_NEGATIVE_STOCK", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOW_NEGATIVE_STOCK: %w", err)
	}
	cfg.AllowNegativeStock = allow

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET environment variable is required in production")
		}
		cfg.JWTSecret = "your-super-secret-key-change-in-production"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
