// Package config reads the storefront settings from the environment. A .env file in the
// working directory is loaded first when present; real environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/uwenvati/omotailor/internal/orders"
	"github.com/uwenvati/omotailor/internal/pricing"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"

	OrdersStorage  = "storage"
	OrdersPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	HTTPPort        string
	LogLevel        string
	Development     bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisTTL       time.Duration
	MongoURI       string
	MongoDBName    string
	MongoTTL       time.Duration

	OrdersBackend string
	Postgres      orders.Credentials

	KafkaBrokers []string

	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration

	Policy     pricing.Policy
	PromoCodes map[string]decimal.Decimal
}

// Load builds a Config from the environment, loading envFiles (or ".env") first.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "omotailor"),
		OrdersBackend:  strings.ToLower(getEnv("ORDERS_BACKEND", OrdersStorage)),
		Postgres: orders.Credentials{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "omotailor"),
		},
	}

	var err error
	if cfg.Development, err = getEnvBool("DEVELOPMENT", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = getEnvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedisTTL, err = getEnvDuration("REDIS_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MongoTTL, err = getEnvDuration("MONGO_TTL", 90*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	cfg.Policy = pricing.DefaultPolicy()
	if cfg.Policy.FreeShippingThreshold, err = getEnvDecimal("FREE_SHIPPING_THRESHOLD", cfg.Policy.FreeShippingThreshold); err != nil {
		return nil, err
	}
	if cfg.Policy.FlatShippingRate, err = getEnvDecimal("FLAT_SHIPPING_RATE", cfg.Policy.FlatShippingRate); err != nil {
		return nil, err
	}

	if raw := getEnv("PROMO_CODES", ""); raw != "" {
		if cfg.PromoCodes, err = pricing.ParsePromoCodes(raw); err != nil {
			return nil, fmt.Errorf("%w: PROMO_CODES: %v", ErrInvalidConfig, err)
		}
		if _, err := pricing.NewPromoTable(cfg.PromoCodes); err != nil {
			return nil, fmt.Errorf("%w: PROMO_CODES: %v", ErrInvalidConfig, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Promos returns the configured promo table, or the built-in one when none is set.
func (c *Config) Promos() (*pricing.PromoTable, error) {
	if len(c.PromoCodes) == 0 {
		return pricing.DefaultPromoTable(), nil
	}
	return pricing.NewPromoTable(c.PromoCodes)
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageRedis, StorageMongo:
	default:
		return fmt.Errorf("%w: unknown STORAGE_BACKEND %q", ErrInvalidConfig, c.StorageBackend)
	}
	switch c.OrdersBackend {
	case OrdersStorage, OrdersPostgres:
	default:
		return fmt.Errorf("%w: unknown ORDERS_BACKEND %q", ErrInvalidConfig, c.OrdersBackend)
	}
	if c.SessionIdleTTL <= 0 || c.SessionSweepInterval <= 0 {
		return fmt.Errorf("%w: session durations must be positive", ErrInvalidConfig)
	}
	if c.Policy.FreeShippingThreshold.IsNegative() || c.Policy.FlatShippingRate.IsNegative() {
		return fmt.Errorf("%w: shipping amounts must not be negative", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}
