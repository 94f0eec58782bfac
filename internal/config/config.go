// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort           string
	RequestTimeout     time.Duration
	ProductListTimeout time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	DiscountRate float64

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	Postgres PostgresConfig

	CatalogDBPath         string
	CatalogMigrationsPath string

	KafkaBrokers []string
	OrdersTopic  string

	OTPBaseURL      string
	PaymentBaseURL  string
	PaymentAPIKey   string
	OutboundTimeout time.Duration
}

type PostgresConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	MigrationsPath string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		MaxRequestBodySize: 1 << 20, // 1MB

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "cartdb"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		Postgres: PostgresConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "ecommerce"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/orders/repository/migrations"),
		},

		CatalogDBPath:         getEnv("CATALOG_DB_PATH", "./catalog.db"),
		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/repository/migrations"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		OrdersTopic:  getEnv("ORDERS_TOPIC", "order-events"),

		OTPBaseURL:     getEnv("OTP_BASE_URL", "http://localhost:9001"),
		PaymentBaseURL: getEnv("PAYMENT_BASE_URL", "http://localhost:9002"),
		PaymentAPIKey:  getEnv("PAYMENT_API_KEY", ""),
	}

	var err error
	if cfg.Postgres.Port, err = strconv.Atoi(getEnv("DB_PORT", "5432")); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	if cfg.DiscountRate, err = strconv.ParseFloat(getEnv("DISCOUNT_RATE", "0.30"), 64); err != nil {
		return nil, fmt.Errorf("invalid DISCOUNT_RATE: %w", err)
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProductListTimeout, err = getDuration("PRODUCT_LIST_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OutboundTimeout, err = getDuration("OUTBOUND_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
