package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Storage     StorageConfig
	Catalog     CatalogConfig
	JWT         JWTConfig
	Pricing     PricingConfig
	Session     SessionConfig
	Kafka       KafkaConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

// StorageConfig selects the key-value backend. Driver is one of
// "memory", "sqlite", "postgres" or "dynamo".
type StorageConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	DynamoTable string
	AWSRegion   string
}

type CatalogConfig struct {
	Path string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type PricingConfig struct {
	FreeShippingThreshold float64
	StandardDeliveryFee   float64
}

type SessionConfig struct {
	PollInterval time.Duration
}

// KafkaConfig is optional. With no brokers the change feed is disabled
// and session changes are discovered by polling alone.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", "sqlite"),
			SQLitePath:  getEnv("SQLITE_PATH", "storefront.db"),
			PostgresDSN: getEnv("POSTGRES_DSN", ""),
			DynamoTable: getEnv("DYNAMO_TABLE", "storefront-state"),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", "data/catalog.json"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: getEnvAsFloat("FREE_SHIPPING_THRESHOLD", 2000),
			StandardDeliveryFee:   getEnvAsFloat("STANDARD_DELIVERY_FEE", 15),
		},
		Session: SessionConfig{
			PollInterval: getEnvAsDuration("SESSION_POLL_INTERVAL", 500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsSlice("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "storefront-changes"),
			GroupID: getEnv("KAFKA_GROUP_ID", "storefront"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "dynamo":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required with the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Pricing.StandardDeliveryFee < 0 || c.Pricing.FreeShippingThreshold < 0 {
		return fmt.Errorf("pricing values must not be negative")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
