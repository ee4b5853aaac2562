package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"preventa-backend/internal/domain"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string
	// Shopify Admin API
	ShopifyURL        string // shop domain (tienda.myshopify.com) or full base URL
	ShopifyAPIToken   string
	ShopifyAPIVersion string
	ShopifyTimeout    time.Duration
	// Rate Schedule
	RateTablePath     string
	RateTableBucket   string // optional: read the schedule from R2 instead of disk
	RateTableKey      string
	RateTableCacheTTL time.Duration // 0 reloads the schedule on every lookup
	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Timeout         time.Duration
	// Business Rules
	PreSalePolicy  domain.PreSalePolicy
	EligibilityTag string
	CurrencyCode   string
	// Inbound Rate Limit
	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	return cfg
}

// FromEnv reads the configuration from the process environment.
func FromEnv() *Config {
	return &Config{
		Port:     getEnv("PORT", "10000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ShopifyURL:        getEnv("SHOPIFY_URL", ""),
		ShopifyAPIToken:   getEnv("SHOPIFY_API_TOKEN", ""),
		ShopifyAPIVersion: getEnv("SHOPIFY_API_VERSION", "2023-10"),
		ShopifyTimeout:    getDurationEnv("SHOPIFY_TIMEOUT", 10*time.Second),

		RateTablePath:     getEnv("RATE_TABLE_PATH", "envios_pendientes - Hoja 1.csv"),
		RateTableBucket:   getEnv("RATE_TABLE_BUCKET", ""),
		RateTableKey:      getEnv("RATE_TABLE_KEY", "envios_pendientes.csv"),
		RateTableCacheTTL: getDurationEnv("RATE_TABLE_CACHE_TTL", 0),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2Timeout:         getDurationEnv("R2_TIMEOUT", 10*time.Second),

		PreSalePolicy:  domain.PreSalePolicy(getEnv("PRESALE_POLICY", string(domain.PreSaleContainsAny))),
		EligibilityTag: getEnv("ELIGIBILITY_TAG", domain.EligibilityTag),
		CurrencyCode:   getEnv("CURRENCY_CODE", "MXN"),

		// 20 req/s, burst 40 per client IP
		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 40),
	}
}

func (c *Config) Validate() error {
	if c.ShopifyURL == "" {
		return fmt.Errorf("SHOPIFY_URL environment variable is required")
	}
	if c.ShopifyAPIToken == "" {
		return fmt.Errorf("SHOPIFY_API_TOKEN environment variable is required")
	}
	if !c.PreSalePolicy.Valid() {
		return fmt.Errorf("unknown PRESALE_POLICY %q (want %q or %q)", c.PreSalePolicy, domain.PreSaleContainsAny, domain.PreSaleFirstExact)
	}
	if c.RateTableBucket == "" && c.RateTablePath == "" {
		return fmt.Errorf("either RATE_TABLE_PATH or RATE_TABLE_BUCKET is required")
	}
	if c.RateTableBucket != "" && (c.R2AccountID == "" || c.R2AccessKeyID == "" || c.R2AccessKeySecret == "") {
		return fmt.Errorf("RATE_TABLE_BUCKET requires R2_ACCOUNT_ID, R2_ACCESS_KEY_ID and R2_ACCESS_KEY_SECRET")
	}
	if c.EligibilityTag == "" {
		log.Println("WARNING: ELIGIBILITY_TAG is empty, no product will be counted as pending.")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
