package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/warp/fiscal-trends/fiscal"
	"github.com/warp/fiscal-trends/loader"
	"github.com/warp/fiscal-trends/logger"
)

type Config struct {
	// HTTP Server
	Port           int
	AllowedOrigins []string

	// Loading
	DateOrder     string // day_first | month_first
	OnInvalidRows string // skip | reject
	SampleOnStart bool

	// Rollup cache entries kept per process
	CacheSize int

	// SQLite export target; empty disables POST /api/export
	ExportDB string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnvInt("PORT", 8080),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),

		DateOrder:     getEnv("DATE_ORDER", "day_first"),
		OnInvalidRows: getEnv("ON_INVALID_ROWS", "skip"),
		SampleOnStart: getEnvBool("SAMPLE_ON_START", true),

		CacheSize: getEnvInt("CACHE_SIZE", 128),
		ExportDB:  getEnv("EXPORT_DB", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if _, err := fiscal.ParseDateOrder(c.DateOrder); err != nil {
		errs = append(errs, fmt.Sprintf("invalid DATE_ORDER: %v", err))
	}
	if _, err := loader.ParsePolicy(c.OnInvalidRows); err != nil {
		errs = append(errs, fmt.Sprintf("invalid ON_INVALID_ROWS: %v", err))
	}
	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be positive", c.CacheSize))
	}
	switch logger.Format(c.LogFormat) {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be console or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoaderOptions converts the loading settings. Call Validate first.
func (c *Config) LoaderOptions() loader.Options {
	order, _ := fiscal.ParseDateOrder(c.DateOrder)
	policy, _ := loader.ParsePolicy(c.OnInvalidRows)
	return loader.Options{Order: order, Policy: policy}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
