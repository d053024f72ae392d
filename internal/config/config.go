package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Long polling
	LongPoll    bool
	WaitTimeout time.Duration

	// Aliases maps public recipient names to canonical inbox names.
	Aliases map[string]string

	// Size guard
	CheckSize bool
	MaxSize   int64

	MaxBodySize int64
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// It panics on malformed values.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "80"),
		Env:         getEnv("ENV", "development"),
		LongPoll:    getBool("USE_MULTITHREADING", getBool("LONG_POLL", true)),
		WaitTimeout: getSeconds("WAIT_TIMEOUT", 28),
		CheckSize:   getBool("CHECK_SIZE", false),
		MaxSize:     getInt("MAX_SIZE", 150*1024*1024),
		MaxBodySize: getInt("MAX_BODY_SIZE", 1024*1024),
		Aliases:     map[string]string{},
	}

	if raw := os.Getenv("MAGIC_RECIPIENTS"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.Aliases); err != nil {
			panic(fmt.Sprintf("MAGIC_RECIPIENTS must be a JSON object of strings: %v", err))
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBool accepts integer flags ("0", "1") as well as "true"/"false".
func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n != 0
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		panic(fmt.Sprintf("%s must be a boolean or integer, got %q", key, value))
	}
	return b
}

func getInt(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return n
}

// getSeconds parses a possibly fractional number of seconds.
func getSeconds(key string, defaultValue float64) time.Duration {
	seconds := defaultValue
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			panic(fmt.Sprintf("%s must be a non-negative number of seconds, got %q", key, value))
		}
		seconds = f
	}
	return time.Duration(seconds * float64(time.Second))
}
