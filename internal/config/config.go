// Package config loads pipeline settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the pipeline reads. Values come from the
// environment, with an optional .env file loaded first.
type Config struct {
	RedisAddr  string
	BadgerPath string
	HTTPAddr   string

	OpenAIKey   string
	OpenAIBase  string
	OpenAIModel string

	// AIFirst controls cascade ordering: when true and a key is present the
	// AI extractor runs before the heuristic one.
	AIFirst bool

	FetchTimeout    time.Duration
	RequestDelay    time.Duration
	ListingDelay    time.Duration
	RecencyWindow   time.Duration
	MaxPageFetches  int
	MaxArticles     int
	DiscoveryQuota  int
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RedisAddr:      getEnv("SECFEED_REDIS_ADDR", "localhost:6379"),
		BadgerPath:     getEnv("SECFEED_BADGER_PATH", "./badger-data"),
		HTTPAddr:       getEnv("SECFEED_HTTP_ADDR", ":8080"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBase:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AIFirst:        getBool("SECFEED_AI_FIRST", true),
		FetchTimeout:   getDuration("SECFEED_FETCH_TIMEOUT", 30*time.Second),
		RequestDelay:   getDuration("SECFEED_REQUEST_DELAY", 1200*time.Millisecond),
		ListingDelay:   getDuration("SECFEED_LISTING_DELAY", time.Second),
		RecencyWindow:  getDuration("SECFEED_RECENCY_WINDOW", 6*30*24*time.Hour),
		MaxPageFetches: getInt("SECFEED_MAX_PAGE_FETCHES", 40),
		MaxArticles:    getInt("SECFEED_MAX_ARTICLES", 30),
		DiscoveryQuota: getInt("SECFEED_DISCOVERY_QUOTA", 30),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
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

func getInt(key string, fallback int) int {
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

func getDuration(key string, fallback time.Duration) time.Duration {
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
