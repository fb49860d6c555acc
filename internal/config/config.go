// Package config loads every pipeline tunable from the environment at
// boot, following the teacher's requireEnv/getEnvOrDefault style rather
// than a config file. All of §4.5 (queue concurrencies), §4.1/§5
// (provider timeouts), §4.2 (cache TTLs) and §4.8 (confidence weights)
// are parameters here, not hard-coded constants, per the spec's framing
// of thresholds as configurable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// QueueConcurrency holds the per-queue worker pool size defaults of §4.5.
type QueueConcurrency struct {
	DocLookup          int
	Normalization      int
	Geocoding          int
	Places             int
	Analysis           int
	DuplicateDetection int
	Analyst            int
}

// ProviderTimeouts holds the per-external-call deadlines of §5.
type ProviderTimeouts struct {
	TaxRegistry time.Duration
	CPFRegistry time.Duration
	Geocoder    time.Duration
	Places      time.Duration
	LLMText     time.Duration
	LLMVision   time.Duration
}

// CacheTTLs holds the per-namespace TTL defaults of §4.2.
type CacheTTLs struct {
	TaxRegistry    time.Duration
	CPF            time.Duration
	Places         time.Duration
	PhotoAnalysis  time.Duration
}

// ConfidenceWeights holds the weighted-average weights of §4.8. Treated
// as an Open Question resolved to "configurable, defaults as specified"
// (see DESIGN.md).
type ConfidenceWeights struct {
	Normalization  float64
	Geocoding      float64
	PlaceCross     float64
	VisualAnalysis float64
	NomeFantasia   float64
	Document       float64
}

// Config is the fully resolved, validated configuration passed down as
// part of Deps (spec §9 — explicit context instead of global singletons).
type Config struct {
	Port               string
	GinMode             string
	AllowedOrigins      string
	APIAuthToken        string
	JWTSecret           string
	JWTRefreshWindow    time.Duration

	DatabaseURL string
	RedisURL    string

	PhotoStorageDir string

	VisionModelPrimary   string
	VisionModelSecondary string

	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleMapsAPIKey string

	LogLevel  string
	LogFormat string

	Queue      QueueConcurrency
	Timeouts   ProviderTimeouts
	CacheTTLs  CacheTTLs
	Weights    ConfidenceWeights

	ResetStuckDefaultMinutes int
	CPFRateLimitPerMinute    int
	MaxScanBatchSize         int
}

// requireEnv reads a required environment variable and returns an error
// (instead of exiting the process outright, unlike the teacher's CLI
// bootstrap) so HTTP-only read paths can still start in degraded mode.
func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return v, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// Load resolves a Config from the process environment. Missing
// credentials for optional providers (geocoder B, fallback CPF
// endpoint, ...) are not fatal here: providers degrade individually at
// call time per ConfigMissing in the error taxonomy (§7).
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		AllowedOrigins:  os.Getenv("ALLOWED_ORIGINS"),
		APIAuthToken:    os.Getenv("API_AUTH_TOKEN"),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
		JWTRefreshWindow: getDurationOrDefault("JWT_REFRESH_WINDOW", 7*24*time.Hour),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		PhotoStorageDir: getEnvOrDefault("PHOTO_STORAGE_DIR", "./data/photos"),

		VisionModelPrimary:   getEnvOrDefault("CLAUDE_VISION_MODEL", "claude-haiku"),
		VisionModelSecondary: getEnvOrDefault("CLAUDE_VISION_MODEL_SECONDARY", "claude-sonnet"),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: os.Getenv("LOG_FORMAT"),

		Queue: QueueConcurrency{
			DocLookup:          getIntOrDefault("QUEUE_CONCURRENCY_DOC_LOOKUP", 5),
			Normalization:      getIntOrDefault("QUEUE_CONCURRENCY_NORMALIZATION", 5),
			Geocoding:          getIntOrDefault("QUEUE_CONCURRENCY_GEOCODING", 3),
			Places:             getIntOrDefault("QUEUE_CONCURRENCY_PLACES", 3),
			Analysis:           getIntOrDefault("QUEUE_CONCURRENCY_ANALYSIS", 1),
			DuplicateDetection: getIntOrDefault("QUEUE_CONCURRENCY_DUPLICATE_DETECTION", 2),
			Analyst:            getIntOrDefault("QUEUE_CONCURRENCY_ANALYST", 2),
		},

		Timeouts: ProviderTimeouts{
			TaxRegistry: getDurationOrDefault("TIMEOUT_TAX_REGISTRY", 30*time.Second),
			CPFRegistry: getDurationOrDefault("TIMEOUT_CPF_REGISTRY", 15*time.Second),
			Geocoder:    getDurationOrDefault("TIMEOUT_GEOCODER", 30*time.Second),
			Places:      getDurationOrDefault("TIMEOUT_PLACES", 30*time.Second),
			LLMText:     getDurationOrDefault("TIMEOUT_LLM_TEXT", 60*time.Second),
			LLMVision:   getDurationOrDefault("TIMEOUT_LLM_VISION", 120*time.Second),
		},

		CacheTTLs: CacheTTLs{
			TaxRegistry:   getDurationOrDefault("CACHE_TTL_TAX_REGISTRY", 30*24*time.Hour),
			CPF:           getDurationOrDefault("CACHE_TTL_CPF", 7*24*time.Hour),
			Places:        getDurationOrDefault("CACHE_TTL_PLACES", 30*24*time.Hour),
			PhotoAnalysis: getDurationOrDefault("CACHE_TTL_PHOTO_ANALYSIS", 30*24*time.Hour),
		},

		Weights: ConfidenceWeights{
			Normalization:  getFloatOrDefault("CONFIDENCE_WEIGHT_NORMALIZATION", 0.15),
			Geocoding:      getFloatOrDefault("CONFIDENCE_WEIGHT_GEOCODING", 0.25),
			PlaceCross:     getFloatOrDefault("CONFIDENCE_WEIGHT_PLACE_CROSS", 0.25),
			VisualAnalysis: getFloatOrDefault("CONFIDENCE_WEIGHT_VISUAL_ANALYSIS", 0.15),
			NomeFantasia:   getFloatOrDefault("CONFIDENCE_WEIGHT_NOME_FANTASIA", 0.10),
			Document:       getFloatOrDefault("CONFIDENCE_WEIGHT_DOCUMENT", 0.10),
		},

		ResetStuckDefaultMinutes: getIntOrDefault("RESET_STUCK_DEFAULT_MINUTES", 30),
		CPFRateLimitPerMinute:    getIntOrDefault("CPF_RATE_LIMIT_PER_MINUTE", 3),
		MaxScanBatchSize:         getIntOrDefault("MAX_SCAN_BATCH_SIZE", 50_000),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required to sign auth tokens")
	}

	return cfg, nil
}
