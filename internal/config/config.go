package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string
	RedisURL string // optional; empty disables the Redis queue and lock

	BlobDir       string
	ProvidersFile string
	LLMAPIKey     string

	// Pipeline tuning
	MaxRetries  int // automatic retries for transient failures
	WorkerCount int

	StallThreshold  time.Duration // processing runs older than this are flagged
	RunTimeout      time.Duration // per-document pipeline deadline
	CompressTimeout time.Duration // knowledge-base compression deadline

	LLMRequestsPerMinute int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017/briefbase"),
		RedisURL: getEnv("REDIS_URL", ""),

		BlobDir:       getEnv("BLOB_DIR", "./data/blobs"),
		ProvidersFile: getEnv("PROVIDERS_FILE", "./providers.json"),
		LLMAPIKey:     getEnv("LLM_API_KEY", ""),

		MaxRetries:  getIntEnv("PIPELINE_MAX_RETRIES", 1),
		WorkerCount: getIntEnv("PIPELINE_WORKERS", 4),

		StallThreshold:  getDurationEnv("STALL_THRESHOLD", 10*time.Minute),
		RunTimeout:      getDurationEnv("RUN_TIMEOUT", 10*time.Minute),
		CompressTimeout: getDurationEnv("COMPRESS_TIMEOUT", 4*time.Minute),

		LLMRequestsPerMinute: getIntEnv("LLM_REQUESTS_PER_MINUTE", 60),
	}
}

// Providers describes the LLM endpoint and the models used per stage.
type Providers struct {
	BaseURL          string `json:"baseUrl"`
	SummaryModel     string `json:"summaryModel"`
	IntentModel      string `json:"intentModel"`
	CompressionModel string `json:"compressionModel"`
}

// LoadProviders loads provider configuration from a JSON file
func LoadProviders(filePath string) (*Providers, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	var providers Providers
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("failed to parse providers JSON: %w", err)
	}
	if providers.BaseURL == "" {
		return nil, fmt.Errorf("providers file is missing baseUrl")
	}
	if providers.SummaryModel == "" {
		return nil, fmt.Errorf("providers file is missing summaryModel")
	}
	if providers.IntentModel == "" {
		providers.IntentModel = providers.SummaryModel
	}
	if providers.CompressionModel == "" {
		providers.CompressionModel = providers.SummaryModel
	}

	return &providers, nil
}

// ProviderRegistry holds the current provider config and supports atomic
// swaps when the providers file changes on disk.
type ProviderRegistry struct {
	current atomic.Pointer[Providers]
}

func NewProviderRegistry(p *Providers) *ProviderRegistry {
	r := &ProviderRegistry{}
	r.current.Store(p)
	return r
}

// Current returns the active provider config.
func (r *ProviderRegistry) Current() *Providers {
	return r.current.Load()
}

// Swap replaces the active provider config.
func (r *ProviderRegistry) Swap(p *Providers) {
	r.current.Store(p)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
