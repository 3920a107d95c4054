package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int           // Max requests per minute for all API endpoints
	GlobalAPIExpiration time.Duration // Expiration window

	// Upload limits (per IP) - blob writes plus a pipeline run per document
	UploadMax        int
	UploadExpiration time.Duration

	// Compression limits (per IP) - one long synchronous LLM call each
	CompressMax        int
	CompressExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 300/min = 5 req/sec - generous enough for status polling
		GlobalAPIMax:        300,
		GlobalAPIExpiration: 1 * time.Minute,

		// Uploads: 30/min per IP
		UploadMax:        30,
		UploadExpiration: 1 * time.Minute,

		// Compression: 5/min per IP (expensive LLM operation)
		CompressMax:        5,
		CompressExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	// Allow environment overrides for tuning
	if v := os.Getenv("RATE_LIMIT_GLOBAL_API"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalAPIMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_UPLOAD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.UploadMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_COMPRESS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.CompressMax = n
		}
	}

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.UploadMax = 200
		config.CompressMax = 50
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
// This is the first line of defense against DDoS
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
	})
}

// UploadRateLimiter for document upload and ingest endpoints
func UploadRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.UploadMax,
		Expiration: config.UploadExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "upload:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Upload limit reached for IP: %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many uploads. Please wait before uploading more documents.",
				"retry_after": int(config.UploadExpiration.Seconds()),
			})
		},
	})
}

// CompressRateLimiter for knowledge-base compression requests
func CompressRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.CompressMax,
		Expiration: config.CompressExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "compress:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Compression limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many compression requests. Please wait.",
				"retry_after": int(config.CompressExpiration.Seconds()),
			})
		},
	})
}
