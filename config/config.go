package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the configuration for the server.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	// RedisAddr is optional; without it exports are cached in memory.
	RedisAddr string
	JWTSecret string

	// PDFServiceURL is optional; without it PDFs are rendered locally.
	PDFServiceURL string
	PublicBaseURL string
	UploadDir     string

	ExportCacheTTL   time.Duration
	ExportRatePerMin int

	LogLevel  zerolog.Level
	LogPretty bool
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	port := getenv("PORT", "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	ttl, err := time.ParseDuration(getenv("EXPORT_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("EXPORT_CACHE_TTL: %w", err)
	}

	rate, err := strconv.Atoi(getenv("EXPORT_RATE_PER_MIN", "10"))
	if err != nil || rate <= 0 {
		return nil, fmt.Errorf("EXPORT_RATE_PER_MIN must be a positive integer, got %q", os.Getenv("EXPORT_RATE_PER_MIN"))
	}

	level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return &Config{
		Port:             port,
		MongoURI:         getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getenv("MONGO_DB", "voyage"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		JWTSecret:        jwtSecret,
		PDFServiceURL:    os.Getenv("PDF_SERVICE_URL"),
		PublicBaseURL:    strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		UploadDir:        getenv("UPLOAD_DIR", "static/uploads"),
		ExportCacheTTL:   ttl,
		ExportRatePerMin: rate,
		LogLevel:         level,
		LogPretty:        os.Getenv("LOG_PRETTY") == "true",
	}, nil
}
