package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration (optional; rate limiting is disabled without it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string

	// Media storage configuration. When S3Bucket is empty, images are
	// written under MediaDir and served from MediaBaseURL.
	MediaDir     string
	MediaBaseURL string
	S3Bucket     string
	S3Region     string
}

// LoadConfig creates a new Config instance from environment variables,
// falling back to Docker secret files for sensitive values.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:    getValue("SERVER_PORT", "8080"),
		ServerHost:    getValue("SERVER_HOST", "0.0.0.0"),
		DBHost:        getValue("DB_HOST", "localhost"),
		DBPort:        getValue("DB_PORT", "5432"),
		DBUser:        getValue("DB_USER", ""),
		DBPassword:    getValue("DB_PASSWORD", ""),
		DBName:        getValue("DB_NAME", ""),
		DBSSLMode:     getValue("DB_SSL_MODE", "disable"),
		RedisAddr:     getValue("REDIS_ADDR", ""),
		RedisPassword: getValue("REDIS_PASSWORD", ""),
		JWTSecret:     getValue("JWT_SECRET", ""),
		MediaDir:      getValue("MEDIA_DIR", "media"),
		MediaBaseURL:  getValue("MEDIA_BASE_URL", "/media"),
		S3Bucket:      getValue("S3_BUCKET_NAME", ""),
		S3Region:      getValue("AWS_REGION", ""),
	}

	if v := getValue("REDIS_DB", ""); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getValue resolves a configuration value from the environment, then from a
// Docker secret file named after the lower-cased key, then the default.
func getValue(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := readSecret(strings.ToLower(key)); v != "" {
		return v
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
