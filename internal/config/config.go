package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Auth       AuthConfig
	Upload     UploadConfig
	LLM        LLMConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret          string
	TokenExpireMinutes int
	LoginMaxAttempts   int
	LoginLockoutMin    int
}

// UploadConfig holds image upload configuration
type UploadConfig struct {
	Dir               string
	MaxSizeMB         int
	AllowedExtensions string
	ThumbnailSize     int
}

// LLMConfig holds Ark (OpenAI-compatible) API configuration
type LLMConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string // text chat / extraction / SQL generation
	VisionModel         string // image + text turns
	ChatTemperature     float64
	ChatMaxTokens       int
	EmbeddingModel      string
	EmbeddingDimensions int
	BatchSize           int
	Timeout             int // seconds, per call
	Enabled             bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "aihouse"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TokenExpireMinutes: getEnvAsInt("TOKEN_EXPIRE_MINUTES", 1440),
			LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginLockoutMin:    getEnvAsInt("LOGIN_LOCKOUT_MINUTES", 15),
		},
		Upload: UploadConfig{
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeMB:         getEnvAsInt("UPLOAD_MAX_SIZE_MB", 5),
			AllowedExtensions: getEnv("UPLOAD_ALLOWED_EXTENSIONS", "jpg,jpeg,png"),
			ThumbnailSize:     getEnvAsInt("UPLOAD_THUMBNAIL_SIZE", 200),
		},
		LLM: LLMConfig{
			APIKey:              getEnv("ARK_API_KEY", ""),
			APIBase:             getEnv("ARK_API_BASE", "https://ark.cn-beijing.volces.com/api/v3"),
			ChatModel:           getEnv("ARK_CHAT_MODEL", "doubao-1-5-thinking-pro-250415"),
			VisionModel:         getEnv("ARK_VISION_MODEL", "doubao-1.5-vision-pro-250328"),
			ChatTemperature:     getEnvAsFloat("ARK_CHAT_TEMPERATURE", 0.7),
			ChatMaxTokens:       getEnvAsInt("ARK_CHAT_MAX_TOKENS", 2000),
			EmbeddingModel:      getEnv("ARK_EMBEDDING_MODEL", "doubao-embedding-text-240715"),
			EmbeddingDimensions: getEnvAsInt("ARK_EMBEDDING_DIMENSIONS", 1024),
			BatchSize:           getEnvAsInt("ARK_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("ARK_TIMEOUT", 30),
			Enabled:             getEnv("ARK_API_KEY", "") != "",
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
