// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	Client ClientConfig
	Cache  CacheConfig
	Store  StoreConfig
	Demo   DemoConfig
	Log    LogConfig
}

// ServerConfig holds the reference chat backend configuration.
type ServerConfig struct {
	Host            string
	Port            int
	GinMode         string
	ShutdownTimeout time.Duration
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClientConfig holds the chat client configuration.
type ClientConfig struct {
	APIURL        string
	AuthToken     string
	StreamTimeout time.Duration
	// DemoMode answers every message with the scripted demo.
	DemoMode bool
	UserID   string
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type      string
	Host      string
	Port      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
	// EncryptionKey seals cached sessions; empty stores them in the clear.
	EncryptionKey string
}

// StoreConfig holds chat history store configuration.
type StoreConfig struct {
	Type                string
	MongoURI            string
	MongoDatabase       string
	FirestoreProject    string
	FirestoreCredFile   string
	HistoryWorkers      int
	HistoryQueueSize    int
	HistoryWriteTimeout time.Duration
}

// DemoConfig holds demo playback configuration.
type DemoConfig struct {
	// Pacing scales every scripted delay; 0 plays instantly.
	Pacing float64
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			GinMode:         getEnv("GIN_MODE", "release"),
			ShutdownTimeout: time.Duration(getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Client: ClientConfig{
			APIURL:        getEnv("CHAT_API_URL", "http://localhost:8080"),
			AuthToken:     getEnv("CHAT_AUTH_TOKEN", ""),
			StreamTimeout: time.Duration(getEnvAsInt("CHAT_STREAM_TIMEOUT_SECONDS", 120)) * time.Second,
			DemoMode:      getEnvAsBool("DEMO_MODE", false),
			UserID:        getEnv("CHAT_USER_ID", "local"),
		},
		Cache: CacheConfig{
			Type:          getEnv("CACHE_TYPE", "redis"),
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			TTL:           time.Duration(getEnvAsInt("SESSION_TTL_SECONDS", 7200)) * time.Second,
			KeyPrefix:     getEnv("REDIS_KEY_PREFIX", "tripmind:"),
			EncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", ""),
		},
		Store: StoreConfig{
			Type:                getEnv("STORE_TYPE", "none"),
			MongoURI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase:       getEnv("MONGODB_DATABASE", "tripmind"),
			FirestoreProject:    getEnv("FIRESTORE_PROJECT_ID", ""),
			FirestoreCredFile:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			HistoryWorkers:      getEnvAsInt("HISTORY_WORKERS", 2),
			HistoryQueueSize:    getEnvAsInt("HISTORY_QUEUE_SIZE", 256),
			HistoryWriteTimeout: time.Duration(getEnvAsInt("HISTORY_WRITE_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Demo: DemoConfig{
			Pacing: getEnvAsFloat("DEMO_PACING", 1),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Demo.Pacing < 0 {
		return fmt.Errorf("DEMO_PACING must not be negative")
	}
	switch c.Store.Type {
	case "none", "mongodb":
	case "firestore":
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore store")
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
