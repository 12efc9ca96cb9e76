// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB (bot-side store: alerts, notification records, linking codes)
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL (web-application identity store)
	PostgresURI string

	// Fare source
	FareSourceURL     string
	FareSourceAPIKey  string
	FareSourceTimeout time.Duration

	// Channels
	TelegramBotToken string
	TelegramBotName  string
	WhatsAppEndpoint string
	WhatsAppToken    string
	ChannelTimeout   time.Duration

	// Scheduler
	PollInterval time.Duration
	WorkerCount  int
	RunTimeout   time.Duration

	// Identity linking
	LinkingCodeTTL       time.Duration
	LinkingSweepInterval time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "farewatch"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "postgres://localhost:5432/farewatch"),

		FareSourceURL:     getEnv("FARE_SOURCE_URL", ""),
		FareSourceAPIKey:  getEnv("FARE_SOURCE_API_KEY", ""),
		FareSourceTimeout: time.Duration(getEnvAsInt("FARE_SOURCE_TIMEOUT", 30)) * time.Second,

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramBotName:  getEnv("TELEGRAM_BOT_NAME", "farewatch_bot"),
		WhatsAppEndpoint: getEnv("WHATSAPP_ENDPOINT", ""),
		WhatsAppToken:    getEnv("WHATSAPP_TOKEN", ""),
		ChannelTimeout:   time.Duration(getEnvAsInt("CHANNEL_TIMEOUT", 30)) * time.Second,

		PollInterval: time.Duration(getEnvAsInt("POLL_INTERVAL", 300)) * time.Second,
		WorkerCount:  getEnvAsInt("WORKER_COUNT", 5),
		RunTimeout:   time.Duration(getEnvAsInt("RUN_TIMEOUT", 240)) * time.Second,

		LinkingCodeTTL:       time.Duration(getEnvAsInt("LINKING_CODE_TTL", 600)) * time.Second,
		LinkingSweepInterval: time.Duration(getEnvAsInt("LINKING_SWEEP_INTERVAL", 3600)) * time.Second,
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
