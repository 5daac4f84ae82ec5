// Package config provides environment configuration for the dashboard server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backplane names accepted by BROADCAST_BACKPLANE.
const (
	BackplaneAuto  = "auto"
	BackplaneLocal = "local"
	BackplaneNATS  = "nats"
	BackplaneRedis = "redis"
)

// DefaultAutomationURL is where agent messages are relayed when
// AUTOMATION_WEBHOOK_URL is not set.
const DefaultAutomationURL = "http://localhost:5678/webhook/send-message"

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ShutdownTimeout    time.Duration

	// Storage. An empty URL keeps everything in memory.
	DatabaseURL          string
	DatabaseMaxOpenConns int
	DatabaseLogQueries   bool

	// Realtime
	Backplane      string
	WSPingInterval time.Duration
	SessionBuffer  int

	// NATS settings
	NATSURL        string
	NATSClientName string
	NATSCAFile     string
	NATSCertFile   string
	NATSKeyFile    string
	NATSToken      string
	NATSJournal    bool

	// Redis settings
	RedisURL string

	// Outbound relay
	AutomationURL        string
	AutomationTimeout    time.Duration
	AutomationMaxRetries int
	AutomationRatePerSec float64

	// CORS
	FrontendOrigins []string

	// JWT settings. Dashboard auth is off when the secret is empty.
	JWTSecret string

	// Rate limiting
	WebhookRateLimitRequests int
	WebhookRateLimitWindow   time.Duration
	APIRateLimitRequests     int
	APIRateLimitWindow       time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "3001"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Storage
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DatabaseMaxOpenConns: getIntEnv("DATABASE_MAX_OPEN_CONNS", 10),
		DatabaseLogQueries:   getBoolEnv("DATABASE_LOG_QUERIES", false),

		// Realtime
		Backplane:      strings.ToLower(getEnv("BROADCAST_BACKPLANE", BackplaneAuto)),
		WSPingInterval: getDurationEnv("WS_PING_INTERVAL", 30*time.Second),
		SessionBuffer:  getIntEnv("WS_SESSION_BUFFER", 256),

		// NATS
		NATSURL:        getEnv("NATS_URL", ""),
		NATSClientName: getEnv("NATS_CLIENT_NAME", "crm-dashboard"),
		NATSCAFile:     getEnv("NATS_CA_FILE", ""),
		NATSCertFile:   getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:    getEnv("NATS_KEY_FILE", ""),
		NATSToken:      getEnv("NATS_TOKEN", ""),
		NATSJournal:    getBoolEnv("NATS_JOURNAL", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Relay
		AutomationURL:        getEnv("AUTOMATION_WEBHOOK_URL", DefaultAutomationURL),
		AutomationTimeout:    getDurationEnv("AUTOMATION_TIMEOUT", 10*time.Second),
		AutomationMaxRetries: getIntEnv("AUTOMATION_MAX_RETRIES", 2),
		AutomationRatePerSec: getFloatEnv("AUTOMATION_RATE_PER_SEC", 10),

		// CORS
		FrontendOrigins: getListEnv("FRONTEND_URL", []string{"http://localhost:3000"}),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Rate limiting
		WebhookRateLimitRequests: getIntEnv("WEBHOOK_RATE_LIMIT_REQUESTS", 600),
		WebhookRateLimitWindow:   getDurationEnv("WEBHOOK_RATE_LIMIT_WINDOW", time.Minute),
		APIRateLimitRequests:     getIntEnv("RATE_LIMIT_REQUESTS", 300),
		APIRateLimitWindow:       getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", defaultLogFormat()),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// ResolveBackplane picks the backplane to use. In auto mode NATS wins over
// Redis, and the in-process backplane is used when neither is configured.
func (c *Config) ResolveBackplane() string {
	switch c.Backplane {
	case BackplaneLocal, BackplaneNATS, BackplaneRedis:
		return c.Backplane
	}
	switch {
	case c.NATSURL != "":
		return BackplaneNATS
	case c.RedisURL != "":
		return BackplaneRedis
	}
	return BackplaneLocal
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// defaultLogFormat keeps JSON in deployments and a readable console
// format when ENV=development.
func defaultLogFormat() string {
	if os.Getenv("ENV") == "development" {
		return "console"
	}
	return "json"
}
