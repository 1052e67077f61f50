package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Push    PushConfig
	Kafka   KafkaConfig
	Redis   RedisConfig
	Poll    PollConfig
}

// ServerConfig holds the dashboard HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// BackendConfig holds the bot backend connection settings
type BackendConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// PushConfig selects and configures the push transport
type PushConfig struct {
	Transport    string // "websocket" or "kafka"
	WebSocketURL string
}

// KafkaConfig holds Kafka settings for the kafka push transport
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	ConsumerGroup string
}

// RedisConfig holds Redis settings for the warm-start snapshot cache
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PollConfig holds the per-resource poll intervals
type PollConfig struct {
	Signals time.Duration
	Orders  time.Duration
	Trades  time.Duration
	Account time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8082"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8080"),
			Token:   getEnv("BACKEND_TOKEN", ""),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Push: PushConfig{
			Transport:    getEnv("PUSH_TRANSPORT", "websocket"),
			WebSocketURL: getEnv("PUSH_WS_URL", "ws://localhost:8080/api/v1/events"),
		},
		Kafka: KafkaConfig{
			Brokers:       parseBrokers(getEnv("KAFKA_BROKERS", "localhost:19092")),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "trading.events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "tradedeck"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Poll: PollConfig{
			Signals: getEnvDuration("POLL_INTERVAL_SIGNALS", 10*time.Second),
			Orders:  getEnvDuration("POLL_INTERVAL_ORDERS", 10*time.Second),
			Trades:  getEnvDuration("POLL_INTERVAL_TRADES", 30*time.Second),
			Account: getEnvDuration("POLL_INTERVAL_ACCOUNT", 30*time.Second),
		},
	}
}

// Address returns the Redis address in host:port format
func (r *RedisConfig) Address() string {
	return r.Host + ":" + r.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// parseBrokers splits a comma-separated broker list
func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
