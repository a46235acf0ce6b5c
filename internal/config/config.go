// Package config collects the environment-driven settings of the client.
package config

import (
	"os"
	"time"
)

// Config is the runtime configuration of the chat client.
type Config struct {
	APIBaseURL   string
	PollInterval time.Duration
	SessionPath  string
	MetricsAddr  string
	OTLPEndpoint string
	AMQPURL      string
	AMQPExchange string
	Environment  string
	MockAddr     string
}

// Load reads configuration from the environment, with local-dev defaults.
func Load() Config {
	return Config{
		APIBaseURL:   getEnv("CHAT_API_URL", "http://localhost:8083/api"),
		PollInterval: getDuration("CHAT_POLL_INTERVAL", 15*time.Second),
		SessionPath:  getEnv("CHAT_SESSION_PATH", "chat-session.db"),
		MetricsAddr:  getEnv("METRICS_ADDR", ""),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "storefront.events"),
		Environment:  getEnv("ENVIRONMENT", "dev"),
		MockAddr:     getEnv("CHAT_MOCK_ADDR", "localhost:8083"),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
