package config

import (
	"os"
	"strings"
)

type Config struct {
	Host        string
	Port        string
	MetricsPort string
	RedisURL    string
	LogLevel    string
}

func LoadConfig() *Config {
	return &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "8000"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}
