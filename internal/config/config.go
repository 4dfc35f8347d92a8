package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Feed   FeedConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	feed, err := loadFeedConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Feed: feed}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr              string
	TrustProxyHeaders bool
	AllowedOrigins    []string
	MaxBodyBytes      int64
	ShutdownTimeout   time.Duration
}

// FeedConfig 描述 WebSocket 变更推送配置。
type FeedConfig struct {
	Enabled bool
	Buffer  int
}

func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr(strings.TrimSpace(os.Getenv("PORT")))
	if err != nil {
		return ServerConfig{}, err
	}

	trust, err := parseBoolEnv("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return ServerConfig{}, err
	}

	maxBody := int64(1 << 20)
	if override, err := parseOptionalIntEnv("MAX_BODY_BYTES"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return ServerConfig{}, fmt.Errorf("invalid MAX_BODY_BYTES value %d: must be positive", *override)
		}
		maxBody = int64(*override)
	}

	shutdown := 10
	if override, err := parseOptionalIntEnv("SHUTDOWN_TIMEOUT_SECONDS"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ServerConfig{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS value %d: must not be negative", *override)
		}
		shutdown = *override
	}

	return ServerConfig{
		Addr:              addr,
		TrustProxyHeaders: trust,
		AllowedOrigins:    splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		MaxBodyBytes:      maxBody,
		ShutdownTimeout:   time.Duration(shutdown) * time.Second,
	}, nil
}

// parseAddr 允许 "8080"、":8080" 或 "127.0.0.1:8080"。
func parseAddr(port string) (string, error) {
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

func loadFeedConfig() (FeedConfig, error) {
	enabled, err := parseBoolEnv("FEED_ENABLED", true)
	if err != nil {
		return FeedConfig{}, err
	}

	buffer := 16
	if override, err := parseOptionalIntEnv("FEED_BUFFER"); err != nil {
		return FeedConfig{}, err
	} else if override != nil {
		if *override < 1 {
			buffer = 1
		} else {
			buffer = *override
		}
	}

	return FeedConfig{Enabled: enabled, Buffer: buffer}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
