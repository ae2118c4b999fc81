package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	backend, err := loadBackendConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Backend: backend, Log: logCfg}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origin := getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*")

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigin: origin}, nil
}

// BackendConfig 描述 Strategist 后端的连接配置。
type BackendConfig struct {
	BaseURL string
	// Timeout 为零表示不限制单次调用时长。
	Timeout time.Duration
}

func loadBackendConfig() (BackendConfig, error) {
	baseURL := strings.TrimRight(getEnvOrDefault("BACKEND_URL", "http://localhost:8000"), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return BackendConfig{}, fmt.Errorf("invalid BACKEND_URL value %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return BackendConfig{}, fmt.Errorf("invalid BACKEND_URL value %q: scheme must be http or https", baseURL)
	}
	if parsed.Host == "" {
		return BackendConfig{}, fmt.Errorf("invalid BACKEND_URL value %q: missing host", baseURL)
	}

	timeout, err := parseOptionalIntEnv("BACKEND_TIMEOUT")
	if err != nil {
		return BackendConfig{}, err
	}

	var timeoutDuration time.Duration
	if timeout != nil {
		if *timeout < 0 {
			return BackendConfig{}, fmt.Errorf("invalid BACKEND_TIMEOUT value %d: must not be negative", *timeout)
		}
		timeoutDuration = time.Duration(*timeout) * time.Second
	}

	return BackendConfig{BaseURL: baseURL, Timeout: timeoutDuration}, nil
}

// LogConfig 描述日志输出配置。
type LogConfig struct {
	Level slog.Level
	// Stdout 为真时写入标准输出。
	Stdout bool
	// File 非空时额外写入滚动日志文件。
	File string
}

func loadLogConfig() (LogConfig, error) {
	raw := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))

	var level slog.Level
	switch raw {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q", raw)
	}

	return LogConfig{
		Level:  level,
		Stdout: true,
		File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
