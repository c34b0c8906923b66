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
	Server    ServerConfig
	AI        AIConfig
	Reply     ReplyConfig
	Storage   StorageConfig
	Resources ResourcesConfig
	Log       LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	reply, err := loadReplyConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Reply:     reply,
		Storage:   storage,
		Resources: ResourcesConfig{CountryCode: getEnvOrDefault("COUNTRY_CODE", "IN")},
		Log:       logCfg,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ReplyConfig holds the sampling parameters shared by every remote call.
type ReplyConfig struct {
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 220
	DefaultReplyTimeout    = 20 * time.Second
)

func loadReplyConfig() (ReplyConfig, error) {
	cfg := ReplyConfig{
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
		Timeout:         DefaultReplyTimeout,
	}

	temperature, err := parseOptionalFloatEnv("REPLY_TEMPERATURE")
	if err != nil {
		return ReplyConfig{}, err
	}
	if temperature != nil {
		if *temperature < 0 || *temperature > 2 {
			return ReplyConfig{}, fmt.Errorf("invalid REPLY_TEMPERATURE value %v: must be within [0, 2]", *temperature)
		}
		cfg.Temperature = *temperature
	}

	maxTokens, err := parseOptionalIntEnv("REPLY_MAX_TOKENS")
	if err != nil {
		return ReplyConfig{}, err
	}
	if maxTokens != nil {
		if *maxTokens < 1 {
			return ReplyConfig{}, fmt.Errorf("invalid REPLY_MAX_TOKENS value %d: must be positive", *maxTokens)
		}
		cfg.MaxOutputTokens = *maxTokens
	}

	timeout, err := parseOptionalIntEnv("REPLY_TIMEOUT_SECONDS")
	if err != nil {
		return ReplyConfig{}, err
	}
	if timeout != nil && *timeout > 0 {
		cfg.Timeout = time.Duration(*timeout) * time.Second
	}

	return cfg, nil
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend    string
	SQLitePath string
}

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageSQLite))
	switch backend {
	case StorageSQLite, StorageMemory:
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND value %q", backend)
	}

	return StorageConfig{
		Backend:    backend,
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "data/soothe.db"),
	}, nil
}

// ResourcesConfig carries the locale used for emergency resources.
type ResourcesConfig struct {
	CountryCode string
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Development: dev,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
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
