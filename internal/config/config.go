package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "COMICNEST_"

// legacyEnv 兼容部署平台上已有的无前缀环境变量
var legacyEnv = map[string]string{
	"PORT":           "port",
	"DATABASE_URL":   "database_url",
	"JWT_SECRET":     "jwt_secret",
	"SESSION_SECRET": "session_secret",
	"CLIENT_URL":     "client_url",
	"APP_ENV":        "app_env",
	"LOG_LEVEL":      "log_level",
}

type Config struct {
	Port             string        `koanf:"port"`
	DatabaseURL      string        `koanf:"database_url"`
	JWTSecret        string        `koanf:"jwt_secret"`
	SessionSecret    string        `koanf:"session_secret"`
	TokenTTL         time.Duration `koanf:"token_ttl"`
	RequestTimeout   time.Duration `koanf:"request_timeout"`
	ClientURL        string        `koanf:"client_url"`
	AppEnv           string        `koanf:"app_env"`
	LogLevel         string        `koanf:"log_level"`
	CacheSize        int           `koanf:"cache_size"`
	TreeCacheTTL     time.Duration `koanf:"tree_cache_ttl"`
	HistoryLimit     int           `koanf:"history_limit"`
	MaxContentLength int           `koanf:"max_content_length"`
	MetricsEnabled   bool          `koanf:"metrics_enabled"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"port":               "8888",
		"database_url":       "host=localhost user=postgres password=postgres dbname=comicnest port=5432 sslmode=disable",
		"jwt_secret":         "",
		"session_secret":     "secret_key_change_me",
		"token_ttl":          "72h",
		"request_timeout":    "10s",
		"client_url":         "http://localhost:5173",
		"app_env":            "development",
		"log_level":          "info",
		"cache_size":         500,
		"tree_cache_ttl":     "2m",
		"history_limit":      40,
		"max_content_length": 5000,
		"metrics_enabled":    true,
	}
}

// Load reads defaults, then the optional TOML file, then the environment.
// A .env file in the working directory is merged into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "test"
}

// Validate checks the settings the server cannot start without.
func Validate(c *Config) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("jwt_secret is required outside development")
		}
		c.JWTSecret = "dev_jwt_secret_change_me"
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("max_content_length must be positive")
	}
	return nil
}
