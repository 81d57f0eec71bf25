package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// App holds the runtime configuration loaded from environment variables
// and, optionally, a config file.
type App struct {
	Env             string
	HTTPPort        string
	APIBaseURL      string
	APITimeout      time.Duration
	RedisAddr       string
	NotifyBackend   string
	NotifyQueueKey  string
	DatabaseURL     string
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	RateLimitPerMin int
	LogLevel        string
}

var defaults = map[string]any{
	"app_env":            "dev",
	"http_port":          "8081",
	"api_base_url":       "http://127.0.0.1:8000",
	"api_timeout":        "0s",
	"redis_addr":         "localhost:6379",
	"notify_backend":     "log",
	"notify_queue_key":   "teacherdesk:notifications",
	"database_url":       "",
	"jwt_issuer":         "teacherdesk",
	"jwt_signing_key":    "",
	"access_ttl":         "12h",
	"rate_limit_per_min": 120,
	"log_level":          "info",
}

// Load reads configuration from the environment. When file is not empty
// it is read first and environment variables override its keys.
func Load(file string) (App, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return App{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := App{
		Env:             v.GetString("app_env"),
		HTTPPort:        v.GetString("http_port"),
		APIBaseURL:      v.GetString("api_base_url"),
		APITimeout:      v.GetDuration("api_timeout"),
		RedisAddr:       v.GetString("redis_addr"),
		NotifyBackend:   strings.ToLower(v.GetString("notify_backend")),
		NotifyQueueKey:  v.GetString("notify_queue_key"),
		DatabaseURL:     v.GetString("database_url"),
		JWTIssuer:       v.GetString("jwt_issuer"),
		JWTSigningKey:   v.GetString("jwt_signing_key"),
		AccessTTL:       v.GetDuration("access_ttl"),
		RateLimitPerMin: v.GetInt("rate_limit_per_min"),
		LogLevel:        v.GetString("log_level"),
	}
	return cfg, cfg.Validate()
}

// Validate checks values that have a fixed set of options or ranges.
func (c App) Validate() error {
	var errs []string
	switch c.NotifyBackend {
	case "log", "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("NOTIFY_BACKEND must be log, memory or redis, got %q", c.NotifyBackend))
	}
	if c.APITimeout < 0 {
		errs = append(errs, "API_TIMEOUT must not be negative")
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, "RATE_LIMIT_PER_MIN must not be negative")
	}
	if c.JWTSigningKey != "" && c.AccessTTL <= 0 {
		errs = append(errs, "ACCESS_TTL must be positive when JWT_SIGNING_KEY is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsProduction reports whether the app runs with production settings.
func (c App) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
