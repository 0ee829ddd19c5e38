package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port          string `yaml:"port" env:"SERVER_PORT"`
		Mode          string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL       string `yaml:"base_url" env:"SERVER_BASE_URL"`
		UploadsPath   string `yaml:"uploads_path" env:"SERVER_UPLOADS_PATH"`
		SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET"`
		SessionTTL    string `yaml:"session_ttl" env:"SESSION_TTL"`
		CookieSecure  bool   `yaml:"cookie_secure" env:"COOKIE_SECURE"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		Timeout  string `yaml:"timeout" env:"REDIS_TIMEOUT"`
	} `yaml:"redis"`

	Security struct {
		LockoutThreshold   int    `yaml:"lockout_threshold" env:"SECURITY_LOCKOUT_THRESHOLD"`
		LockoutDuration    string `yaml:"lockout_duration" env:"SECURITY_LOCKOUT_DURATION"`
		ResetTokenTTL      string `yaml:"reset_token_ttl" env:"SECURITY_RESET_TOKEN_TTL"`
		ResetMinResponse   string `yaml:"reset_min_response" env:"SECURITY_RESET_MIN_RESPONSE"`
		LoginRateLimit     int    `yaml:"login_rate_limit" env:"SECURITY_LOGIN_RATE_LIMIT"`
		LoginRateWindow    string `yaml:"login_rate_window" env:"SECURITY_LOGIN_RATE_WINDOW"`
		MaxUploadBytes     int64  `yaml:"max_upload_bytes" env:"SECURITY_MAX_UPLOAD_BYTES"`
		UsernameDiacritics string `yaml:"username_diacritics" env:"SECURITY_USERNAME_DIACRITICS"`
	} `yaml:"security"`

	Email struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"email"`

	Cache struct {
		Driver string `yaml:"driver" env:"CACHE_DRIVER"`
		Dir    string `yaml:"dir" env:"CACHE_DIR"`
		TTL    string `yaml:"ttl" env:"CACHE_TTL"`
	} `yaml:"cache"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
		Path    string `yaml:"path" env:"METRICS_PATH"`
	} `yaml:"metrics"`

	Seed struct {
		AdminUsername string `yaml:"admin_username" env:"SEED_ADMIN_USERNAME"`
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
	} `yaml:"seed"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from .env, a YAML file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.UploadsPath = "uploads"
	config.Server.SessionTTL = "24h"

	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "jobportal"
	config.Database.SSLMode = "disable"
	config.Database.SQLitePath = "jobportal.db"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.Redis.Addr = "localhost:6379"
	config.Redis.Timeout = "5s"

	config.Security.LockoutThreshold = 3
	config.Security.LockoutDuration = "60m"
	config.Security.ResetTokenTTL = "1h"
	config.Security.ResetMinResponse = "400ms"
	config.Security.LoginRateLimit = 10
	config.Security.LoginRateWindow = "1m"
	config.Security.MaxUploadBytes = 5 * 1024 * 1024
	config.Security.UsernameDiacritics = "æøåÆØÅ"

	config.Email.Port = 587
	config.Email.FromEmail = "no-reply@jobportal.local"
	config.Email.FromName = "Job Portal"
	config.Email.UseTLS = false

	config.Cache.Driver = "none"
	config.Cache.Dir = "cache/application"
	config.Cache.TTL = "60s"

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch strings.ToLower(config.Database.Driver) {
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Server.SessionSecret == "" {
		return fmt.Errorf("session secret is required")
	}
	if len(config.Server.SessionSecret) < 32 {
		return fmt.Errorf("session secret must be at least 32 characters")
	}

	if config.Security.LockoutThreshold < 1 {
		return fmt.Errorf("lockout threshold must be at least 1")
	}

	durations := map[string]string{
		"session ttl":        config.Server.SessionTTL,
		"lockout duration":   config.Security.LockoutDuration,
		"reset token ttl":    config.Security.ResetTokenTTL,
		"reset min response": config.Security.ResetMinResponse,
		"login rate window":  config.Security.LoginRateWindow,
		"cache ttl":          config.Cache.TTL,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch strings.ToLower(config.Cache.Driver) {
	case "none", "file", "redis":
	default:
		return fmt.Errorf("unsupported cache driver %q", config.Cache.Driver)
	}
	if strings.EqualFold(config.Cache.Driver, "redis") && !config.Redis.Enabled {
		return fmt.Errorf("redis cache driver requires redis.enabled")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}
