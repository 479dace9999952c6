// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"peeps/internal/middleware"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                string  `mapstructure:"PORT"`
	Env                 string  `mapstructure:"APP_ENV"`
	LogLevel            string  `mapstructure:"LOG_LEVEL"`
	JWTSecret           string  `mapstructure:"JWT_SECRET"`
	AccessTokenTTLMin   int     `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	TimelineWindowDays  int     `mapstructure:"TIMELINE_WINDOW_DAYS"`
	DBDriver            string  `mapstructure:"DB_DRIVER"`
	DBHost              string  `mapstructure:"DB_HOST"`
	DBPort              string  `mapstructure:"DB_PORT"`
	DBUser              string  `mapstructure:"DB_USER"`
	DBPassword          string  `mapstructure:"DB_PASSWORD"`
	DBName              string  `mapstructure:"DB_NAME"`
	DBSSLMode           string  `mapstructure:"DB_SSLMODE"`
	DBSchemaMode        string  `mapstructure:"DB_SCHEMA_MODE"`
	RedisURL            string  `mapstructure:"REDIS_URL"`
	UserCacheTTLSeconds int     `mapstructure:"USER_CACHE_TTL_SECONDS"`
	AllowedOrigins      string  `mapstructure:"ALLOWED_ORIGINS"`
	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults cover local runs.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		middleware.Logger.Info("Loaded profile-specific configuration", "file", "config."+env+".yml")
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 30)
	viper.SetDefault("TIMELINE_WINDOW_DAYS", 5)
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "peeps")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("USER_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the process runs with production strictness.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AccessTokenTTL is the lifetime of tokens issued at login.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// UserCacheTTL is how long resolved principals stay in Redis.
func (c *Config) UserCacheTTL() time.Duration {
	return time.Duration(c.UserCacheTTLSeconds) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AccessTokenTTLMin <= 0 {
		return errors.New("ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if c.TimelineWindowDays < 0 {
		return errors.New("TIMELINE_WINDOW_DAYS must not be negative")
	}
	switch strings.ToLower(c.DBDriver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.EqualFold(c.DBDriver, "postgres") && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			middleware.Logger.Warn("DB_SSLMODE is 'disable' in production")
		}
		if c.AllowedOrigins == "*" {
			middleware.Logger.Warn("ALLOWED_ORIGINS is set to '*' in production")
		}
	} else if len(c.JWTSecret) < 32 {
		middleware.Logger.Warn("JWT_SECRET is shorter than 32 characters")
	}

	return nil
}
