package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application. It is loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
}

// GeminiConfig holds generative model configuration
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	ModelPerMinute int `mapstructure:"model_per_minute"`
}

// StorageConfig holds meal log storage configuration
type StorageConfig struct {
	Driver       string `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLitePath   string `mapstructure:"sqlite_path"`
	PostgresDSN  string `mapstructure:"postgres_dsn"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from the .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/platelens/")

	v.SetEnvPrefix("PLATELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound explicitly
	_ = v.BindEnv("gemini.api_key", "PLATELENS_GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("storage.postgres_dsn", "PLATELENS_STORAGE_POSTGRES_DSN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env if present. Variables already set in the
// environment win over the file.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 16)

	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.timeout", "60s")

	v.SetDefault("ratelimit.model_per_minute", 60)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "food_logs.db")
	v.SetDefault("storage.history_limit", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set PLATELENS_GEMINI_API_KEY or GOOGLE_API_KEY)")
	}

	if config.Gemini.Model == "" {
		return fmt.Errorf("Gemini model name is required")
	}

	switch config.Storage.Driver {
	case "sqlite":
		if config.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required when storage driver is 'sqlite'")
		}
	case "postgres":
		if config.Storage.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required when storage driver is 'postgres'")
		}
	default:
		return fmt.Errorf("storage driver must be 'sqlite' or 'postgres', got: %s", config.Storage.Driver)
	}

	if config.Storage.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got: %d", config.Storage.HistoryLimit)
	}

	if config.RateLimit.ModelPerMinute <= 0 {
		return fmt.Errorf("model rate limit must be positive, got: %d", config.RateLimit.ModelPerMinute)
	}

	return nil
}
