// Package config provides configuration loading and validation for the
// digest bot. Values come from config.yaml and BOT_* environment variables,
// with defaults for everything that is optional.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Digest rendering modes.
const (
	ModeDeterministic = "deterministic"
	ModeLLM           = "llm"
)

// Config defines the application configuration for all components.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Digest    DigestConfig    `mapstructure:"digest"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds bot credentials and the digest recipient.
type TelegramConfig struct {
	Token       string `mapstructure:"token"    validate:"required"`
	AdminUserID int64  `mapstructure:"admin_id" validate:"required,gt=0"`

	// BotInfo is populated at startup from GetMe and is not read from config.
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds SQLite storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DigestConfig controls the digest pipeline.
type DigestConfig struct {
	// Mode selects the rendering path: deterministic or llm.
	Mode string `mapstructure:"mode" validate:"oneof=deterministic llm"`

	// MinMessageLength is the capture threshold: shorter messages are never
	// stored. Observed deployments use 3 or 8.
	MinMessageLength int `mapstructure:"min_message_length" validate:"min=1,max=64"`

	// DefaultHour is the delivery hour assigned to newly subscribed chats.
	DefaultHour int `mapstructure:"default_hour" validate:"min=0,max=23"`

	// DefaultTimezone is the IANA zone used when a subscription has none.
	DefaultTimezone string `mapstructure:"default_timezone" validate:"required"`

	PreviewsPerAuthor int `mapstructure:"previews_per_author" validate:"min=1,max=10"`
	PreviewWidth      int `mapstructure:"preview_width"       validate:"min=20,max=1000"`
	MaxLLMItems       int `mapstructure:"max_llm_items"       validate:"min=1,max=50"`
}

// SchedulerConfig configures gocron jobs and the digest sweep.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`

	// SweepConcurrency bounds parallel per-chat digest builds in one sweep.
	SweepConcurrency int `mapstructure:"sweep_concurrency" validate:"min=1,max=32"`

	// SendDelay is the pause between outbound deliveries in a sweep, to
	// respect Telegram throughput limits.
	SendDelay time.Duration `mapstructure:"send_delay" validate:"min=0"`

	// BuildTimeout bounds a single chat's digest build so a hung summarizer
	// call cannot stall the sweep.
	BuildTimeout time.Duration `mapstructure:"build_timeout" validate:"min=1s,max=30m"`
}

// TaskConfig enables a named scheduled task with a cron schedule
// (six-field, seconds first).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// GeminiConfig holds settings for the Gemini summarization client.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	ModelName         string  `mapstructure:"model_name"`
	Temperature       float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0,max=300"`
}

// Load reads configuration from config.yaml (optional) and BOT_* environment
// variables, applies defaults, and validates the result. A missing token or
// admin ID is a fatal configuration error.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, defaults and env cover everything.
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Digest.Mode == ModeLLM && cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("config validation failed: digest.mode=llm requires gemini.api_key")
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", true)

	// Registered empty so AutomaticEnv picks them up during Unmarshal.
	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.admin_id", 0)
	viper.SetDefault("gemini.api_key", "")

	viper.SetDefault("database.path", "messages.db")

	viper.SetDefault("digest.mode", ModeDeterministic)
	viper.SetDefault("digest.min_message_length", 3)
	viper.SetDefault("digest.default_hour", 9)
	viper.SetDefault("digest.default_timezone", "Europe/Kyiv")
	viper.SetDefault("digest.previews_per_author", 3)
	viper.SetDefault("digest.preview_width", 150)
	viper.SetDefault("digest.max_llm_items", 12)

	viper.SetDefault("scheduler.sweep_concurrency", 4)
	viper.SetDefault("scheduler.send_delay", 1500*time.Millisecond)
	viper.SetDefault("scheduler.build_timeout", 3*time.Minute)
	viper.SetDefault("scheduler.tasks", map[string]any{
		// Coarse tick: the sweep decides per chat whether its hour is due.
		"digest_sweep": map[string]any{"enabled": true, "schedule": "0 */10 * * * *"},
		"sql_maintenance": map[string]any{"enabled": true, "schedule": "0 0 4 * * *"},
	})

	viper.SetDefault("gemini.model_name", "gemini-2.0-flash")
	viper.SetDefault("gemini.temperature", 0.4)
	viper.SetDefault("gemini.max_retries", 2)
	viper.SetDefault("gemini.retry_delay_seconds", 5)
}
