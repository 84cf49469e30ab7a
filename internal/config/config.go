package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Bot      BotConfig      `mapstructure:"bot"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TelegramConfig holds the bot credential and the watched author and chat
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	TargetUser     string        `mapstructure:"target_user"`
	TargetChat     string        `mapstructure:"target_chat"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	Debug          bool          `mapstructure:"debug"`
}

// BotConfig holds message handling configuration
type BotConfig struct {
	Keyword string `mapstructure:"keyword"`
	Workers int    `mapstructure:"workers"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DBPath      string        `mapstructure:"db_path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv maps config keys to the plain environment variable names the bot
// has always been deployed with. BREADBOT_* names take precedence.
var legacyEnv = map[string]string{
	"telegram.bot_token":   "TELEGRAM_TOKEN",
	"telegram.target_user": "TARGET_USER",
	"telegram.target_chat": "TARGET_CHANNEL",
}

// Load reads configuration from an optional file and environment variables.
// An empty path skips the file and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// BREADBOT_TELEGRAM_BOT_TOKEN overrides telegram.bot_token, etc.
	v.SetEnvPrefix("BREADBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envName := "BREADBOT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.poll_timeout", "60s")
	v.SetDefault("telegram.debug", false)

	// Bot defaults
	v.SetDefault("bot.keyword", "bread")
	v.SetDefault("bot.workers", 4)

	// Storage defaults
	v.SetDefault("storage.db_path", "./bread_prod.db")
	v.SetDefault("storage.busy_timeout", "5s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Telegram config
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if err := c.ValidateTarget(); err != nil {
		return err
	}
	if c.Telegram.MaxRetries < 1 {
		return fmt.Errorf("telegram.max_retries must be at least 1")
	}
	if c.Telegram.RetryDelayBase <= 0 {
		return fmt.Errorf("telegram.retry_delay_base must be positive")
	}
	if c.Telegram.PollTimeout < time.Second {
		return fmt.Errorf("telegram.poll_timeout must be at least 1 second")
	}

	// Validate Bot config
	if strings.TrimSpace(c.Bot.Keyword) == "" {
		return fmt.Errorf("bot.keyword must not be empty")
	}
	if c.Bot.Workers < 1 {
		return fmt.Errorf("bot.workers must be at least 1")
	}

	if err := c.ValidateStorage(); err != nil {
		return err
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics is enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ValidateTarget checks the watched author and chat.
func (c *Config) ValidateTarget() error {
	if c.Telegram.TargetUser == "" {
		return fmt.Errorf("telegram.target_user is required")
	}
	if c.Telegram.TargetChat == "" {
		return fmt.Errorf("telegram.target_chat is required")
	}
	return nil
}

// ValidateStorage checks the database settings. The stats command only needs these.
func (c *Config) ValidateStorage() error {
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.BusyTimeout < 0 {
		return fmt.Errorf("storage.busy_timeout must not be negative")
	}
	return nil
}
