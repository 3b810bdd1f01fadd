// Package config provides configuration management for the trading application.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Trading       TradingConfig      `mapstructure:"trading"`
	Oracle        OracleConfig       `mapstructure:"oracle"`
	Market        MarketConfig       `mapstructure:"market"`
	Store         StoreConfig        `mapstructure:"store"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       logging.LogConfig  `mapstructure:"logging"`
	Credentials   Credentials        `mapstructure:"-" json:"-"` // Loaded from the environment
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	Mode            string  `mapstructure:"mode"` // "live", "paper"
	Pair            string  `mapstructure:"pair"`
	FeeRate         float64 `mapstructure:"fee_rate"`
	MinOrderKRW     float64 `mapstructure:"min_order_krw"`
	HistorySize     int     `mapstructure:"history_size"`
	PaperInitialKRW float64 `mapstructure:"paper_initial_krw"`
	PaperInitialBTC float64 `mapstructure:"paper_initial_btc"`
}

// OracleConfig holds AI oracle configuration.
type OracleConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	DecisionModel   string        `mapstructure:"decision_model"`
	ReasoningEffort string        `mapstructure:"reasoning_effort"`
	ReflectionModel string        `mapstructure:"reflection_model"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	Timeout         time.Duration `mapstructure:"timeout"`
	InitialBackoff  time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`
}

// MarketConfig holds data-collection configuration.
type MarketConfig struct {
	CandleCount int           `mapstructure:"candle_count"`
	NewsQuery   string        `mapstructure:"news_query"`
	NewsLimit   int           `mapstructure:"news_limit"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds ledger configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAIAPIKey   string
	UpbitAccessKey string
	UpbitSecretKey string
	SerpAPIKey     string
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/upbit-trader"
	}
	return filepath.Join(home, ".config", "upbit-trader")
}

// FilePath returns the path of config.toml inside configDir.
func FilePath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a template and the defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env in the config dir first, then the working directory. godotenv never
	// overrides variables that are already set.
	for _, path := range []string{filepath.Join(configDir, ".env"), ".env"} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	cfg, err := loadConfigFile(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trading.mode", "paper")
	v.SetDefault("trading.pair", "KRW-BTC")
	v.SetDefault("trading.fee_rate", 0.0005)
	v.SetDefault("trading.min_order_krw", 5000.0)
	v.SetDefault("trading.history_size", 10)
	v.SetDefault("trading.paper_initial_krw", 1000000.0)
	v.SetDefault("trading.paper_initial_btc", 0.0)

	v.SetDefault("oracle.decision_model", "o3-mini")
	v.SetDefault("oracle.reasoning_effort", "high")
	v.SetDefault("oracle.reflection_model", "gpt-4o-mini")
	v.SetDefault("oracle.max_attempts", 3)
	v.SetDefault("oracle.timeout", 2*time.Minute)
	v.SetDefault("oracle.initial_backoff", time.Second)
	v.SetDefault("oracle.max_backoff", 10*time.Second)

	v.SetDefault("market.candle_count", 30)
	v.SetDefault("market.news_query", "Stock Market Bitcoin")
	v.SetDefault("market.news_limit", 10)
	v.SetDefault("market.timeout", 30*time.Second)

	v.SetDefault("store.path", filepath.Join(DefaultConfigDir(), "trader.db"))

	defaults := logging.DefaultLogConfig()
	v.SetDefault("logging.level", defaults.Level)
	v.SetDefault("logging.console", defaults.Console)
	v.SetDefault("logging.file", defaults.File)
	v.SetDefault("logging.file_path", defaults.FilePath)
	v.SetDefault("logging.max_size", defaults.MaxSize)
	v.SetDefault("logging.max_backups", defaults.MaxBackups)
	v.SetDefault("logging.max_age", defaults.MaxAge)
}

func loadConfigFile(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.Credentials.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Credentials.UpbitAccessKey = os.Getenv("UPBIT_ACCESS_KEY")
	cfg.Credentials.UpbitSecretKey = os.Getenv("UPBIT_SECRET_KEY")
	cfg.Credentials.SerpAPIKey = os.Getenv("SERPAPI_API_KEY")

	if v := os.Getenv("TRADE_FEE"); v != "" {
		fee, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("unexpected trade fee value in TRADE_FEE %q: %w", v, err)
		}
		cfg.Trading.FeeRate = fee
	}

	if v := os.Getenv("TRADING_MODE"); v != "" {
		cfg.Trading.Mode = v
	}

	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
		cfg.Notifications.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
	if os.Getenv("TELEGRAM_BOT_TOKEN") != "" && os.Getenv("TELEGRAM_CHAT_ID") != "" {
		cfg.Notifications.Telegram.Enabled = true
		cfg.Notifications.Enabled = true
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.Mode != "live" && c.Trading.Mode != "paper" {
		return apperrors.NewValidationError("trading.mode", c.Trading.Mode, "must be 'live' or 'paper'")
	}
	if c.Trading.Pair == "" {
		return apperrors.NewValidationError("trading.pair", c.Trading.Pair, "is required")
	}
	if c.Trading.FeeRate < 0 || c.Trading.FeeRate >= 1 {
		return apperrors.NewValidationError("trading.fee_rate", c.Trading.FeeRate, "must be in [0, 1)")
	}
	if c.Trading.MinOrderKRW < 0 {
		return apperrors.NewValidationError("trading.min_order_krw", c.Trading.MinOrderKRW, "must be non-negative")
	}
	if c.Trading.HistorySize < 0 {
		return apperrors.NewValidationError("trading.history_size", c.Trading.HistorySize, "must be non-negative")
	}
	if c.Oracle.MaxAttempts < 1 {
		return apperrors.NewValidationError("oracle.max_attempts", c.Oracle.MaxAttempts, "must be at least 1")
	}
	if c.Oracle.Timeout <= 0 {
		return apperrors.NewValidationError("oracle.timeout", c.Oracle.Timeout, "must be positive")
	}
	if c.Store.Path == "" {
		return apperrors.NewValidationError("store.path", c.Store.Path, "is required")
	}
	return nil
}

// ValidateCredentials checks the secrets a live cycle needs.
func (c *Config) ValidateCredentials() error {
	if c.Credentials.OpenAIAPIKey == "" {
		return apperrors.NewValidationError("OPENAI_API_KEY", "", "is required")
	}
	if !c.IsPaperMode() && (c.Credentials.UpbitAccessKey == "" || c.Credentials.UpbitSecretKey == "") {
		return apperrors.NewValidationError("UPBIT_ACCESS_KEY/UPBIT_SECRET_KEY", "", "are required in live mode")
	}
	return nil
}

// IsPaperMode returns true if paper trading mode is enabled.
func (c *Config) IsPaperMode() bool {
	return c.Trading.Mode == "paper"
}
