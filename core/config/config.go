package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds the Telegram Bot API settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// BotURL overrides the Bot API root, letting tests and local setups
	// point the client at a stub server.
	BotURL string `yaml:"bot_url" envconfig:"TELEGRAM_BOT_URL"`
	// WebhookToken is compared against the X-Telegram-Bot-Api-Secret-Token
	// header on inbound webhook requests. Empty disables the check.
	WebhookToken string `yaml:"webhook_token" envconfig:"TELEGRAM_WEBHOOK_TOKEN"`
}

// WebhookConfig specifies the inbound HTTP server settings.
type WebhookConfig struct {
	// URL is the public endpoint registered with Telegram via setwebhook.
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// SweepConfig controls cleanup of abandoned callback records.
type SweepConfig struct {
	// MaxAge is how long a callback record may sit unused before the
	// sweep command deletes it.
	MaxAge time.Duration `yaml:"max_age" envconfig:"SWEEP_MAX_AGE"`
}

// Config aggregates the application configuration.
type Config struct {
	Telegram TelegramConfig  `yaml:"telegram"`
	Webhook  WebhookConfig   `yaml:"webhook"`
	Database DatabaseConfig  `yaml:"database"`
	Logging  LoggingConfig   `yaml:"logging"`
	Sweep    SweepConfig     `yaml:"sweep"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if strings.TrimSpace(cfg.Telegram.BotURL) == "" {
		cfg.Telegram.BotURL = "https://api.telegram.org"
	}
	cfg.Telegram.BotURL = strings.TrimRight(cfg.Telegram.BotURL, "/")

	if strings.TrimSpace(cfg.Webhook.Listen) == "" {
		cfg.Webhook.Listen = "0.0.0.0"
	}
	if cfg.Webhook.Port == 0 {
		cfg.Webhook.Port = 8080
	}
	if cfg.Webhook.Port < 0 {
		return fmt.Errorf("webhook.port must be > 0")
	}

	if cfg.Sweep.MaxAge == 0 {
		cfg.Sweep.MaxAge = 7 * 24 * time.Hour
	}
	if cfg.Sweep.MaxAge < 0 {
		return fmt.Errorf("sweep.max_age must be positive")
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}
	return nil
}
