package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.BotURL != "https://api.telegram.org" {
		t.Errorf("BotURL = %q", cfg.Telegram.BotURL)
	}
	if cfg.Webhook.Listen != "0.0.0.0" || cfg.Webhook.Port != 8080 {
		t.Errorf("webhook defaults = %s:%d", cfg.Webhook.Listen, cfg.Webhook.Port)
	}
	if cfg.Sweep.MaxAge != 7*24*time.Hour {
		t.Errorf("sweep max age = %v", cfg.Sweep.MaxAge)
	}
	if cfg.Database.SSLMode != "disable" || cfg.Database.MaxConnections != 10 {
		t.Errorf("database defaults = %q/%d", cfg.Database.SSLMode, cfg.Database.MaxConnections)
	}
}

func TestNormalizeTrimsBotURL(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.BotURL = "https://tg.example.com/"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.BotURL != "https://tg.example.com" {
		t.Errorf("BotURL = %q, want trailing slash removed", cfg.Telegram.BotURL)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := &Config{}
	if err := Normalize(cfg); err == nil {
		t.Fatal("empty telegram token accepted")
	}
}
