package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	AllowedUser   string
	DBPath        string
	HTTPAddr      string
	WebhookURL    string
}

func Load() (*Config, error) {
	// .env is optional; deployments may set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		AllowedUser:   os.Getenv("TELEGRAM_ALLOWED_USER"),
		DBPath:        os.Getenv("DB_PATH"),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
		WebhookURL:    os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if cfg.AllowedUser == "" {
		return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER is not set")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "dompet.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8787"
	}

	return cfg, nil
}
