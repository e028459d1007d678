// Package config loads the console's settings from a YAML file plus a
// local .env for the secrets that should not live in the repo.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// BaseURL of the backend. May be empty; the console then listens for
	// the backend's LAN discovery beacon to find it.
	BaseURL string `yaml:"base_url"`
	// DBPath is the local sqlite file for profile and stats.
	DBPath string `yaml:"db_path" validate:"required"`
	// TelegramChatID is the staff chat alerts go to. Zero disables the
	// Telegram sink together with an empty token.
	TelegramChatID int64 `yaml:"telegram_chat_id"`

	// TelegramToken comes from the environment, never from YAML.
	TelegramToken string `yaml:"-"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal YAML: %w", err)
	}

	if err = validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	// .env is optional; plain environment variables work just as well.
	_ = godotenv.Load()

	cfg.TelegramToken = os.Getenv("TG_TOKEN")
	if v := os.Getenv("GAMEDESK_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("GAMEDESK_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse GAMEDESK_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	return &cfg, nil
}
