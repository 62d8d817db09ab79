package main

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/jon4hz/announcement_bot/announce"
)

type Config struct {
	Token    string  `env:"BOTTOKEN"`
	DataDir  string  `env:"ANNOUNCE_DATA_DIR" envDefault:"."`
	Database string  `env:"ANNOUNCE_DB"       envDefault:"announcements.db"`
	ChatID   int64   `env:"ANNOUNCE_CHAT_ID"`
	Admins   []int64 `env:"ANNOUNCE_ADMINS"   envSeparator:","`
	Fallback string  `env:"ANNOUNCE_FALLBACK"`
	Watch    bool    `env:"ANNOUNCE_WATCH"`
	Rate     float64 `env:"ANNOUNCE_RATE"     envDefault:"1"`
	LogLevel string  `env:"LOG_LEVEL"         envDefault:"info"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Fallback == "" {
		cfg.Fallback = announce.DefaultFallback
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	return cfg, nil
}

func (c Config) validateServe() error {
	if c.Token == "" {
		return errors.New("BOTTOKEN is not set")
	}
	return nil
}

func (c Config) isAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
