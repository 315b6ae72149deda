// Package config loads the bot configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" env-default:"local"`
	BotToken string `env:"BOT_TOKEN"`
	AdminID  int64  `env:"ADMIN_ID" env-default:"7378889303"`

	APIURL  string `env:"API_URL" env-default:"https://api.gold-api.com/price/XAU"`
	Symbols string `env:"SYMBOLS" env-default:"XAUUSD,EURUSD,GBPUSD"`

	DBPath string `env:"DB_PATH" env-default:"signals.db"`

	SignalTime        string `env:"SIGNAL_TIME" env-default:"09:00"`
	CheckExpireHours  int    `env:"CHECK_EXPIRE_HOURS" env-default:"1"`
	NotifyBeforeHours int    `env:"NOTIFY_BEFORE_HOURS" env-default:"6"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.BotToken == "" {
		// Older deployments export the credential under the long name.
		cfg.BotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}
	if cfg.CheckExpireHours <= 0 {
		return nil, errors.New("CHECK_EXPIRE_HOURS must be positive")
	}
	if cfg.NotifyBeforeHours <= 0 {
		return nil, errors.New("NOTIFY_BEFORE_HOURS must be positive")
	}
	if len(cfg.SymbolList()) == 0 {
		return nil, errors.New("SYMBOLS is empty")
	}

	return &cfg, nil
}

// SymbolList splits the configured symbol set, dropping empty entries.
func (c *Config) SymbolList() []string {
	parts := strings.Split(c.Symbols, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) CheckExpireEvery() time.Duration {
	return time.Duration(c.CheckExpireHours) * time.Hour
}

func (c *Config) NotifyBeforeWindow() int64 {
	return int64(c.NotifyBeforeHours) * 3600
}
