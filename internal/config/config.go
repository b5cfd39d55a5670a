package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"5"`
	RedisURL    string `env:"REDIS_URL"`
	PublicURL   string `env:"PUBLIC_URL" envDefault:"https://bountyhub.app"`

	// Server
	Port            int           `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Admin
	AdminAPIKey string `env:"ADMIN_API_KEY,required"`

	// Markets override (YAML)
	MarketsFile   string `env:"MARKETS_FILE"`
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Telegram ops log
	BotToken             string `env:"BOT_TOKEN"`
	LogTelegramChatID    int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int    `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration int    `env:"LOG_TOPIC_REGISTRATION"`
	LogTopicTaskReward   int    `env:"LOG_TOPIC_TASK_REWARD"`
	LogTopicCommission   int    `env:"LOG_TOPIC_COMMISSION"`
	LogTopicWithdrawal   int    `env:"LOG_TOPIC_WITHDRAWAL"`
	LogTopicGift         int    `env:"LOG_TOPIC_GIFT"`
	LogTopicVIP          int    `env:"LOG_TOPIC_VIP"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdminKey(key string) bool {
	return c.AdminAPIKey != "" && key == c.AdminAPIKey
}

func (c *Config) ReferralLink(code string) string {
	return fmt.Sprintf("%s/ref/%s", c.PublicURL, code)
}
