package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	ChatAPIBaseURL string `env:"CHAT_API_BASE_URL"`
	BotToken       string `env:"BOT_TOKEN"`

	GuildID               string `env:"GUILD_ID"`
	AnnouncementChannelID string `env:"ANNOUNCEMENT_CHANNEL_ID"`
	ModReviewChannelID    string `env:"MOD_REVIEW_CHANNEL_ID"`
	HostRoleID            string `env:"HOST_ROLE_ID"`

	InteractionSecret         string `env:"INTERACTION_SECRET"`
	ContactIntegrationEnabled bool   `env:"CONTACT_INTEGRATION_ENABLED" default:"false"`

	NotifyRatePerSecond float64 `env:"NOTIFY_RATE_PER_SECOND" default:"5"`
	NotifyBurst         int     `env:"NOTIFY_BURST" default:"10"`

	// RedisURL selects the session store backend: empty runs the in-memory
	// store, anything else the Redis-backed one.
	RedisURL string `env:"REDIS_URL"`

	SessionIdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"30m"`
	SessionReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" default:"5m"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"CHAT_API_BASE_URL":       cfg.ChatAPIBaseURL,
		"BOT_TOKEN":               cfg.BotToken,
		"GUILD_ID":                cfg.GuildID,
		"ANNOUNCEMENT_CHANNEL_ID": cfg.AnnouncementChannelID,
		"MOD_REVIEW_CHANNEL_ID":   cfg.ModReviewChannelID,
		"HOST_ROLE_ID":            cfg.HostRoleID,
		"INTERACTION_SECRET":      cfg.InteractionSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.InteractionSecret) < 16 {
		return fmt.Errorf("INTERACTION_SECRET must be at least 16 characters, got %d", len(cfg.InteractionSecret))
	}

	if cfg.NotifyRatePerSecond <= 0 {
		return fmt.Errorf("NOTIFY_RATE_PER_SECOND must be positive, got %v", cfg.NotifyRatePerSecond)
	}

	if cfg.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %v", cfg.SessionIdleTimeout)
	}

	return nil
}
