package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	CMCAPIKey        string
	PolygonAPIKey    string
	RedisURL         string
	DatabaseURL      string
	TelegramBotToken string
	TelegramChatID   int64
	APIKey           string

	Port            int
	PollSecs        int
	SnapshotTTLSecs int
	EODTTLSecs      int
	DefaultSymbols  []string
}

func Load() *Config {
	cfg := &Config{
		CMCAPIKey:        os.Getenv("CMC_API_KEY"),
		PolygonAPIKey:    os.Getenv("POLYGON_API_KEY"),
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           os.Getenv("API_KEY"),
	}

	if cfg.CMCAPIKey == "" {
		log.Println("Warning: CMC_API_KEY not set, primary quotes will fail")
	}
	if cfg.PolygonAPIKey == "" {
		log.Println("Warning: POLYGON_API_KEY not set, EOD aggregation will fail")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, using in-process cache")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, snapshot history disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, Telegram bot disabled")
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		}
	}

	cfg.Port = 8080
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}

	cfg.PollSecs = 300
	if v := os.Getenv("POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollSecs = n
		}
	}

	cfg.SnapshotTTLSecs = 90
	if v := os.Getenv("SNAPSHOT_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SnapshotTTLSecs = n
		}
	}

	cfg.EODTTLSecs = 300
	if v := os.Getenv("EOD_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EODTTLSecs = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("DEFAULT_SYMBOLS")); v != "" {
		for _, part := range strings.Split(v, ",") {
			symbol := strings.ToUpper(strings.TrimSpace(part))
			if symbol != "" {
				cfg.DefaultSymbols = append(cfg.DefaultSymbols, symbol)
			}
		}
	}

	return cfg
}
