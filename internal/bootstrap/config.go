package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/openfintools/personalcapital/config"
)

// InitLogger initializes the structured logger. Output goes to stderr so
// payloads piped from stdout stay clean. PC_DEBUG lowers the level to
// debug, which is where the per-step login transitions are logged.
func InitLogger() *slog.Logger {
	level := slog.LevelInfo
	if _, ok := os.LookupEnv("PC_DEBUG"); ok {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from a local .env file (when present) and
// the process environment.
func LoadConfig() (config.AppConfig, error) {
	var cfg config.AppConfig
	if err := godotenv.Load(); err != nil && !errors.As(err, new(*os.PathError)) {
		return cfg, fmt.Errorf("load .env file: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}
