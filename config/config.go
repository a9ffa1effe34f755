package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime settings loaded from the environment.
type Config struct {
	Port                int    `env:"PORT" envDefault:"8080"`
	BaseURL             string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabasePath        string `env:"DATABASE_PATH" envDefault:"qrserve.db"`
	RateLimitWindowSecs int    `env:"RATE_LIMIT_WINDOW_SECS" envDefault:"60"`
	CacheSize           int    `env:"CACHE_SIZE" envDefault:"1000"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"INFO"`
	Environment         string `env:"ENVIRONMENT" envDefault:"development"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	// Missing .env files are fine, the environment wins either way.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
