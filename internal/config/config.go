package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPAddr     string
	DBPath       string
	RabbitURL    string // empty disables event publishing
	ExchangeName string
	SeedOnStart  bool
}

// Load reads configuration from the environment, with a .env file applied
// first when present.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}
	cfg := Config{
		HTTPAddr:     env("BOOKSTORE_HTTP_ADDR", ":8080"),
		DBPath:       env("BOOKSTORE_DB_PATH", "./data/bookstore.db"),
		RabbitURL:    env("RABBITMQ_URL", ""),
		ExchangeName: env("EVENTS_EXCHANGE", "beyourshelf.events"),
		SeedOnStart:  env("BOOKSTORE_SEED", "1") != "0",
	}
	log.Info().
		Str("http", cfg.HTTPAddr).
		Str("db", cfg.DBPath).
		Bool("seed", cfg.SeedOnStart).
		Msg("config loaded")
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
