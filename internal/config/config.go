package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultHTTPTimeout = 10 * time.Second

type Config struct {
	BotToken    string
	APIURL      string
	HTTPTimeout time.Duration
}

func Load() Config {
	// START names the env file to use (.env-local, .env.docker, ...);
	// empty START falls back to the plain process environment.
	if envFile := os.Getenv("START"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("Env file %s not found", envFile)
		}
	}

	if os.Getenv("BOT_TOKEN") == "" {
		log.Fatalf("BOT_TOKEN is not set in environment")
	}
	if os.Getenv("API_URL") == "" {
		log.Fatalf("API_URL is not set in environment")
	}

	timeout := defaultHTTPTimeout
	if raw := os.Getenv("HTTP_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			log.Fatalf("HTTP_TIMEOUT_SECONDS is invalid: %s", raw)
		}
		timeout = time.Duration(seconds) * time.Second
	}

	return Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		APIURL:      os.Getenv("API_URL"),
		HTTPTimeout: timeout,
	}
}
