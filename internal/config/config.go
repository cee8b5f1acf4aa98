package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Addr           string
	SearchDepth    int
	SearchParallel bool
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
	StaticDir      string

	PostgresURL string

	RedisURL      string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	LogLevel  string
	LogPretty bool
}

// Load reads .env (if present) and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	// PORT wins when set (Render, Fly.io, Heroku...)
	addr := GetEnv("ADDR", ":8080")
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	return Config{
		Addr:           addr,
		SearchDepth:    GetEnvAsInt("SEARCH_DEPTH", 4),
		SearchParallel: GetEnvAsBool("SEARCH_PARALLEL", false),
		IdleTimeout:    GetEnvAsDuration("IDLE_TIMEOUT", 10*time.Minute),
		SweepInterval:  GetEnvAsDuration("SWEEP_INTERVAL", 30*time.Second),
		StaticDir:      GetEnv("STATIC_DIR", ""),
		PostgresURL:    GetEnv("POSTGRES_URL", GetEnv("DATABASE_URL", "")),
		RedisURL:       GetEnv("REDIS_URL", ""),
		RedisPassword:  GetEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:   GetEnvAsList("KAFKA_BROKERS"),
		KafkaTopic:     GetEnv("KAFKA_TOPIC", "game-events"),
		KafkaGroup:     GetEnv("KAFKA_GROUP", "analytics-consumer"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		LogPretty:      GetEnvAsBool("LOG_PRETTY", false),
	}
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return parsed
}

func GetEnvAsBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Bool("default", fallback).Msg("invalid bool, using default")
		return fallback
	}
	return parsed
}

// GetEnvAsDuration accepts plain seconds ("30") or a Go duration ("1m30s").
func GetEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	log.Warn().Str("key", key).Str("value", v).Dur("default", fallback).Msg("invalid duration, using default")
	return fallback
}

// GetEnvAsList splits a comma separated value, dropping blanks.
func GetEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
