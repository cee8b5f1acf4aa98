package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"fourinarow/internal/analytics"
	"fourinarow/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroup,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("analytics consumer listening")

	metrics := analytics.NewMetrics()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.Print()
			}
		}
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				metrics.Print()
				return
			}
			log.Fatal().Err(err).Msg("read error")
		}
		var e analytics.Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			log.Warn().Err(err).Msg("failed to unmarshal event")
			continue
		}
		metrics.Record(e)

		log.Debug().
			Str("event", e.Event).
			Interface("gameId", e.Payload["gameId"]).
			Interface("outcome", e.Payload["outcome"]).
			Msg("event")
	}
}
