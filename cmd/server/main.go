package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fourinarow/internal/analytics"
	"fourinarow/internal/config"
	"fourinarow/internal/server"
	"fourinarow/internal/storage"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	if cfg.PostgresURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			log.Warn().Err(err).Msg("postgres disabled")
		} else {
			if err := pg.EnsureTables(ctx); err != nil {
				log.Warn().Err(err).Msg("postgres ensure tables failed")
			}
			defer pg.Close()
			store = pg
		}
	}

	var tally storage.Tally = storage.NewMemoryTally()
	if cfg.RedisURL != "" {
		rt, err := storage.NewRedisTally(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			log.Warn().Err(err).Msg("redis disabled, keeping wins in memory")
		} else {
			defer rt.Close()
			tally = rt
		}
	}

	var publisher analytics.Publisher
	if producer := analytics.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic); producer != nil {
		defer producer.Close()
		publisher = producer
	}

	srv := server.New(server.Config{
		Depth:         cfg.SearchDepth,
		Parallel:      cfg.SearchParallel,
		IdleTimeout:   cfg.IdleTimeout,
		SweepInterval: cfg.SweepInterval,
		StaticDir:     cfg.StaticDir,
		Store:         store,
		Tally:         tally,
		Analytics:     publisher,
	})
	go srv.Sweep(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Addr).Int("depth", cfg.SearchDepth).Bool("parallel", cfg.SearchParallel).Msg("server listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}
