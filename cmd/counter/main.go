package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"vehicle-counter-go/internal/api"
	"vehicle-counter-go/internal/config"
	"vehicle-counter-go/internal/logging"
	"vehicle-counter-go/internal/services/capture"
	"vehicle-counter-go/internal/services/detection"
	"vehicle-counter-go/internal/services/events"
	"vehicle-counter-go/internal/services/messaging"
	"vehicle-counter-go/internal/services/pipeline"
	"vehicle-counter-go/internal/services/recorder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	closeLogs, err := logging.Setup(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer closeLogs()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Str("source", cfg.VideoSource).
		Int("count_lines", len(cfg.CountLines)).
		Int("count_zones", len(cfg.CountZones)).
		Int("port", cfg.Port).
		Msg("Starting vehicle counter")

	detector, err := detection.NewCascadeDetector(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("model", cfg.ModelPath).Msg("Failed to load detector model")
	}
	defer detector.Close()

	// Optional count event publishing over NATS.
	var eventService *events.Service
	if cfg.NatsEnabled {
		nats, err := messaging.NewService(cfg)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NatsURL).Msg("Failed to connect to NATS")
		}
		eventService = events.NewService(cfg, nats)
		eventService.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := eventService.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("Event publisher shutdown incomplete")
			}
			if err := nats.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("NATS shutdown incomplete")
			}
		}()
	}

	var rec *recorder.Service
	if cfg.RecordEnabled {
		rec = recorder.NewService(cfg)
	}

	p := pipeline.NewService(cfg, capture.NewService(cfg), detector, eventService, rec)

	server := api.NewServer(cfg, p)
	server.Setup()
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Status API failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		p.Stop()
		cancel()
	}()

	if err := p.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Pipeline stopped with error")
	}

	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("Status API forced to shutdown")
	}

	log.Info().Msg("Shutdown complete")
}
