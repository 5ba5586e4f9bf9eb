// Package main provides the entrypoint for the NumPort background worker.
// It consumes carrier callback events from Pub/Sub and runs the periodic
// attention sweep over stalled and failed porting requests.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/numport/numport/internal/database"
	"github.com/numport/numport/internal/number"
	"github.com/numport/numport/internal/porting"
	"github.com/numport/numport/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "numport-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting NumPort worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// The worker drives the same porting engine as the API, minus the
	// carrier gateway: callbacks arrive here, they are never initiated here.
	numberService := number.NewService(number.ServiceConfig{
		Numbers: number.NewPostgresRepository(pool),
		Configs: number.NewPostgresConfigRepository(pool),
		Logger:  log,
	})
	portingService := porting.NewService(porting.ServiceConfig{
		Repository: porting.NewPostgresRepository(pool),
		Bridge:     numberService,
		Logger:     log,
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Start carrier event consumer when Pub/Sub is configured
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscription == "" {
		subscription = "carrier-events"
	}

	if projectID != "" {
		events, err := worker.NewEventHandler(ctx, worker.EventHandlerConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			PortingService:   portingService,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create carrier event handler")
		}
		defer events.Close()

		go func() {
			if err := events.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("carrier event handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - carrier events disabled")
	}

	// Start the attention sweep
	sweepConfig := worker.DefaultSweepConfig()
	if interval := os.Getenv("SWEEP_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			log.Fatal().Err(err).Str("value", interval).Msg("invalid SWEEP_INTERVAL")
		}
		sweepConfig.Interval = d
	}

	sweep := worker.NewSweepJob(worker.SweepJobConfig{
		Config:         sweepConfig,
		Logger:         log,
		PortingService: portingService,
	})
	go sweep.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
