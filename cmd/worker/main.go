// Package main provides the entrypoint for the AccessPath background worker.
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

	"github.com/accesspath/accesspath/internal/database"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
	"github.com/accesspath/accesspath/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "accesspath-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AccessPath worker")

	// Worker also exposes a health endpoint for Cloud Run.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

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

	obstacleRepo := obstacle.NewPostgresRepository(pool)
	priorityService := priority.NewService(priority.ServiceConfig{
		Repo:      obstacleRepo,
		Snapshots: priority.NewPostgresSnapshotRepository(pool),
		Logger:    log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:          worker.DefaultRefreshConfig(),
		Logger:          log,
		PriorityService: priorityService,
		ObstacleRepo:    obstacleRepo,
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
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Prefer Pub/Sub-driven jobs; fall back to a local ticker when no
	// subscription is configured (local development).
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("pubsub not configured, running on local interval")

		interval := 15 * time.Minute
		if raw := os.Getenv("REFRESH_INTERVAL"); raw != "" {
			if parsed, parseErr := time.ParseDuration(raw); parseErr == nil {
				interval = parsed
			}
		}

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refreshJob.Run(ctx)
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
