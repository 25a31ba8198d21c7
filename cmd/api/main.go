// Package main provides the entrypoint for the AccessPath API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/accesspath/accesspath/internal/api"
	"github.com/accesspath/accesspath/internal/api/middleware"
	"github.com/accesspath/accesspath/internal/audit"
	"github.com/accesspath/accesspath/internal/auth"
	"github.com/accesspath/accesspath/internal/database"
	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
	"github.com/accesspath/accesspath/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "accesspath-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AccessPath API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize auth repositories and service
	adminRepo := auth.NewPostgresAdminRepository(pool)
	refreshRepo := auth.NewPostgresRefreshTokenRepository(pool)

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     "https://api.accesspath.ph",
		Audience:   "accesspath-api",
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:  jwtService,
		AdminRepo:   adminRepo,
		RefreshRepo: refreshRepo,
	})
	log.Info().Msg("auth service initialized")

	// Initialize the audit trail. Reads go straight to Postgres;
	// writes go through the async fire-and-forget decorator so an
	// admin action is never blocked on audit logging.
	auditTrail := audit.NewPostgresRecorder(pool)
	asyncRecorder := audit.NewAsyncRecorder(audit.AsyncRecorderConfig{
		Recorder: auditTrail,
		Logger:   log,
	})
	defer asyncRecorder.Wait()

	// Initialize obstacle repository and service
	obstacleRepo := obstacle.NewPostgresRepository(pool)
	obstacleService := obstacle.NewService(obstacle.ServiceConfig{
		Repo:    obstacleRepo,
		Manager: lifecycle.NewManager(asyncRecorder),
		Trail:   auditTrail,
		Logger:  log,
	})
	log.Info().Msg("obstacle service initialized")

	// Initialize priority ranking service
	priorityService := priority.NewService(priority.ServiceConfig{
		Repo:      obstacleRepo,
		Snapshots: priority.NewPostgresSnapshotRepository(pool),
		Logger:    log,
	})
	log.Info().Msg("priority service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		AuthService:     authService,
		ObstacleService: obstacleService,
		PriorityService: priorityService,
		DBPing:          pool.Ping,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
