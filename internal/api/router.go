// Package api provides the HTTP API for AccessPath.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/accesspath/accesspath/internal/api/handler"
	"github.com/accesspath/accesspath/internal/api/middleware"
	"github.com/accesspath/accesspath/internal/auth"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	AuthService     *auth.Service
	ObstacleService *obstacle.Service
	PriorityService *priority.Service
	DBPing          handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "accesspath-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DBPing)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	obstacleHandler := handler.NewObstacleHandler(cfg.ObstacleService, cfg.PriorityService)
	metadataHandler := handler.NewMetadataHandler()

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	staffOnly := middleware.RequireRole(auth.RoleStaff)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			// logout-all and me require authentication
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
			r.With(authMiddleware).Get("/me", authHandler.Me)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
			r.Get("/transitions", metadataHandler.GetTransitions)
		})

		// Obstacle endpoints
		r.Route("/obstacles", func(r chi.Router) {
			r.Use(standardRateLimit)

			// Public reads and community writes
			r.Get("/", obstacleHandler.List)
			r.Post("/", obstacleHandler.Create)

			// Ranking is the expensive full-set pipeline
			r.With(expensiveRateLimit).Get("/ranked", obstacleHandler.Ranked)
			r.Get("/stats", obstacleHandler.Stats)

			r.Route("/{obstacleId}", func(r chi.Router) {
				r.Get("/", obstacleHandler.Get)
				r.Get("/priority", obstacleHandler.Priority)
				r.Post("/votes", obstacleHandler.Vote)

				// Admin-only review operations
				r.Group(func(r chi.Router) {
					r.Use(authMiddleware)
					r.Use(middleware.RateLimitByAdmin(middleware.StandardRateLimit))
					r.With(staffOnly).Patch("/status", obstacleHandler.ChangeStatus)
					r.Get("/history", obstacleHandler.History)
				})
			})
		})
	})

	return r
}
