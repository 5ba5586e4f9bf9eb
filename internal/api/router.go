// Package api provides the HTTP API for NumPort.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/numport/numport/internal/api/handler"
	"github.com/numport/numport/internal/api/middleware"
	"github.com/numport/numport/internal/auth"
	"github.com/numport/numport/internal/number"
	"github.com/numport/numport/internal/porting"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	AuthService    *auth.Service
	PortingService *porting.Service
	NumberService  *number.Service

	// DBPing backs the readiness and status endpoints; nil skips the check.
	DBPing func(ctx context.Context) error

	// GatewayState reports the carrier gateway breaker state; nil means no
	// carrier integration is configured.
	GatewayState func() string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "numport-api"
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
	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:      cfg.Version,
		BuildTime:    cfg.BuildTime,
		DBPing:       cfg.DBPing,
		GatewayState: cfg.GatewayState,
	})
	portingHandler := handler.NewPortingHandler(cfg.PortingService)
	adminHandler := handler.NewAdminPortingHandler(cfg.PortingService)
	numberHandler := handler.NewNumberHandler(cfg.NumberService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByUser(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Porting endpoints (authenticated)
		r.Route("/porting", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)

			// Creation and dry-run validation write nothing until they
			// pass every check, but still hit the number registry.
			r.With(expensiveRateLimit).Post("/requests", portingHandler.CreateRequest)
			r.With(expensiveRateLimit).Post("/requests:validate", portingHandler.ValidateRequest)
			r.Get("/estimate", portingHandler.Estimate)

			r.Route("/requests/{requestId}", func(r chi.Router) {
				r.Get("/", portingHandler.GetRequest)
				r.Get("/progress", portingHandler.GetProgress)
				r.Get("/history", portingHandler.GetHistory)
				r.Post("/cancel", portingHandler.CancelRequest)

				r.Route("/documents", func(r chi.Router) {
					r.Get("/", portingHandler.ListDocuments)
					r.Post("/", portingHandler.AddDocument)
					r.Delete("/{documentId}", portingHandler.DeleteDocument)
				})
			})
		})

		// Me endpoints (authenticated) - user-based rate limiting
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/porting/requests", portingHandler.ListMine)
			r.Get("/numbers", numberHandler.ListMine)
		})

		// Number endpoints (authenticated)
		r.Route("/numbers/{numberId}", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", numberHandler.GetNumber)
			r.Delete("/", numberHandler.ReleaseNumber)
			r.Get("/routing", numberHandler.GetRoutingConfig)
		})

		// Admin endpoints (authenticated, admin role) - for internal operations
		r.Route("/admin/porting", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin)
			r.Use(standardRateLimit)

			r.Get("/requests", adminHandler.ListRequests)
			r.Get("/requests/attention", adminHandler.ListRequiringAttention)
			r.Put("/requests/{requestId}/status", adminHandler.UpdateStatus)
			r.Put("/requests/{requestId}/notes", adminHandler.UpdateNotes)
		})
	})

	return r
}
