// Package api provides the HTTP API for the compliance service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/handler"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/middleware"
	"github.com/pehchaan-id/pehchaan-compliance/internal/auth"
	"github.com/pehchaan-id/pehchaan-compliance/internal/consent"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
	"github.com/pehchaan-id/pehchaan-compliance/internal/health"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version           string
	BuildTime         string
	Logger            zerolog.Logger
	RequireTLS        bool
	Metrics           *middleware.Metrics
	JWTService        *auth.JWTService
	AuthService       *auth.Service
	DataRightsService *datarights.Service
	ConsentService    *consent.Service
	HealthRegistry    *health.Registry
	Providers         map[string]handler.BreakerStater
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind the load balancer
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.HealthRegistry, cfg.Providers)
	dataRightsHandler := handler.NewDataRightsHandler(cfg.DataRightsService)
	consentHandler := handler.NewConsentHandler(cfg.ConsentService)
	adminHandler := handler.NewAdminHandler(cfg.AuthService, cfg.DataRightsService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.JWTService)
	requireOfficer := middleware.RequireRole(auth.RoleOfficer)

	// Create rate limit middleware for different endpoint categories
	loginRateLimit := middleware.RateLimitByIP(middleware.LoginRateLimit)         // 10 req/min
	submitRateLimit := middleware.RateLimitByUser(middleware.SubmitRateLimit)     // 10 req/min per user
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min per user

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Data rights endpoints (authenticated)
		r.Route("/data-rights", func(r chi.Router) {
			r.Use(authMiddleware)

			// Submissions fan out background work, so the budget is tight.
			r.With(submitRateLimit).Post("/access-requests", dataRightsHandler.CreateAccessRequest)
			r.With(submitRateLimit).Post("/erasure-requests", dataRightsHandler.CreateErasureRequest)
			r.With(submitRateLimit).Post("/correction-requests", dataRightsHandler.CreateCorrectionRequest)
			r.With(submitRateLimit).Post("/portability-requests", dataRightsHandler.CreatePortabilityRequest)
			r.With(submitRateLimit).Post("/grievances", dataRightsHandler.CreateGrievance)

			r.Route("/requests", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", dataRightsHandler.ListRequests)
				r.Route("/{requestId}", func(r chi.Router) {
					r.Get("/", dataRightsHandler.GetRequest)
					r.Post("/cancel", dataRightsHandler.CancelRequest)
				})
			})
		})

		// Me endpoints (authenticated)
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/consents", consentHandler.GetConsents)
			r.Put("/consents", consentHandler.UpdateConsents)
		})

		// Admin endpoints - officer role required past login
		r.Route("/admin", func(r chi.Router) {
			r.With(loginRateLimit).Post("/login", adminHandler.Login)

			r.Route("/data-rights/requests", func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(requireOfficer)
				r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
				r.Get("/", adminHandler.ListRequests)
				r.Route("/{requestId}", func(r chi.Router) {
					r.Get("/audit", adminHandler.GetAuditTrail)
					r.Post("/start", adminHandler.StartRequest)
					r.Post("/complete", adminHandler.CompleteRequest)
					r.Post("/reject", adminHandler.RejectRequest)
				})
			})
		})
	})

	return r
}
