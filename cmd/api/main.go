// Package main provides the entrypoint for the compliance API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/handler"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/middleware"
	"github.com/pehchaan-id/pehchaan-compliance/internal/auth"
	"github.com/pehchaan-id/pehchaan-compliance/internal/cache"
	"github.com/pehchaan-id/pehchaan-compliance/internal/chain"
	"github.com/pehchaan-id/pehchaan-compliance/internal/config"
	"github.com/pehchaan-id/pehchaan-compliance/internal/consent"
	"github.com/pehchaan-id/pehchaan-compliance/internal/database"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
	"github.com/pehchaan-id/pehchaan-compliance/internal/health"
	"github.com/pehchaan-id/pehchaan-compliance/internal/jobs"
	"github.com/pehchaan-id/pehchaan-compliance/internal/telemetry"
	"github.com/pehchaan-id/pehchaan-compliance/internal/verification/apisetu"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "pehchaan-compliance-api"

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting compliance API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
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

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	pool, err := database.Connect(ctx, database.Config{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("database connected")

	// Connect to Redis for the submission idempotency guard
	redisClient, err := cache.Connect(ctx, cache.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close redis client")
		}
	}()
	log.Info().Str("addr", cfg.RedisAddr()).Msg("redis connected")

	// Initialize the job publisher (may be nil when Pub/Sub is not configured)
	var publisher *jobs.Publisher
	if cfg.PubSubProjectID != "" {
		publisher, err = jobs.NewPublisher(ctx, jobs.PublisherConfig{
			ProjectID: cfg.PubSubProjectID,
			TopicName: cfg.PubSubTopic,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create job publisher")
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close job publisher")
			}
		}()
		log.Info().Str("topic", cfg.PubSubTopic).Msg("job publisher initialized")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - requests will stay pending until a worker picks them up manually")
	}

	// Initialize JWT service
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSecret,
		Issuer:     "https://api.pehchaan.id",
		Audience:   "pehchaan-compliance",
	})

	// Initialize auth service for officer logins
	officerRepo := auth.NewPostgresOfficerRepository(pool)
	hasher := auth.NewHasher(cfg.BcryptCost)
	authService := auth.NewService(officerRepo, hasher, jwtService, log)
	log.Info().Msg("auth service initialized")

	// Initialize data rights service
	requestRepo := datarights.NewPostgresRepository(pool)
	serviceCfg := datarights.ServiceConfig{
		Repository: requestRepo,
		Guard:      cache.NewGuard(redisClient),
		Logger:     log,
	}
	if publisher != nil {
		serviceCfg.Publisher = publisher
	}
	dataRightsService := datarights.NewService(serviceCfg)
	log.Info().Msg("data rights service initialized")

	// Initialize consent service
	consentService := consent.NewService(consent.NewPostgresRepository(pool), log)
	log.Info().Msg("consent service initialized")

	// Outbound providers reported on /v1/ops/status
	chainClient := chain.NewClient(chain.Config{
		RPCURL:  cfg.ChainRPCURL,
		Network: string(cfg.ChainNetwork),
	}, log)
	apisetuClient := apisetu.NewClient(apisetu.Config{
		BaseURL:      cfg.APISetuBaseURL,
		ClientID:     cfg.APISetuClientID,
		ClientSecret: cfg.APISetuClientSecret,
	}, log)

	registry := health.NewRegistry(
		health.NewPostgresChecker(pool),
		health.NewRedisChecker(redisClient.Client),
	)

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		RequireTLS:        cfg.Env == config.EnvProduction,
		Metrics:           metrics,
		JWTService:        jwtService,
		AuthService:       authService,
		DataRightsService: dataRightsService,
		ConsentService:    consentService,
		HealthRegistry:    registry,
		Providers: map[string]handler.BreakerStater{
			"chain-rpc": chainClient,
			"apisetu":   apisetuClient,
		},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
