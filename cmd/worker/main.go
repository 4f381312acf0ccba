// Package main provides the entrypoint for the compliance worker. The
// worker consumes data rights jobs from Pub/Sub, fulfils them against the
// stores and the identity ledger, and sweeps for overdue requests.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/middleware"
	"github.com/pehchaan-id/pehchaan-compliance/internal/chain"
	"github.com/pehchaan-id/pehchaan-compliance/internal/config"
	"github.com/pehchaan-id/pehchaan-compliance/internal/consent"
	"github.com/pehchaan-id/pehchaan-compliance/internal/database"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
	"github.com/pehchaan-id/pehchaan-compliance/internal/secure"
	"github.com/pehchaan-id/pehchaan-compliance/internal/subjectdata"
	"github.com/pehchaan-id/pehchaan-compliance/internal/telemetry"
	"github.com/pehchaan-id/pehchaan-compliance/internal/verification/apisetu"
	"github.com/pehchaan-id/pehchaan-compliance/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// deadlineSweepInterval is how often the worker checks for requests past
// their statutory deadline.
const deadlineSweepInterval = 1 * time.Hour

func main() {
	const serviceName = "pehchaan-compliance-worker"

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

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
		Msg("starting compliance worker")

	// Initialize OpenTelemetry
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	jobMetrics, err := middleware.NewJobMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize job metrics")
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

	// Export bundles are sealed before they are stored. Outside production
	// an ephemeral key keeps local runs working; payloads sealed with it do
	// not survive a restart.
	encryptionKey := cfg.EncryptionKey
	if len(encryptionKey) == 0 {
		encryptionKey = make([]byte, config.EncryptionKeySize)
		if _, err := rand.Read(encryptionKey); err != nil {
			log.Fatal().Err(err).Msg("failed to generate ephemeral encryption key")
		}
		log.Warn().Msg("ENCRYPTION_KEY not set - using an ephemeral key")
	}
	cipher, err := secure.NewCipher(encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create cipher")
	}

	// Ledger and verification clients
	chainClient := chain.NewClient(chain.Config{
		RPCURL:  cfg.ChainRPCURL,
		Network: string(cfg.ChainNetwork),
	}, log)
	apisetuClient := apisetu.NewClient(apisetu.Config{
		BaseURL:      cfg.APISetuBaseURL,
		ClientID:     cfg.APISetuClientID,
		ClientSecret: cfg.APISetuClientSecret,
	}, log)

	// Subject data sources: relational stores, consents, and the five
	// ledger-backed categories.
	consentService := consent.NewService(consent.NewPostgresRepository(pool), log)
	resolver := subjectdata.NewPostgresAddressResolver(pool)
	tombstones := subjectdata.NewPostgresTombstoneStore(pool)

	sources := []subjectdata.Source{
		subjectdata.NewStoreSource(datarights.CategoryProfile, subjectdata.NewProfileStore(pool)),
		subjectdata.NewStoreSource(datarights.CategoryPII, subjectdata.NewPIIStore(pool)),
		subjectdata.NewStoreSource(datarights.CategoryActivity, subjectdata.NewActivityStore(pool)),
		subjectdata.NewConsentSource(consentService),
	}
	sources = append(sources, subjectdata.NewLedgerSources(chainClient, resolver, tombstones)...)
	collector := subjectdata.NewCollector(log, sources...)
	log.Info().Int("sources", len(sources)).Msg("subject data collector initialized")

	// Request lifecycle service. The worker transitions requests directly;
	// it does not publish follow-up jobs.
	dataRightsService := datarights.NewService(datarights.ServiceConfig{
		Repository: datarights.NewPostgresRepository(pool),
		Logger:     log,
	})

	processor := worker.NewProcessor(worker.ProcessorConfig{
		Requests:    dataRightsService,
		Collector:   collector,
		Cipher:      cipher,
		Verifier:    apisetuClient,
		Corrections: worker.NewPostgresCorrectionStore(pool),
		Logger:      log,
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, Version)
	})

	healthServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", healthServer.Addr).Msg("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Start the Pub/Sub consumer
	var handler *worker.PubSubHandler
	if cfg.PubSubProjectID != "" {
		handler, err = worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Processor:        processor,
			Metrics:          jobMetrics,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := handler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub handler")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler error")
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - only the deadline sweep will run")
	}

	// Periodic deadline sweep
	go func() {
		ticker := time.NewTicker(deadlineSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				count, err := processor.DeadlineSweep(ctx)
				jobMetrics.RecordJob("deadline_sweep", time.Since(start), err)
				if err != nil {
					log.Error().Err(err).Msg("deadline sweep failed")
					continue
				}
				log.Info().Int("overdue", count).Msg("deadline sweep completed")
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
