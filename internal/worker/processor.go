// Package worker fulfils data rights requests in the background: it
// collects and encrypts export bundles, erases categories, verifies
// corrections, and sweeps for requests past their statutory deadline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
	"github.com/pehchaan-id/pehchaan-compliance/internal/export"
	"github.com/pehchaan-id/pehchaan-compliance/internal/secure"
	"github.com/pehchaan-id/pehchaan-compliance/internal/subjectdata"
	"github.com/pehchaan-id/pehchaan-compliance/internal/verification/apisetu"
)

// Verifier checks proposed attribute values against authoritative records.
type Verifier interface {
	Verify(ctx context.Context, request apisetu.VerificationRequest) (*apisetu.VerificationResult, error)
}

// CorrectionStore applies verified corrections to the stored profile.
type CorrectionStore interface {
	Apply(ctx context.Context, userID string, fields map[string]string) error
}

// Processor executes the per-request fulfilment jobs.
type Processor struct {
	requests    *datarights.Service
	collector   *subjectdata.Collector
	cipher      *secure.Cipher
	verifier    Verifier
	corrections CorrectionStore
	logger      zerolog.Logger
}

// ProcessorConfig holds the processor's dependencies.
type ProcessorConfig struct {
	Requests    *datarights.Service
	Collector   *subjectdata.Collector
	Cipher      *secure.Cipher
	Verifier    Verifier
	Corrections CorrectionStore
	Logger      zerolog.Logger
}

// NewProcessor creates a request processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		requests:    cfg.Requests,
		collector:   cfg.Collector,
		cipher:      cfg.Cipher,
		verifier:    cfg.Verifier,
		corrections: cfg.Corrections,
		logger:      cfg.Logger.With().Str("component", "request_processor").Logger(),
	}
}

// ProcessRequest moves one request from PENDING through fulfilment. A nil
// return means the message can be acked; requests that are gone or no
// longer pending are acked rather than redelivered forever.
func (p *Processor) ProcessRequest(ctx context.Context, requestID string) error {
	logger := p.logger.With().Str("request_id", requestID).Logger()

	req, err := p.requests.Start(ctx, requestID, datarights.ActorWorker)
	if err != nil {
		if errors.Is(err, datarights.ErrRequestNotFound) {
			logger.Warn().Msg("request no longer exists, dropping job")
			return nil
		}
		if errors.Is(err, datarights.ErrInvalidTransition) {
			logger.Info().Msg("request not pending, dropping job")
			return nil
		}
		return err
	}

	switch req.Type {
	case datarights.TypeAccess:
		err = p.fulfilExport(ctx, req, datarights.FormatJSON)
	case datarights.TypePortability:
		err = p.fulfilExport(ctx, req, req.Format)
	case datarights.TypeErasure:
		err = p.fulfilErasure(ctx, req)
	case datarights.TypeCorrection:
		err = p.fulfilCorrection(ctx, req)
	case datarights.TypeGrievance:
		// Grievances stay in PROCESSING until an officer resolves them.
		logger.Info().Msg("grievance queued for officer review")
		return nil
	default:
		logger.Error().Str("type", string(req.Type)).Msg("unknown request type")
		return nil
	}

	if err != nil {
		return fmt.Errorf("fulfilling %s request %s: %w", req.Type, requestID, err)
	}

	logger.Info().Str("type", string(req.Type)).Msg("request fulfilled")
	return nil
}

// fulfilExport serves ACCESS and PORTABILITY requests: collect, render,
// encrypt, complete.
func (p *Processor) fulfilExport(ctx context.Context, req *datarights.Request, format datarights.ExportFormat) error {
	bundle, err := p.collector.Collect(ctx, req.UserID, req.Categories)
	if err != nil {
		return err
	}

	rendered, err := export.Render(bundle, format)
	if err != nil {
		return err
	}

	sealed, err := p.cipher.Seal(rendered)
	if err != nil {
		return err
	}

	metadata := map[string]string{
		"format":      string(format),
		"contentType": export.ContentType(format),
		"categories":  strconv.Itoa(len(bundle.Categories)),
	}
	_, err = p.requests.Complete(ctx, req.ID, datarights.ActorWorker, sealed, metadata)
	return err
}

func (p *Processor) fulfilErasure(ctx context.Context, req *datarights.Request) error {
	categories := req.Categories
	if req.Scope == datarights.ScopeFull {
		categories = nil // every registered category
	}

	results, err := p.collector.Erase(ctx, req.UserID, categories)
	if err != nil {
		return err
	}

	var erased, tombstoned []string
	for _, result := range results {
		if result.Tombstoned {
			tombstoned = append(tombstoned, string(result.Category))
		} else {
			erased = append(erased, string(result.Category))
		}
	}

	metadata := map[string]string{"erased": strings.Join(erased, ",")}
	if len(tombstoned) > 0 {
		metadata["tombstoned"] = strings.Join(tombstoned, ",")
	}
	_, err = p.requests.Complete(ctx, req.ID, datarights.ActorWorker, nil, metadata)
	return err
}

func (p *Processor) fulfilCorrection(ctx context.Context, req *datarights.Request) error {
	result, err := p.verifier.Verify(ctx, apisetu.VerificationRequest{
		SubjectID: req.UserID,
		Fields:    req.Corrections,
	})
	if err != nil {
		return err
	}

	if !result.Verified {
		reason := "attribute verification failed"
		if len(result.Mismatches) > 0 {
			reason += ": " + strings.Join(result.Mismatches, ", ")
		}
		_, err = p.requests.Reject(ctx, req.ID, datarights.ActorWorker, reason)
		return err
	}

	if err := p.corrections.Apply(ctx, req.UserID, req.Corrections); err != nil {
		return err
	}

	metadata := map[string]string{"correctedFields": strconv.Itoa(len(req.Corrections))}
	_, err = p.requests.Complete(ctx, req.ID, datarights.ActorWorker, nil, metadata)
	return err
}

// DeadlineSweep logs every open request past its response deadline and
// returns how many it found. The escalation itself is an officer action.
func (p *Processor) DeadlineSweep(ctx context.Context) (int, error) {
	overdue, err := p.requests.ListOverdue(ctx)
	if err != nil {
		return 0, err
	}

	for _, req := range overdue {
		p.logger.Warn().
			Str("request_id", req.ID).
			Str("type", string(req.Type)).
			Str("status", string(req.Status)).
			Time("deadline", req.Deadline).
			Msg("request past statutory deadline")
	}

	return len(overdue), nil
}
