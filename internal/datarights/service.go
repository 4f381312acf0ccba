package datarights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
)

// Service errors.
var (
	// ErrDuplicateRequest is returned when the user already has an open
	// request of the same type.
	ErrDuplicateRequest = errors.New("an open request of this type already exists")

	// ErrInvalidTransition is returned when a status change violates the
	// transition graph.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotCancellable is returned when a cancel is attempted on a request
	// that has left the pending state.
	ErrNotCancellable = errors.New("request can no longer be cancelled")
)

// ValidationError carries structured field errors from input validation.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// IdempotencyGuard prevents concurrent duplicate submissions. Reserve
// returns false when the key is already held.
type IdempotencyGuard interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// JobPublisher enqueues background processing for submitted requests.
type JobPublisher interface {
	PublishProcessRequest(ctx context.Context, requestID string) error
}

// ActorWorker is the audit actor recorded for automated transitions.
const ActorWorker = "worker"

// submitGuardTTL bounds how long a submission reservation is held if the
// insert never completes.
const submitGuardTTL = 30 * time.Second

// ServiceConfig holds dependencies for the data rights service.
type ServiceConfig struct {
	Repository Repository
	Guard      IdempotencyGuard
	Publisher  JobPublisher
	Logger     zerolog.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Service coordinates the data-subject-rights request lifecycle.
type Service struct {
	repo      Repository
	guard     IdempotencyGuard
	publisher JobPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new data rights service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      cfg.Repository,
		guard:     cfg.Guard,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		now:       now,
	}
}

// SubmitAccess creates an ACCESS request.
func (s *Service) SubmitAccess(ctx context.Context, userID string, input *models.AccessRequestCreate) (*models.DataRightsRequest, error) {
	if errs := input.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	req := s.newRequest(userID, TypeAccess)
	req.Categories = toCategories(input.Categories)
	req.Reason = input.Reason

	return s.submit(ctx, req)
}

// SubmitErasure creates an ERASURE request.
func (s *Service) SubmitErasure(ctx context.Context, userID string, input *models.ErasureRequestCreate) (*models.DataRightsRequest, error) {
	if errs := input.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	req := s.newRequest(userID, TypeErasure)
	req.Scope = ErasureScope(input.Scope)
	req.Categories = toCategories(input.Categories)
	req.Reason = input.Reason

	return s.submit(ctx, req)
}

// SubmitCorrection creates a CORRECTION request.
func (s *Service) SubmitCorrection(ctx context.Context, userID string, input *models.CorrectionRequestCreate) (*models.DataRightsRequest, error) {
	if errs := input.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	req := s.newRequest(userID, TypeCorrection)
	req.Corrections = input.Corrections
	req.Reason = input.Reason

	return s.submit(ctx, req)
}

// SubmitPortability creates a PORTABILITY request.
func (s *Service) SubmitPortability(ctx context.Context, userID string, input *models.PortabilityRequestCreate) (*models.DataRightsRequest, error) {
	if errs := input.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	req := s.newRequest(userID, TypePortability)
	req.Format = ExportFormat(input.Format)
	req.Categories = toCategories(input.Categories)

	return s.submit(ctx, req)
}

// SubmitGrievance creates a GRIEVANCE request.
func (s *Service) SubmitGrievance(ctx context.Context, userID string, input *models.GrievanceCreate) (*models.DataRightsRequest, error) {
	if errs := input.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	if input.RelatedRequestID != nil {
		// A grievance may only reference the user's own requests.
		if _, err := s.repo.GetByUserAndID(ctx, userID, *input.RelatedRequestID); err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				return nil, &ValidationError{Errors: []models.FieldError{
					{Field: "relatedRequestId", Message: "unknown request"},
				}}
			}
			return nil, err
		}
	}

	req := s.newRequest(userID, TypeGrievance)
	req.GrievanceCategory = GrievanceCategory(input.Category)
	req.Description = input.Description
	req.RelatedRequestID = input.RelatedRequestID

	return s.submit(ctx, req)
}

func (s *Service) newRequest(userID string, t RequestType) *Request {
	now := s.now()
	return &Request{
		ID:          "drr_" + ulid.Make().String(),
		UserID:      userID,
		Type:        t,
		Status:      StatusPending,
		SubmittedAt: now,
		Deadline:    now.Add(ResponseWindow),
		UpdatedAt:   now,
	}
}

func (s *Service) submit(ctx context.Context, req *Request) (*models.DataRightsRequest, error) {
	guardKey := fmt.Sprintf("datarights:submit:%s:%s", req.UserID, req.Type)
	if s.guard != nil {
		reserved, err := s.guard.Reserve(ctx, guardKey, submitGuardTTL)
		if err != nil {
			// The guard is best-effort; the repository check below still
			// holds the invariant.
			s.logger.Warn().Err(err).Msg("idempotency guard unavailable")
		} else if !reserved {
			return nil, ErrDuplicateRequest
		} else {
			defer func() {
				if releaseErr := s.guard.Release(ctx, guardKey); releaseErr != nil {
					s.logger.Warn().Err(releaseErr).Msg("failed to release idempotency key")
				}
			}()
		}
	}

	open, err := s.repo.HasOpenRequest(ctx, req.UserID, req.Type)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrDuplicateRequest
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	if err := s.repo.AppendAudit(ctx, s.auditEntry(req.ID, "", StatusPending, req.UserID, "submitted")); err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to record submission audit")
	}

	if s.publisher != nil {
		if err := s.publisher.PublishProcessRequest(ctx, req.ID); err != nil {
			// The deadline sweep picks up unprocessed requests, so a publish
			// failure is not fatal to the submission.
			s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to enqueue processing job")
		}
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("type", string(req.Type)).
		Time("deadline", req.Deadline).
		Msg("data rights request submitted")

	result := ToAPIRequest(req)
	return &result, nil
}

// Get retrieves a request scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, requestID string) (*models.DataRightsRequest, error) {
	req, err := s.repo.GetByUserAndID(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	result := ToAPIRequest(req)
	return &result, nil
}

// List retrieves the owner's requests, newest first.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) (*models.PagedDataRightsRequests, error) {
	result, err := s.repo.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	return toAPIPage(result, opts), nil
}

// ListAll retrieves requests across all users for officer review.
func (s *Service) ListAll(ctx context.Context, opts ListOptions) (*models.PagedDataRightsRequests, error) {
	result, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return toAPIPage(result, opts), nil
}

// Cancel cancels the owner's pending request. Once processing has started
// the request can no longer be withdrawn.
func (s *Service) Cancel(ctx context.Context, userID, requestID string) (*models.DataRightsRequest, error) {
	req, err := s.repo.GetByUserAndID(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status != StatusPending {
		return nil, ErrNotCancellable
	}

	if err := s.transition(ctx, req, StatusCancelled, userID, "cancelled by data principal"); err != nil {
		return nil, err
	}

	result := ToAPIRequest(req)
	return &result, nil
}

// Start moves a request from PENDING to PROCESSING.
func (s *Service) Start(ctx context.Context, requestID, actor string) (*Request, error) {
	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, StatusProcessing, actor, "processing started"); err != nil {
		return nil, err
	}
	return req, nil
}

// Complete moves a request from PROCESSING to COMPLETED, attaching the
// encrypted response payload and processing metadata.
func (s *Service) Complete(ctx context.Context, requestID, actor string, payload []byte, metadata map[string]string) (*Request, error) {
	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req.ResponsePayload = payload
	req.CompletedAt = &now
	if len(metadata) > 0 {
		if req.Metadata == nil {
			req.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			req.Metadata[k] = v
		}
	}

	if err := s.transition(ctx, req, StatusCompleted, actor, "completed"); err != nil {
		return nil, err
	}
	return req, nil
}

// Reject moves a request to REJECTED with a mandatory reason.
func (s *Service) Reject(ctx context.Context, requestID, actor, reason string) (*Request, error) {
	if reason == "" {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "reason", Message: "is required"},
		}}
	}

	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, StatusRejected, actor, reason); err != nil {
		return nil, err
	}
	return req, nil
}

// AuditTrail returns the status transitions for a request, oldest first.
func (s *Service) AuditTrail(ctx context.Context, requestID string) ([]models.StatusAuditEntry, error) {
	entries, err := s.repo.AuditTrail(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out := make([]models.StatusAuditEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.StatusAuditEntry{
			ID:             e.ID,
			PreviousStatus: string(e.PreviousStatus),
			NewStatus:      string(e.NewStatus),
			Actor:          e.Actor,
			Reason:         e.Reason,
			At:             models.Timestamp(e.At),
		})
	}
	return out, nil
}

// ListOverdue returns non-terminal requests past their statutory deadline.
func (s *Service) ListOverdue(ctx context.Context) ([]*Request, error) {
	return s.repo.ListOverdue(ctx, s.now())
}

// transition validates and applies a status change, persisting the request
// and its audit entry.
func (s *Service) transition(ctx context.Context, req *Request, next Status, actor, reason string) error {
	if !req.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.Status, next)
	}

	previous := req.Status
	req.Status = next
	req.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, req); err != nil {
		req.Status = previous
		return err
	}

	if err := s.repo.AppendAudit(ctx, s.auditEntry(req.ID, previous, next, actor, reason)); err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to record transition audit")
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("from", string(previous)).
		Str("to", string(next)).
		Str("actor", actor).
		Msg("request status changed")
	return nil
}

func (s *Service) auditEntry(requestID string, prev, next Status, actor, reason string) *StatusAudit {
	return &StatusAudit{
		ID:             "aud_" + ulid.Make().String(),
		RequestID:      requestID,
		PreviousStatus: prev,
		NewStatus:      next,
		Actor:          actor,
		Reason:         reason,
		At:             s.now(),
	}
}

func toCategories(in []string) []Category {
	if len(in) == 0 {
		return nil
	}
	out := make([]Category, len(in))
	for i, c := range in {
		out[i] = Category(c)
	}
	return out
}

// ToAPIRequest converts a domain request into its API representation.
func ToAPIRequest(req *Request) models.DataRightsRequest {
	out := models.DataRightsRequest{
		ID:               req.ID,
		Type:             string(req.Type),
		Status:           string(req.Status),
		Categories:       categoryStrings(req.Categories),
		Scope:            string(req.Scope),
		Format:           string(req.Format),
		Category:         string(req.GrievanceCategory),
		Description:      req.Description,
		RelatedRequestID: req.RelatedRequestID,
		Reason:           req.Reason,
		SubmittedAt:      models.Timestamp(req.SubmittedAt),
		Deadline:         models.Timestamp(req.Deadline),
		Metadata:         req.Metadata,
	}
	if req.CompletedAt != nil {
		t := models.Timestamp(*req.CompletedAt)
		out.CompletedAt = &t
	}
	return out
}

func toAPIPage(result *ListResult, opts ListOptions) *models.PagedDataRightsRequests {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	items := make([]models.DataRightsRequest, 0, len(result.Items))
	for _, req := range result.Items {
		items = append(items, ToAPIRequest(req))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedDataRightsRequests{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}
}
