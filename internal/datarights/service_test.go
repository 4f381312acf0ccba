package datarights_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

type capturingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *capturingPublisher) PublishProcessRequest(_ context.Context, requestID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, requestID)
	return nil
}

func newTestService(pub datarights.JobPublisher) (*datarights.Service, *datarights.InMemoryRepository) {
	repo := datarights.NewInMemoryRepository()
	svc := datarights.NewService(datarights.ServiceConfig{
		Repository: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
	})
	return svc, repo
}

func TestSubmitAccess(t *testing.T) {
	pub := &capturingPublisher{}
	svc, _ := newTestService(pub)
	ctx := context.Background()

	result, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{
		Categories: []string{"profile", "identity"},
	})
	if err != nil {
		t.Fatalf("failed to submit access request: %v", err)
	}

	if !strings.HasPrefix(result.ID, "drr_") {
		t.Errorf("expected request ID to start with 'drr_', got %q", result.ID)
	}
	if result.Status != "PENDING" {
		t.Errorf("expected status PENDING, got %q", result.Status)
	}

	wantDeadline := result.SubmittedAt.Time().Add(datarights.ResponseWindow)
	if !result.Deadline.Time().Equal(wantDeadline) {
		t.Errorf("expected deadline %v, got %v", wantDeadline, result.Deadline.Time())
	}

	if len(pub.ids) != 1 || pub.ids[0] != result.ID {
		t.Errorf("expected processing job for %s, got %v", result.ID, pub.ids)
	}
}

func TestSubmitErasure_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     *models.ErasureRequestCreate
		wantField string
	}{
		{
			name:      "partial scope without categories",
			input:     &models.ErasureRequestCreate{Scope: "partial", Reason: "leaving the platform"},
			wantField: "categories",
		},
		{
			name:      "unknown category",
			input:     &models.ErasureRequestCreate{Scope: "partial", Categories: []string{"biometrics"}, Reason: "x"},
			wantField: "categories",
		},
		{
			name:      "missing scope",
			input:     &models.ErasureRequestCreate{Reason: "x"},
			wantField: "scope",
		},
		{
			name:      "unknown scope",
			input:     &models.ErasureRequestCreate{Scope: "some", Reason: "x"},
			wantField: "scope",
		},
		{
			name:      "missing reason",
			input:     &models.ErasureRequestCreate{Scope: "full"},
			wantField: "reason",
		},
		{
			name:      "reason too long",
			input:     &models.ErasureRequestCreate{Scope: "full", Reason: strings.Repeat("a", 501)},
			wantField: "reason",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitErasure(ctx, "usr_1", tt.input)

			var vErr *datarights.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field error on %q, got %+v", tt.wantField, vErr.Errors)
			}
		})
	}
}

func TestSubmitErasure_PartialWithCategories(t *testing.T) {
	svc, _ := newTestService(nil)

	result, err := svc.SubmitErasure(context.Background(), "usr_1", &models.ErasureRequestCreate{
		Scope:      "partial",
		Categories: []string{"activity", "pii"},
		Reason:     "minimize retained data",
	})
	if err != nil {
		t.Fatalf("failed to submit erasure request: %v", err)
	}
	if result.Scope != "partial" {
		t.Errorf("expected scope partial, got %q", result.Scope)
	}
}

func TestSubmitGrievance_DescriptionLimit(t *testing.T) {
	svc, _ := newTestService(nil)

	_, err := svc.SubmitGrievance(context.Background(), "usr_1", &models.GrievanceCreate{
		Category:    "delay",
		Description: strings.Repeat("d", 2001),
	})

	var vErr *datarights.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSubmitGrievance_RelatedRequestMustExist(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	unknown := "drr_does_not_exist"
	_, err := svc.SubmitGrievance(ctx, "usr_1", &models.GrievanceCreate{
		Category:         "delay",
		Description:      "no response within the statutory window",
		RelatedRequestID: &unknown,
	})

	var vErr *datarights.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// A grievance referencing the user's own earlier request is accepted.
	access, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if err != nil {
		t.Fatalf("failed to submit access request: %v", err)
	}

	result, err := svc.SubmitGrievance(ctx, "usr_1", &models.GrievanceCreate{
		Category:         "delay",
		Description:      "no response within the statutory window",
		RelatedRequestID: &access.ID,
	})
	if err != nil {
		t.Fatalf("failed to submit grievance: %v", err)
	}
	if result.RelatedRequestID == nil || *result.RelatedRequestID != access.ID {
		t.Errorf("expected related request %s, got %v", access.ID, result.RelatedRequestID)
	}
}

func TestSubmit_DuplicateOpenRequest(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{}); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	_, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if !errors.Is(err, datarights.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	// A different type is still allowed.
	if _, err := svc.SubmitPortability(ctx, "usr_1", &models.PortabilityRequestCreate{Format: "json"}); err != nil {
		t.Fatalf("different type should be allowed: %v", err)
	}

	// Another user is unaffected.
	if _, err := svc.SubmitAccess(ctx, "usr_2", &models.AccessRequestCreate{}); err != nil {
		t.Fatalf("other user should be allowed: %v", err)
	}
}

func TestCancel(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	req, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	// Another user cannot cancel it.
	if _, err := svc.Cancel(ctx, "usr_2", req.ID); !errors.Is(err, datarights.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound for foreign cancel, got %v", err)
	}

	cancelled, err := svc.Cancel(ctx, "usr_1", req.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != "CANCELLED" {
		t.Errorf("expected status CANCELLED, got %q", cancelled.Status)
	}

	// Cancelling again fails: CANCELLED is terminal.
	if _, err := svc.Cancel(ctx, "usr_1", req.ID); !errors.Is(err, datarights.ErrNotCancellable) {
		t.Errorf("expected ErrNotCancellable, got %v", err)
	}
}

func TestCancel_AfterProcessingStarted(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	req, err := svc.SubmitErasure(ctx, "usr_1", &models.ErasureRequestCreate{Scope: "full", Reason: "leaving"})
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	if _, err := svc.Start(ctx, req.ID, datarights.ActorWorker); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := svc.Cancel(ctx, "usr_1", req.ID); !errors.Is(err, datarights.ErrNotCancellable) {
		t.Errorf("expected ErrNotCancellable once processing started, got %v", err)
	}
}

func TestTransitions_GraphEnforced(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	req, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	// PENDING -> COMPLETED is not allowed; processing must start first.
	if _, err := svc.Complete(ctx, req.ID, datarights.ActorWorker, []byte("payload"), nil); !errors.Is(err, datarights.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Start(ctx, req.ID, datarights.ActorWorker); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done, err := svc.Complete(ctx, req.ID, datarights.ActorWorker, []byte("payload"), map[string]string{"categories": "profile"})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != datarights.StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	// Terminal: no further transitions.
	if _, err := svc.Reject(ctx, req.ID, "officer_1", "late"); !errors.Is(err, datarights.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on terminal request, got %v", err)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	req, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	var vErr *datarights.ValidationError
	if _, err := svc.Reject(ctx, req.ID, "officer_1", ""); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for empty reason, got %v", err)
	}

	rejected, err := svc.Reject(ctx, req.ID, "officer_1", "identity could not be verified")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != datarights.StatusRejected {
		t.Errorf("expected REJECTED, got %s", rejected.Status)
	}
}

func TestAuditTrail(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	req, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	if _, err := svc.Start(ctx, req.ID, datarights.ActorWorker); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Complete(ctx, req.ID, datarights.ActorWorker, nil, nil); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	trail, err := svc.AuditTrail(ctx, req.ID)
	if err != nil {
		t.Fatalf("audit trail failed: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(trail))
	}
	if trail[0].NewStatus != "PENDING" || trail[1].NewStatus != "PROCESSING" || trail[2].NewStatus != "COMPLETED" {
		t.Errorf("unexpected trail order: %+v", trail)
	}
}

func TestList_FiltersAndPagination(t *testing.T) {
	repo := datarights.NewInMemoryRepository()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := datarights.NewService(datarights.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return now },
	})
	ctx := context.Background()

	access, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	if _, err := svc.SubmitErasure(ctx, "usr_1", &models.ErasureRequestCreate{Scope: "full", Reason: "leaving"}); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	if _, err := svc.SubmitAccess(ctx, "usr_2", &models.AccessRequestCreate{}); err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	page, err := svc.List(ctx, "usr_1", datarights.ListOptions{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 requests for usr_1, got %d", len(page.Items))
	}

	page, err = svc.List(ctx, "usr_1", datarights.ListOptions{Type: datarights.TypeAccess})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != access.ID {
		t.Errorf("type filter broken: %+v", page.Items)
	}

	page, err = svc.ListAll(ctx, datarights.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(page.Items) != 2 || page.Meta.NextCursor == nil {
		t.Errorf("expected 2 items and a cursor, got %d items, cursor %v", len(page.Items), page.Meta.NextCursor)
	}
}

func TestListOverdue(t *testing.T) {
	repo := datarights.NewInMemoryRepository()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &now
	svc := datarights.NewService(datarights.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return *clock },
	})
	ctx := context.Background()

	req, err := svc.SubmitAccess(ctx, "usr_1", &models.AccessRequestCreate{})
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	overdue, err := svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("overdue failed: %v", err)
	}
	if len(overdue) != 0 {
		t.Fatalf("expected nothing overdue yet, got %d", len(overdue))
	}

	later := now.Add(datarights.ResponseWindow + time.Hour)
	clock = &later

	overdue, err = svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("overdue failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != req.ID {
		t.Errorf("expected %s overdue, got %+v", req.ID, overdue)
	}
}
