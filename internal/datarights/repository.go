package datarights

import (
	"context"
	"errors"
	"time"
)

// Repository errors.
var (
	ErrRequestNotFound = errors.New("data rights request not found")
)

// ListOptions controls filtering and pagination for request listings.
type ListOptions struct {
	// Status filters by status when non-empty.
	Status Status

	// Type filters by request type when non-empty.
	Type RequestType

	// Limit caps the number of returned items. Zero means the default (50).
	Limit int

	// Cursor is the ID of the last item from the previous page.
	Cursor string
}

// ListResult is a page of requests.
type ListResult struct {
	Items      []*Request
	NextCursor string
}

// Repository defines persistence for data rights requests and their
// status audit trail.
type Repository interface {
	// Get retrieves a request by ID.
	Get(ctx context.Context, id string) (*Request, error)

	// GetByUserAndID retrieves a request scoped to its owner.
	GetByUserAndID(ctx context.Context, userID, id string) (*Request, error)

	// Create persists a new request.
	Create(ctx context.Context, req *Request) error

	// Update persists changes to an existing request.
	Update(ctx context.Context, req *Request) error

	// ListByUser returns the owner's requests, newest first.
	ListByUser(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)

	// List returns requests across all users, newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// HasOpenRequest reports whether the user already has a non-terminal
	// request of the given type.
	HasOpenRequest(ctx context.Context, userID string, t RequestType) (bool, error)

	// ListOverdue returns non-terminal requests whose deadline is before now.
	ListOverdue(ctx context.Context, now time.Time) ([]*Request, error)

	// AppendAudit records a status transition.
	AppendAudit(ctx context.Context, entry *StatusAudit) error

	// AuditTrail returns the transitions for a request, oldest first.
	AuditTrail(ctx context.Context, requestID string) ([]*StatusAudit, error)
}
