package datarights

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository, used in
// tests and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	requests map[string]*Request
	audits   map[string][]*StatusAudit
}

// NewInMemoryRepository creates a new in-memory request repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		requests: make(map[string]*Request),
		audits:   make(map[string][]*StatusAudit),
	}
}

// Get retrieves a request by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return copyRequest(req), nil
}

// GetByUserAndID retrieves a request scoped to its owner.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, id string) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok || req.UserID != userID {
		return nil, ErrRequestNotFound
	}
	return copyRequest(req), nil
}

// Create persists a new request.
func (r *InMemoryRepository) Create(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests[req.ID] = copyRequest(req)
	return nil
}

// Update persists changes to an existing request.
func (r *InMemoryRepository) Update(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[req.ID]; !ok {
		return ErrRequestNotFound
	}
	r.requests[req.ID] = copyRequest(req)
	return nil
}

// ListByUser returns the owner's requests, newest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.list(opts, func(req *Request) bool { return req.UserID == userID }), nil
}

// List returns requests across all users, newest first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.list(opts, func(*Request) bool { return true }), nil
}

func (r *InMemoryRepository) list(opts ListOptions, match func(*Request) bool) *ListResult {
	var all []*Request
	for _, req := range r.requests {
		if !match(req) {
			continue
		}
		if opts.Status != "" && req.Status != opts.Status {
			continue
		}
		if opts.Type != "" && req.Type != opts.Type {
			continue
		}
		all = append(all, req)
	}

	// ULID IDs sort lexicographically by creation time, so ordering by ID
	// descending matches newest-first.
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	if opts.Cursor != "" {
		for i, req := range all {
			if req.ID == opts.Cursor {
				all = all[i+1:]
				break
			}
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &ListResult{}
	if len(all) > limit {
		result.NextCursor = all[limit-1].ID
		all = all[:limit]
	}
	for _, req := range all {
		result.Items = append(result.Items, copyRequest(req))
	}
	return result
}

// HasOpenRequest reports whether the user has a non-terminal request of
// the given type.
func (r *InMemoryRepository) HasOpenRequest(_ context.Context, userID string, t RequestType) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if req.UserID == userID && req.Type == t && !req.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// ListOverdue returns non-terminal requests past their deadline.
func (r *InMemoryRepository) ListOverdue(_ context.Context, now time.Time) ([]*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var overdue []*Request
	for _, req := range r.requests {
		if req.Overdue(now) {
			overdue = append(overdue, copyRequest(req))
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].Deadline.Before(overdue[j].Deadline) })
	return overdue, nil
}

// AppendAudit records a status transition.
func (r *InMemoryRepository) AppendAudit(_ context.Context, entry *StatusAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := *entry
	r.audits[entry.RequestID] = append(r.audits[entry.RequestID], &e)
	return nil
}

// AuditTrail returns the transitions for a request, oldest first.
func (r *InMemoryRepository) AuditTrail(_ context.Context, requestID string) ([]*StatusAudit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.audits[requestID]
	out := make([]*StatusAudit, len(entries))
	for i, e := range entries {
		c := *e
		out[i] = &c
	}
	return out, nil
}

// copyRequest creates a deep copy of a request.
func copyRequest(req *Request) *Request {
	if req == nil {
		return nil
	}

	c := *req
	if req.Categories != nil {
		c.Categories = append([]Category(nil), req.Categories...)
	}
	if req.RelatedRequestID != nil {
		v := *req.RelatedRequestID
		c.RelatedRequestID = &v
	}
	if req.CompletedAt != nil {
		v := *req.CompletedAt
		c.CompletedAt = &v
	}
	if req.ResponsePayload != nil {
		c.ResponsePayload = append([]byte(nil), req.ResponsePayload...)
	}
	if req.Corrections != nil {
		c.Corrections = make(map[string]string, len(req.Corrections))
		for k, v := range req.Corrections {
			c.Corrections[k] = v
		}
	}
	if req.Metadata != nil {
		c.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
