package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/response"
	"github.com/pehchaan-id/pehchaan-compliance/internal/auth"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

// AdminHandler handles the compliance officer surface.
type AdminHandler struct {
	authService *auth.Service
	requests    *datarights.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(authService *auth.Service, requests *datarights.Service) *AdminHandler {
	return &AdminHandler{authService: authService, requests: requests}
}

// Login handles POST /v1/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	token, expiresAt, err := h.authService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(w, r, "invalid credentials")
			return
		}
		response.InternalError(w, r, "an unexpected error occurred")
		return
	}

	response.JSON(w, r, http.StatusOK, models.AdminLoginResponse{
		AccessToken: token,
		ExpiresAt:   models.Timestamp(expiresAt),
	})
}

// ListRequests handles GET /v1/admin/data-rights/requests, listing across
// all data principals.
func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	opts, errs := listOptionsFromQuery(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	page, err := h.requests.ListAll(r.Context(), opts)
	if err != nil {
		response.InternalError(w, r, "an unexpected error occurred")
		return
	}

	response.JSON(w, r, http.StatusOK, page)
}

// GetAuditTrail handles GET /v1/admin/data-rights/requests/{requestId}/audit.
func (h *AdminHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	trail, err := h.requests.AuditTrail(r.Context(), requestID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, trail)
}

// RejectRequest handles POST /v1/admin/data-rights/requests/{requestId}/reject.
func (h *AdminHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	var input models.RejectRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	rejected, err := h.requests.Reject(r.Context(), requestID, GetUserID(r.Context()), input.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, datarights.ToAPIRequest(rejected))
}

// StartRequest handles POST /v1/admin/data-rights/requests/{requestId}/start.
// It moves a pending request to PROCESSING under the officer's name, for
// requests an officer handles by hand instead of the worker.
func (h *AdminHandler) StartRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	started, err := h.requests.Start(r.Context(), requestID, GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, datarights.ToAPIRequest(started))
}

// CompleteRequest handles POST /v1/admin/data-rights/requests/{requestId}/complete.
// It closes out a processing request, typically a grievance after officer
// review.
func (h *AdminHandler) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	var input models.CompleteRequestInput
	// Body is optional.
	_ = json.NewDecoder(r.Body).Decode(&input) //nolint:errcheck // optional body

	var metadata map[string]string
	if input.Note != "" {
		metadata = map[string]string{"resolution": input.Note}
	}

	completed, err := h.requests.Complete(r.Context(), requestID, GetUserID(r.Context()), nil, metadata)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, datarights.ToAPIRequest(completed))
}

func (h *AdminHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *datarights.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation failed", validationErr.Errors)
	case errors.Is(err, datarights.ErrRequestNotFound):
		response.NotFound(w, r, "request not found")
	case errors.Is(err, datarights.ErrInvalidTransition):
		response.Conflict(w, r, "request is not in a state that allows this action")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
