// Package handler provides HTTP handlers for the compliance API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/response"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

// defaultPageLimit bounds list responses when the client sends no limit.
const defaultPageLimit = 50

// DataRightsHandler handles data rights request endpoints.
type DataRightsHandler struct {
	service *datarights.Service
}

// NewDataRightsHandler creates a new DataRightsHandler.
func NewDataRightsHandler(service *datarights.Service) *DataRightsHandler {
	return &DataRightsHandler{service: service}
}

// CreateAccessRequest handles POST /v1/data-rights/access-requests.
func (h *DataRightsHandler) CreateAccessRequest(w http.ResponseWriter, r *http.Request) {
	var input models.AccessRequestCreate
	// Body is optional for access requests: no body means all categories.
	_ = json.NewDecoder(r.Body).Decode(&input) //nolint:errcheck // validated below

	created, err := h.service.SubmitAccess(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.Accepted(w, r, requestLocation(created.ID), created)
}

// CreateErasureRequest handles POST /v1/data-rights/erasure-requests.
func (h *DataRightsHandler) CreateErasureRequest(w http.ResponseWriter, r *http.Request) {
	var input models.ErasureRequestCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	created, err := h.service.SubmitErasure(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.Accepted(w, r, requestLocation(created.ID), created)
}

// CreateCorrectionRequest handles POST /v1/data-rights/correction-requests.
func (h *DataRightsHandler) CreateCorrectionRequest(w http.ResponseWriter, r *http.Request) {
	var input models.CorrectionRequestCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	created, err := h.service.SubmitCorrection(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.Accepted(w, r, requestLocation(created.ID), created)
}

// CreatePortabilityRequest handles POST /v1/data-rights/portability-requests.
func (h *DataRightsHandler) CreatePortabilityRequest(w http.ResponseWriter, r *http.Request) {
	var input models.PortabilityRequestCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	created, err := h.service.SubmitPortability(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.Accepted(w, r, requestLocation(created.ID), created)
}

// CreateGrievance handles POST /v1/data-rights/grievances.
func (h *DataRightsHandler) CreateGrievance(w http.ResponseWriter, r *http.Request) {
	var input models.GrievanceCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	created, err := h.service.SubmitGrievance(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.Accepted(w, r, requestLocation(created.ID), created)
}

// ListRequests handles GET /v1/data-rights/requests.
func (h *DataRightsHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	opts, errs := listOptionsFromQuery(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	page, err := h.service.List(r.Context(), GetUserID(r.Context()), opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, page)
}

// GetRequest handles GET /v1/data-rights/requests/{requestId}.
func (h *DataRightsHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	request, err := h.service.Get(r.Context(), GetUserID(r.Context()), requestID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, request)
}

// CancelRequest handles POST /v1/data-rights/requests/{requestId}/cancel.
func (h *DataRightsHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	cancelled, err := h.service.Cancel(r.Context(), GetUserID(r.Context()), requestID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, cancelled)
}

// writeServiceError maps domain errors onto problem responses.
func (h *DataRightsHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *datarights.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation failed", validationErr.Errors)
	case errors.Is(err, datarights.ErrDuplicateRequest):
		response.Conflict(w, r, "an open request of this type already exists")
	case errors.Is(err, datarights.ErrRequestNotFound):
		response.NotFound(w, r, "request not found")
	case errors.Is(err, datarights.ErrNotCancellable):
		response.Conflict(w, r, "request can no longer be cancelled")
	case errors.Is(err, datarights.ErrInvalidTransition):
		response.Conflict(w, r, "request is not in a state that allows this action")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func requestLocation(requestID string) string {
	return fmt.Sprintf("/v1/data-rights/requests/%s", requestID)
}

// listOptionsFromQuery parses status, type, limit, and cursor parameters.
func listOptionsFromQuery(r *http.Request) (datarights.ListOptions, []models.FieldError) {
	var errs []models.FieldError
	opts := datarights.ListOptions{Limit: defaultPageLimit}

	if status := r.URL.Query().Get("status"); status != "" {
		s := datarights.Status(status)
		if !s.Valid() {
			errs = append(errs, models.FieldError{Field: "status", Message: "unknown status"})
		}
		opts.Status = s
	}
	if requestType := r.URL.Query().Get("type"); requestType != "" {
		rt := datarights.RequestType(requestType)
		if !rt.Valid() {
			errs = append(errs, models.FieldError{Field: "type", Message: "unknown request type"})
		}
		opts.Type = rt
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 200 {
			errs = append(errs, models.FieldError{Field: "limit", Message: "must be an integer between 1 and 200"})
		} else {
			opts.Limit = n
		}
	}
	opts.Cursor = r.URL.Query().Get("cursor")

	return opts, errs
}
