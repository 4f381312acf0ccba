package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/response"
	"github.com/pehchaan-id/pehchaan-compliance/internal/consent"
)

// ConsentHandler handles consent preference endpoints.
type ConsentHandler struct {
	service *consent.Service
}

// NewConsentHandler creates a new ConsentHandler.
func NewConsentHandler(service *consent.Service) *ConsentHandler {
	return &ConsentHandler{service: service}
}

// GetConsents handles GET /v1/me/consents.
func (h *ConsentHandler) GetConsents(w http.ResponseWriter, r *http.Request) {
	consents, err := h.service.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		response.InternalError(w, r, "an unexpected error occurred")
		return
	}

	response.JSON(w, r, http.StatusOK, consents)
}

// UpdateConsents handles PUT /v1/me/consents.
func (h *ConsentHandler) UpdateConsents(w http.ResponseWriter, r *http.Request) {
	var input models.ConsentsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	updated, err := h.service.Update(r.Context(), GetUserID(r.Context()), input)
	if err != nil {
		response.InternalError(w, r, "an unexpected error occurred")
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}
