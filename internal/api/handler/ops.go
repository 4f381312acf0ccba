package handler

import (
	"net/http"
	"time"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/response"
	"github.com/pehchaan-id/pehchaan-compliance/internal/health"
)

// BreakerStater reports a circuit breaker state for an outbound dependency.
type BreakerStater interface {
	State() string
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *health.Registry
	providers map[string]BreakerStater
}

// NewOpsHandler creates a new OpsHandler. The providers map names each
// outbound dependency whose breaker state is reported on /v1/ops/status.
func NewOpsHandler(version, buildTime string, registry *health.Registry, providers map[string]BreakerStater) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		providers: providers,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	healthResp := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, healthResp)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check over the
// backing stores.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	healthResp := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if !h.registry.Ready(r.Context()) {
		healthResp.Status = models.HealthStatusFail
		response.JSON(w, r, http.StatusServiceUnavailable, healthResp)
		return
	}

	response.JSON(w, r, http.StatusOK, healthResp)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	for _, result := range h.registry.Check(r.Context()) {
		subsystem := models.SubsystemStatus{
			Name:   result.Name,
			Status: models.HealthStatusOK,
		}
		if !result.Healthy() {
			detail := result.Error.Error()
			subsystem.Status = models.HealthStatusFail
			subsystem.Detail = &detail
			status.Status = models.HealthStatusDegraded
		}
		status.Subsystems = append(status.Subsystems, subsystem)
	}

	for name, provider := range h.providers {
		providerStatus := models.ProviderStatus{
			Provider: name,
			Status:   models.HealthStatusOK,
		}
		// An open breaker means the provider is failing.
		if state := provider.State(); state != "closed" {
			providerStatus.Status = models.HealthStatusDegraded
			providerStatus.Message = &state
			status.Status = models.HealthStatusDegraded
		}
		status.Providers = append(status.Providers, providerStatus)
	}

	response.JSON(w, r, http.StatusOK, status)
}
