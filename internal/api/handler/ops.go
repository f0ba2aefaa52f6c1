package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdesk/weatherdesk/internal/api/models"
	"github.com/weatherdesk/weatherdesk/internal/api/response"
	"github.com/weatherdesk/weatherdesk/internal/provider/resilience"
)

// ProviderHealthSource reports the health of registered providers.
type ProviderHealthSource interface {
	GetAllHealth() []*resilience.ProviderHealth
	ProviderCount() int
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	providers ProviderHealthSource
	logger    zerolog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, providers ProviderHealthSource, logger zerolog.Logger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		providers: providers,
		logger:    logger,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The server is ready once a weather provider is registered and its
// circuit is not open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.providers == nil || h.providers.ProviderCount() == 0 {
		response.Problem(w, r, http.StatusServiceUnavailable, "no weather provider configured")
		return
	}

	for _, p := range h.providers.GetAllHealth() {
		if p.IsUnhealthy() {
			response.Problem(w, r, http.StatusServiceUnavailable, "weather provider "+p.Name+" circuit is open")
			return
		}
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider circuit breaker status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().
		Str("operator", GetOperator(r.Context())).
		Msg("system status requested")

	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{{Name: "display", Status: models.HealthStatusOK}},
		Providers:  []models.ProviderStatus{},
	}

	if h.providers != nil {
		for _, p := range h.providers.GetAllHealth() {
			ps := providerStatus(p)
			status.Providers = append(status.Providers, ps)
			status.Status = worse(status.Status, ps.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(p *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            p.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        p.CircuitState.String(),
		ConsecutiveFailures: int(p.Counts.ConsecutiveFailures),
	}

	switch {
	case p.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case p.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}

	if p.LastSuccessAt != nil {
		ts := models.Timestamp(*p.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if p.LastFailureAt != nil {
		ts := models.Timestamp(*p.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if p.LastError != "" {
		msg := p.LastError
		ps.Message = &msg
	}

	return ps
}

func worse(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
