package handler

import (
	"net/http"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/service"
)

// MetricsHandler serves dashboard statistics.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Get handles GET /api/metrics?period=today|week|month|all
func (h *MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	period := model.MetricsPeriod(r.URL.Query().Get("period"))
	out, err := h.service.Compute(r.Context(), period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
