package handlers

import (
	"net/http"
	"time"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// StatsHandler serves the dashboard counters and the health check.
type StatsHandler struct {
	appts    *appointments.Store
	patients *patients.Store
	doctors  *doctors.Store
	logger   *logging.Logger
}

// NewStatsHandler creates the handler.
func NewStatsHandler(as *appointments.Store, ps *patients.Store, ds *doctors.Store, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{appts: as, patients: ps, doctors: ds, logger: logger}
}

// Dashboard returns hospital-wide counters.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Truncate(24 * time.Hour)
	stats, err := h.appts.DashboardStats(r.Context(), nil, today)
	if err != nil {
		h.logger.Error("dashboard stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	if stats.TotalPatients, err = h.patients.Count(r.Context(), nil); err != nil {
		h.logger.Error("patient count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	if stats.TotalDoctors, err = h.doctors.Count(r.Context(), nil); err != nil {
		h.logger.Error("doctor count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}

// Health reports service liveness.
func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "hospital-booking-api",
	})
}
