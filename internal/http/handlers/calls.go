package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arogya-health/booking-platform/internal/calls"
	"github.com/arogya-health/booking-platform/internal/dinodial"
	"github.com/arogya-health/booking-platform/internal/followup"
	"github.com/arogya-health/booking-platform/internal/reconcile"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// CallProvider exposes the read-only provider endpoints served straight
// through to clients.
type CallProvider interface {
	ListCalls(ctx context.Context) ([]dinodial.CallSummary, error)
	GetCallRecording(ctx context.Context, callID int64) (*dinodial.Recording, error)
}

// CallHandler serves call logs, result syncing and the provider webhook.
type CallHandler struct {
	calls      *calls.Store
	reconciler *reconcile.Reconciler
	scheduler  *followup.Scheduler
	provider   CallProvider
	logger     *logging.Logger
}

// NewCallHandler creates the handler.
func NewCallHandler(cs *calls.Store, rec *reconcile.Reconciler, sched *followup.Scheduler, provider CallProvider, logger *logging.Logger) *CallHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CallHandler{calls: cs, reconciler: rec, scheduler: sched, provider: provider, logger: logger}
}

// List returns recent call logs, newest first.
func (h *CallHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	list, err := h.calls.List(r.Context(), nil, limit)
	if err != nil {
		h.logger.Error("call list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "call list failed")
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

// Sync pulls one call's results from the provider and merges them in.
func (h *CallHandler) Sync(w http.ResponseWriter, r *http.Request) {
	callID, err := strconv.ParseInt(chi.URLParam(r, "callID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid call id")
		return
	}
	h.sync(w, r, callID)
}

// ProviderCalls returns the provider's own call log for the active token.
func (h *CallHandler) ProviderCalls(w http.ResponseWriter, r *http.Request) {
	list, err := h.provider.ListCalls(r.Context())
	if err != nil {
		h.logger.Error("provider call list failed", "error", err)
		writeError(w, http.StatusBadGateway, "provider call list failed")
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

// Recording returns the recording location for one call.
func (h *CallHandler) Recording(w http.ResponseWriter, r *http.Request) {
	callID, err := strconv.ParseInt(chi.URLParam(r, "callID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid call id")
		return
	}
	rec, err := h.provider.GetCallRecording(r.Context(), callID)
	if err != nil {
		h.logger.Error("recording lookup failed", "call_id", callID, "error", err)
		writeError(w, http.StatusBadGateway, "recording lookup failed")
		return
	}
	writeSuccess(w, http.StatusOK, rec)
}

type callCompletedWebhook struct {
	CallID int64 `json:"call_id"`
}

// Webhook is the provider's call-completed notification. It reuses the same
// sync path as the manual endpoint.
func (h *CallHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload callCompletedWebhook
	if err := decodeBody(r, &payload); err != nil || payload.CallID == 0 {
		writeError(w, http.StatusBadRequest, "call_id required")
		return
	}
	h.sync(w, r, payload.CallID)
}

func (h *CallHandler) sync(w http.ResponseWriter, r *http.Request, callID int64) {
	result, err := h.reconciler.Sync(r.Context(), callID)
	if err != nil {
		if errors.Is(err, reconcile.ErrSyncInFlight) {
			writeError(w, http.StatusConflict, "sync already in progress for this call")
			return
		}
		h.logger.Error("call sync failed", "call_id", callID, "error", err)
		writeError(w, http.StatusBadGateway, "call sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Call results synced successfully",
		"data":    result,
	})
}

// TriggerFollowUps schedules an immediate reminder pair, for testing the
// dispatcher end to end. With no appointment_id the latest appointment is
// used.
func (h *CallHandler) TriggerFollowUps(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppointmentID int64 `json:"appointment_id"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	tasks, err := h.scheduler.TriggerNow(r.Context(), req.AppointmentID)
	if err != nil {
		if errors.Is(err, followup.ErrNoAppointments) {
			writeError(w, http.StatusNotFound, "no appointments to remind")
			return
		}
		h.logger.Error("follow-up trigger failed", "appointment_id", req.AppointmentID, "error", err)
		writeError(w, http.StatusInternalServerError, "follow-up trigger failed")
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": "Follow-up reminders scheduled",
		"tasks":   tasks,
	})
}
