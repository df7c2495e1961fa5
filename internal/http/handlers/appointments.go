package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/booking"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/internal/prompts"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// AppointmentHandler serves booking, lookup and cancellation.
type AppointmentHandler struct {
	booking  *booking.Service
	appts    *appointments.Store
	patients *patients.Store
	doctors  *doctors.Store
	logger   *logging.Logger
}

// NewAppointmentHandler creates the handler.
func NewAppointmentHandler(svc *booking.Service, as *appointments.Store,
	ps *patients.Store, ds *doctors.Store, logger *logging.Logger) *AppointmentHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentHandler{booking: svc, appts: as, patients: ps, doctors: ds, logger: logger}
}

// Book creates an appointment and places the booking call.
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.booking.Book(r.Context(), req)
	if err != nil {
		if errors.Is(err, booking.ErrPhoneRequired) {
			writeError(w, http.StatusBadRequest, "Phone number required")
			return
		}
		h.logger.Error("booking failed", "phone", req.PatientPhone, "error", err)
		writeError(w, http.StatusInternalServerError, "booking failed")
		return
	}
	writeSuccess(w, http.StatusCreated, result)
}

type initiateCallRequest struct {
	PhoneNumber string              `json:"phone_number"`
	DoctorInfo  *prompts.DoctorInfo `json:"doctor_info"`
}

// InitiateCall places a booking call without creating an appointment first.
func (h *AppointmentHandler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	var req initiateCallRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	handle, err := h.booking.StartCall(r.Context(), req.PhoneNumber, req.DoctorInfo)
	if err != nil {
		if errors.Is(err, booking.ErrPhoneRequired) {
			writeError(w, http.StatusBadRequest, "Phone number required")
			return
		}
		h.logger.Error("call initiation failed", "phone", req.PhoneNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "call initiation failed")
		return
	}
	writeSuccess(w, http.StatusOK, handle)
}

type appointmentDetail struct {
	ID                 int64               `json:"id"`
	Patient            map[string]any      `json:"patient"`
	Doctor             map[string]any      `json:"doctor"`
	Date               string              `json:"appointment_date"`
	TimeSlot           string              `json:"appointment_time"`
	Status             appointments.Status `json:"status"`
	Reason             string              `json:"reason,omitempty"`
	Symptoms           string              `json:"symptoms,omitempty"`
	SpecialNotes       string              `json:"special_notes,omitempty"`
	ConfirmationNumber *string             `json:"confirmation_number,omitempty"`
	CallID             *int64              `json:"call_id,omitempty"`
	CallStatus         string              `json:"call_status,omitempty"`
	RecordingURL       string              `json:"call_recording_url,omitempty"`
}

// Get returns one appointment with its patient and doctor.
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	a, err := h.appts.GetByID(r.Context(), nil, id)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("appointment get failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "appointment lookup failed")
		return
	}

	detail := appointmentDetail{
		ID:                 a.ID,
		Date:               a.Date.Format("2006-01-02"),
		TimeSlot:           a.TimeSlot,
		Status:             a.Status,
		Reason:             a.Reason,
		Symptoms:           a.Symptoms,
		SpecialNotes:       a.SpecialNotes,
		ConfirmationNumber: a.ConfirmationNumber,
		CallID:             a.CallID,
		CallStatus:         a.CallStatus,
		RecordingURL:       a.RecordingURL,
	}
	if p, err := h.patients.GetByID(r.Context(), nil, a.PatientID); err == nil {
		detail.Patient = map[string]any{"id": p.ID, "name": p.Name, "phone": p.Phone}
	}
	if d, err := h.doctors.GetByID(r.Context(), nil, a.DoctorID); err == nil {
		detail.Doctor = map[string]any{"id": d.ID, "name": d.Name, "specialty": d.Specialty, "clinic": d.ClinicName}
	}
	writeSuccess(w, http.StatusOK, detail)
}

type appointmentListView struct {
	ID                 int64               `json:"id"`
	PatientName        string              `json:"patient_name"`
	DoctorName         string              `json:"doctor_name"`
	Date               string              `json:"date"`
	TimeSlot           string              `json:"time"`
	Status             appointments.Status `json:"status"`
	ConfirmationNumber *string             `json:"confirmation_number,omitempty"`
}

// List returns appointments filtered by optional status and date.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := appointments.ListFilter{Status: appointments.Status(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
			return
		}
		filter.Date = &date
	}

	list, err := h.appts.List(r.Context(), nil, filter)
	if err != nil {
		h.logger.Error("appointment list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "appointment list failed")
		return
	}

	views := make([]appointmentListView, 0, len(list))
	for _, a := range list {
		view := appointmentListView{
			ID:                 a.ID,
			Date:               a.Date.Format("2006-01-02"),
			TimeSlot:           a.TimeSlot,
			Status:             a.Status,
			ConfirmationNumber: a.ConfirmationNumber,
		}
		if p, err := h.patients.GetByID(r.Context(), nil, a.PatientID); err == nil {
			view.PatientName = p.Name
		}
		if d, err := h.doctors.GetByID(r.Context(), nil, a.DoctorID); err == nil {
			view.DoctorName = d.Name
		}
		views = append(views, view)
	}
	writeSuccess(w, http.StatusOK, views)
}

// Cancel marks an appointment cancelled.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	if err := h.booking.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("cancel failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "cancel failed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"message": "Appointment cancelled successfully"})
}
