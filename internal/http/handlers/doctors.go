package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/http/middleware"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// DoctorHandler serves doctor registration, lookup, the doctor portal login
// and availability management.
type DoctorHandler struct {
	doctors   *doctors.Store
	appts     *appointments.Store
	patients  *patients.Store
	jwtSecret string
	jwtTTL    time.Duration
	logger    *logging.Logger
}

// NewDoctorHandler creates the handler. jwtSecret signs portal login tokens;
// empty disables login.
func NewDoctorHandler(ds *doctors.Store, as *appointments.Store, ps *patients.Store,
	jwtSecret string, jwtTTL time.Duration, logger *logging.Logger) *DoctorHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if jwtTTL <= 0 {
		jwtTTL = 12 * time.Hour
	}
	return &DoctorHandler{
		doctors:   ds,
		appts:     as,
		patients:  ps,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		logger:    logger,
	}
}

type registerDoctorRequest struct {
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	Phone           string  `json:"phone"`
	Email           string  `json:"email"`
	ClinicName      string  `json:"clinic_name"`
	AvailableDays   string  `json:"available_days"`
	AvailableTime   string  `json:"available_time"`
	ConsultationFee float64 `json:"consultation_fee"`
}

// Register creates a doctor.
func (h *DoctorHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerDoctorRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Specialty == "" {
		writeError(w, http.StatusBadRequest, "name and specialty are required")
		return
	}

	d := &doctors.Doctor{
		Name:            req.Name,
		Specialty:       req.Specialty,
		Phone:           req.Phone,
		Email:           req.Email,
		ClinicName:      req.ClinicName,
		AvailableDays:   req.AvailableDays,
		AvailableTime:   req.AvailableTime,
		ConsultationFee: req.ConsultationFee,
		IsAvailable:     true,
	}
	if err := h.doctors.Create(r.Context(), nil, d); err != nil {
		h.logger.Error("doctor create failed", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "doctor create failed")
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"id":      d.ID,
		"message": "Doctor registered successfully",
	})
}

// List returns all doctors, optionally filtered by exact specialty.
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.doctors.List(r.Context(), nil, r.URL.Query().Get("specialty"))
	if err != nil {
		h.logger.Error("doctor list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "doctor list failed")
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

// ListAvailable returns doctors currently taking bookings, each with their
// next open slots.
func (h *DoctorHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	from := time.Now().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
			return
		}
		from = parsed
	}

	available, err := h.doctors.ListAvailable(r.Context(), nil)
	if err != nil {
		h.logger.Error("available doctors failed", "error", err)
		writeError(w, http.StatusInternalServerError, "doctor list failed")
		return
	}

	specialty := r.URL.Query().Get("specialty")
	type doctorWithSlots struct {
		doctors.Doctor
		Slots []doctors.AvailabilitySlot `json:"available_slots"`
	}
	result := make([]doctorWithSlots, 0, len(available))
	for _, d := range available {
		if specialty != "" && d.Specialty != specialty {
			continue
		}
		slots, err := h.doctors.ListSlots(r.Context(), nil, d.ID, from, from.AddDate(0, 0, 7))
		if err != nil {
			h.logger.Error("list slots failed", "doctor_id", d.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "slot list failed")
			return
		}
		open := make([]doctors.AvailabilitySlot, 0, len(slots))
		for _, s := range slots {
			if !s.IsBooked {
				open = append(open, s)
			}
		}
		result = append(result, doctorWithSlots{Doctor: d, Slots: open})
	}
	writeSuccess(w, http.StatusOK, result)
}

// Get returns one doctor by id.
func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	d, err := h.doctors.GetByID(r.Context(), nil, id)
	if err != nil {
		if errors.Is(err, doctors.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Doctor not found")
			return
		}
		h.logger.Error("doctor get failed", "doctor_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "doctor lookup failed")
		return
	}
	writeSuccess(w, http.StatusOK, d)
}

type doctorAppointmentView struct {
	ID                 int64               `json:"id"`
	PatientName        string              `json:"patient_name"`
	PatientPhone       string              `json:"patient_phone"`
	Date               string              `json:"appointment_date"`
	TimeSlot           string              `json:"appointment_time"`
	Status             appointments.Status `json:"status"`
	Reason             string              `json:"reason,omitempty"`
	Symptoms           string              `json:"symptoms,omitempty"`
	ConfirmationNumber *string             `json:"confirmation_number,omitempty"`
}

// Appointments lists a doctor's appointments with patient details.
func (h *DoctorHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	list, err := h.appts.List(r.Context(), nil, appointments.ListFilter{DoctorID: id})
	if err != nil {
		h.logger.Error("doctor appointments failed", "doctor_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "appointment list failed")
		return
	}

	views := make([]doctorAppointmentView, 0, len(list))
	for _, a := range list {
		view := doctorAppointmentView{
			ID:                 a.ID,
			Date:               a.Date.Format("2006-01-02"),
			TimeSlot:           a.TimeSlot,
			Status:             a.Status,
			Reason:             a.Reason,
			Symptoms:           a.Symptoms,
			ConfirmationNumber: a.ConfirmationNumber,
		}
		if p, err := h.patients.GetByID(r.Context(), nil, a.PatientID); err == nil {
			view.PatientName = p.Name
			view.PatientPhone = p.Phone
		}
		views = append(views, view)
	}
	writeSuccess(w, http.StatusOK, views)
}

type doctorLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks portal credentials and returns a signed session token.
func (h *DoctorHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.jwtSecret == "" {
		writeError(w, http.StatusUnauthorized, "doctor login disabled")
		return
	}
	var req doctorLoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.doctors.FindByEmail(r.Context(), nil, req.Email)
	if err != nil && !errors.Is(err, doctors.ErrNotFound) {
		h.logger.Error("doctor login lookup failed", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !doctors.CheckPassword(d, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := middleware.IssueDoctorToken(h.jwtSecret, d.ID, h.jwtTTL)
	if err != nil {
		h.logger.Error("doctor token issue failed", "doctor_id", d.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"token": token,
		"doctor": map[string]any{
			"id":          d.ID,
			"name":        d.Name,
			"email":       d.Email,
			"specialty":   d.Specialty,
			"clinic_name": d.ClinicName,
		},
	})
}

type setPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetPassword stores a portal password for the doctor with the given email.
func (h *DoctorHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	d, err := h.doctors.FindByEmail(r.Context(), nil, req.Email)
	if err != nil {
		if errors.Is(err, doctors.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Doctor not found")
			return
		}
		h.logger.Error("doctor lookup failed", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "password set failed")
		return
	}
	if err := h.doctors.SetPassword(r.Context(), nil, d.ID, req.Password); err != nil {
		h.logger.Error("password set failed", "doctor_id", d.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "password set failed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"message": "Password set successfully"})
}

// GetAvailability lists a doctor's slots in a date range (default: next week).
func (h *DoctorHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	now := time.Now().Truncate(24 * time.Hour)
	from, err := parseDateParam(r.URL.Query().Get("start_date"), now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date (want YYYY-MM-DD)")
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("end_date"), from.AddDate(0, 0, 7))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date (want YYYY-MM-DD)")
		return
	}

	slots, err := h.doctors.ListSlots(r.Context(), nil, id, from, to)
	if err != nil {
		h.logger.Error("list slots failed", "doctor_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "slot list failed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"slots": slots})
}

type addAvailabilityRequest struct {
	Date        string   `json:"date"`
	TimeSlots   []string `json:"time_slots"`
	MaxPatients int      `json:"max_patients"`
}

// AddAvailability adds bookable slots for one date. Existing slots are
// skipped, not duplicated.
func (h *DoctorHandler) AddAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	var req addAvailabilityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
		return
	}

	added := make([]string, 0, len(req.TimeSlots))
	for _, ts := range req.TimeSlots {
		slot := &doctors.AvailabilitySlot{
			DoctorID:    id,
			Date:        date,
			TimeSlot:    ts,
			MaxPatients: req.MaxPatients,
		}
		inserted, err := h.doctors.AddSlot(r.Context(), nil, slot)
		if err != nil {
			h.logger.Error("add slot failed", "doctor_id", id, "time_slot", ts, "error", err)
			writeError(w, http.StatusInternalServerError, "slot add failed")
			return
		}
		if inserted {
			added = append(added, ts)
		}
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"message":     fmt.Sprintf("Added %d availability slots", len(added)),
		"slots_added": added,
	})
}

// DeleteAvailability removes one unbooked slot.
func (h *DoctorHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	slotID, err := strconv.ParseInt(chi.URLParam(r, "slotID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}
	if err := h.doctors.DeleteSlot(r.Context(), nil, id, slotID); err != nil {
		switch {
		case errors.Is(err, doctors.ErrNotFound):
			writeError(w, http.StatusNotFound, "Slot not found")
		case errors.Is(err, doctors.ErrSlotBooked):
			writeError(w, http.StatusBadRequest, "Cannot delete booked slot")
		default:
			h.logger.Error("delete slot failed", "doctor_id", id, "slot_id", slotID, "error", err)
			writeError(w, http.StatusInternalServerError, "slot delete failed")
		}
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"message": "Slot deleted"})
}

// ToggleAvailability flips whether the doctor takes new bookings.
func (h *DoctorHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	available, err := h.doctors.ToggleAvailability(r.Context(), nil, id)
	if err != nil {
		if errors.Is(err, doctors.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Doctor not found")
			return
		}
		h.logger.Error("toggle availability failed", "doctor_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "toggle failed")
		return
	}
	state := "unavailable"
	if available {
		state = "available"
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"is_available": available,
		"message":      "Doctor is now " + state,
	})
}

func (h *DoctorHandler) doctorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return 0, false
	}
	return id, true
}

func parseDateParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}
