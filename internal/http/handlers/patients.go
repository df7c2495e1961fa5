package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// PatientHandler serves patient registration and lookup.
type PatientHandler struct {
	patients *patients.Store
	logger   *logging.Logger
}

// NewPatientHandler creates the handler.
func NewPatientHandler(store *patients.Store, logger *logging.Logger) *PatientHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientHandler{patients: store, logger: logger}
}

type registerPatientRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Age            *int   `json:"age"`
	Gender         string `json:"gender"`
	Address        string `json:"address"`
	MedicalHistory string `json:"medical_history"`
}

// Register creates a patient. Registering an existing phone number is not an
// error; the existing id is returned.
func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "name and phone are required")
		return
	}

	existing, err := h.patients.FindByPhone(r.Context(), nil, req.Phone)
	if err != nil {
		h.logger.Error("patient lookup failed", "phone", req.Phone, "error", err)
		writeError(w, http.StatusInternalServerError, "patient lookup failed")
		return
	}
	if existing != nil {
		writeSuccess(w, http.StatusOK, map[string]any{
			"id":      existing.ID,
			"message": "Patient already registered",
		})
		return
	}

	p := &patients.Patient{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Age:            req.Age,
		Gender:         req.Gender,
		Address:        req.Address,
		MedicalHistory: req.MedicalHistory,
	}
	if err := h.patients.Create(r.Context(), nil, p); err != nil {
		h.logger.Error("patient create failed", "phone", req.Phone, "error", err)
		writeError(w, http.StatusInternalServerError, "patient create failed")
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"id":      p.ID,
		"message": "Patient registered successfully",
	})
}

// Get returns one patient by id.
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "patientID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	p, err := h.patients.GetByID(r.Context(), nil, id)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Patient not found")
			return
		}
		h.logger.Error("patient get failed", "patient_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "patient lookup failed")
		return
	}
	writeSuccess(w, http.StatusOK, p)
}

// GetByPhone returns one patient by phone number.
func (h *PatientHandler) GetByPhone(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	p, err := h.patients.FindByPhone(r.Context(), nil, phone)
	if err != nil {
		h.logger.Error("patient lookup failed", "phone", phone, "error", err)
		writeError(w, http.StatusInternalServerError, "patient lookup failed")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}
	writeSuccess(w, http.StatusOK, p)
}
