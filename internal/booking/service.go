// Package booking creates appointments and launches the outbound booking
// call that negotiates details with the patient.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/calls"
	"github.com/arogya-health/booking-platform/internal/dinodial"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/internal/prompts"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// ErrPhoneRequired is returned when a booking request lacks the patient phone.
var ErrPhoneRequired = errors.New("booking: patient phone required")

// Caller places outbound voice calls.
type Caller interface {
	InitiateCall(ctx context.Context, req dinodial.CallRequest) (*dinodial.CallHandle, error)
}

// Pool opens database transactions.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Request carries everything a booking needs. Only PatientPhone is required;
// the voice call fills in whatever is missing.
type Request struct {
	PatientPhone string `json:"patient_phone"`
	PatientName  string `json:"patient_name"`
	DoctorID     int64  `json:"doctor_id"`
	Date         string `json:"appointment_date"`
	TimeSlot     string `json:"appointment_time"`
	Reason       string `json:"reason"`
	Symptoms     string `json:"symptoms"`
	SpecialNotes string `json:"special_notes"`
}

// Result reports what the booking produced. CallID is nil when the voice
// call could not be placed; the appointment still exists and the call can be
// retried.
type Result struct {
	AppointmentID int64  `json:"appointment_id"`
	PatientID     int64  `json:"patient_id"`
	CallID        *int64 `json:"call_id"`
	CallStatus    string `json:"call_status"`
	Message       string `json:"message"`
}

// Service books appointments and dials patients.
type Service struct {
	pool     Pool
	patients *patients.Store
	doctors  *doctors.Store
	appts    *appointments.Store
	calls    *calls.Store
	caller   Caller
	logger   *logging.Logger
	clock    func() time.Time
}

// Config wires a booking service.
type Config struct {
	Pool         Pool
	Patients     *patients.Store
	Doctors      *doctors.Store
	Appointments *appointments.Store
	Calls        *calls.Store
	Caller       Caller
	Logger       *logging.Logger
}

// NewService creates a booking service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		pool:     cfg.Pool,
		patients: cfg.Patients,
		doctors:  cfg.Doctors,
		appts:    cfg.Appointments,
		calls:    cfg.Calls,
		caller:   cfg.Caller,
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Book creates the appointment in scheduled state and then dials the patient.
// The appointment never carries a confirmation number at this point; the code
// is assigned when the call outcome confirms the booking. A failed dial does
// not fail the booking.
func (s *Service) Book(ctx context.Context, req Request) (*Result, error) {
	if req.PatientPhone == "" {
		return nil, ErrPhoneRequired
	}

	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	timeSlot := req.TimeSlot
	if timeSlot == "" {
		timeSlot = "10:00 AM"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	patient, err := s.patients.FindByPhone(ctx, tx, req.PatientPhone)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		name := req.PatientName
		if name == "" {
			name = "Unknown"
		}
		patient = &patients.Patient{Name: name, Phone: req.PatientPhone}
		if err := s.patients.Create(ctx, tx, patient); err != nil {
			return nil, err
		}
	}

	doctor, err := s.resolveDoctor(ctx, tx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	appt := &appointments.Appointment{
		PatientID:    patient.ID,
		DoctorID:     doctor.ID,
		Date:         date,
		TimeSlot:     timeSlot,
		Status:       appointments.StatusScheduled,
		Reason:       req.Reason,
		Symptoms:     req.Symptoms,
		SpecialNotes: req.SpecialNotes,
	}
	if err := s.appts.Create(ctx, tx, appt); err != nil {
		return nil, err
	}

	roster, err := s.roster(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("booking: commit: %w", err)
	}

	result := &Result{
		AppointmentID: appt.ID,
		PatientID:     patient.ID,
		Message:       "Appointment booked and call initiated",
	}

	target := &prompts.DoctorInfo{
		Name:      doctor.Name,
		Specialty: doctor.Specialty,
		Clinic:    doctor.ClinicName,
		Date:      date.Format("2006-01-02"),
		Time:      timeSlot,
	}
	prompt := prompts.BookingPrompt(req.PatientPhone, target, roster)

	handle, err := s.caller.InitiateCall(ctx, dinodial.CallRequest{
		Prompt:         prompt,
		EvaluationTool: prompts.EvaluationTool(),
	})
	if err != nil {
		s.logger.Error("booking: call initiation failed",
			"appointment_id", appt.ID, "phone", req.PatientPhone, "error", err)
		result.CallStatus = "failed"
		result.Message = "Appointment booked, call could not be placed"
		return result, nil
	}

	if err := s.recordCall(ctx, appt.ID, req.PatientPhone, prompt, handle.ID); err != nil {
		// The call is already in flight; reconciliation will recreate the log.
		s.logger.Error("booking: record call", "appointment_id", appt.ID, "error", err)
	}
	result.CallID = &handle.ID
	result.CallStatus = "initiated"

	s.logger.Info("booking: appointment created and call placed",
		"appointment_id", appt.ID, "call_id", handle.ID, "doctor_id", doctor.ID)
	return result, nil
}

// StartCall dials a patient for a free-form booking conversation without
// creating an appointment first.
func (s *Service) StartCall(ctx context.Context, phone string, target *prompts.DoctorInfo) (*dinodial.CallHandle, error) {
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	roster, err := s.roster(ctx, nil)
	if err != nil {
		return nil, err
	}
	handle, err := s.caller.InitiateCall(ctx, dinodial.CallRequest{
		Prompt:         prompts.BookingPrompt(phone, target, roster),
		EvaluationTool: prompts.EvaluationTool(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking: ad-hoc call placed", "call_id", handle.ID, "phone", phone)
	return handle, nil
}

// Cancel marks an appointment cancelled.
func (s *Service) Cancel(ctx context.Context, appointmentID int64) error {
	if err := s.appts.UpdateStatus(ctx, nil, appointmentID, appointments.StatusCancelled); err != nil {
		return err
	}
	s.logger.Info("booking: appointment cancelled", "appointment_id", appointmentID)
	return nil
}

func (s *Service) resolveDoctor(ctx context.Context, tx pgx.Tx, doctorID int64) (*doctors.Doctor, error) {
	if doctorID != 0 {
		doctor, err := s.doctors.GetByID(ctx, tx, doctorID)
		if err == nil {
			return doctor, nil
		}
		if !errors.Is(err, doctors.ErrNotFound) {
			return nil, err
		}
	}
	doctor, created, err := s.doctors.EnsureDefault(ctx, tx)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Warn("booking: no doctors registered, created placeholder")
	}
	return doctor, nil
}

func (s *Service) roster(ctx context.Context, tx pgx.Tx) ([]prompts.RosterEntry, error) {
	var q doctors.Querier
	if tx != nil {
		q = tx
	}
	active, err := s.doctors.ListAvailable(ctx, q)
	if err != nil {
		return nil, err
	}
	roster := make([]prompts.RosterEntry, 0, len(active))
	for _, d := range active {
		roster = append(roster, prompts.RosterEntry{
			Name:      d.Name,
			Specialty: d.Specialty,
			Slots:     d.AvailableTime,
		})
	}
	return roster, nil
}

func (s *Service) recordCall(ctx context.Context, appointmentID int64, phone, prompt string, callID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rec := &calls.Record{
		CallID:        callID,
		PhoneNumber:   phone,
		AppointmentID: &appointmentID,
		Status:        "in_progress",
		PromptUsed:    prompt,
	}
	if err := s.calls.Create(ctx, tx, rec); err != nil {
		return err
	}
	if err := s.appts.AttachCall(ctx, tx, appointmentID, callID, "initiated"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) parseDate(raw string) (time.Time, error) {
	if raw == "" {
		now := s.clock()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking: invalid date %q (want YYYY-MM-DD)", raw)
	}
	return date, nil
}
