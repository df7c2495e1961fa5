// Package reconcile folds provider call results back into the booking
// database: patients, call logs, appointments, confirmation codes and the
// reminder pair all converge here.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/calls"
	"github.com/arogya-health/booking-platform/internal/dinodial"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/followup"
	"github.com/arogya-health/booking-platform/internal/observability/metrics"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// ErrSyncInFlight is returned when another sync already holds the dedupe lock
// for the call.
var ErrSyncInFlight = errors.New("reconcile: sync already in flight for call")

// Provider fetches call results from the voice provider.
type Provider interface {
	GetCallDetail(ctx context.Context, callID int64) (*dinodial.CallDetail, error)
}

// Confirmation carries the appointment details a booking confirmation needs.
type Confirmation struct {
	PatientName string
	DoctorName  string
	Specialty   string
	Date        string
	TimeSlot    string
	Code        string
}

// Notifier delivers booking confirmations to patients. Sends happen after the
// database commit and never fail the sync.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, phone string, c Confirmation) error
}

// Pool opens database transactions.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Result summarizes what a sync did.
type Result struct {
	PatientName        string              `json:"patient_name"`
	Doctor             string              `json:"doctor"`
	Specialty          string              `json:"specialty"`
	Symptoms           string              `json:"symptoms,omitempty"`
	Status             appointments.Status `json:"status"`
	ConfirmationNumber string              `json:"confirmation_number,omitempty"`
	ConfirmedNow       bool                `json:"-"`
}

// Reconciler applies one call's provider-side results inside a single
// transaction. Re-syncing the same call is safe: the confirmation code is
// assigned at most once, and the reminder pair rides on that same transition.
type Reconciler struct {
	pool     Pool
	provider Provider
	patients *patients.Store
	doctors  *doctors.Store
	appts    *appointments.Store
	calls    *calls.Store
	tasks    *followup.Store
	notifier Notifier
	guard    *DedupeGuard
	logger   *logging.Logger
	metrics  *metrics.SyncMetrics

	messageDelay time.Duration
	voiceDelay   time.Duration
	clock        func() time.Time
}

// Config wires a Reconciler.
type Config struct {
	Pool         Pool
	Provider     Provider
	Patients     *patients.Store
	Doctors      *doctors.Store
	Appointments *appointments.Store
	Calls        *calls.Store
	Tasks        *followup.Store
	Notifier     Notifier
	Guard        *DedupeGuard
	Logger       *logging.Logger
	Metrics      *metrics.SyncMetrics
	MessageDelay time.Duration
	VoiceDelay   time.Duration
}

// New creates a reconciler.
func New(cfg Config) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	messageDelay := cfg.MessageDelay
	if messageDelay <= 0 {
		messageDelay = followup.DefaultMessageDelay
	}
	voiceDelay := cfg.VoiceDelay
	if voiceDelay <= 0 {
		voiceDelay = followup.DefaultVoiceDelay
	}
	return &Reconciler{
		pool:         cfg.Pool,
		provider:     cfg.Provider,
		patients:     cfg.Patients,
		doctors:      cfg.Doctors,
		appts:        cfg.Appointments,
		calls:        cfg.Calls,
		tasks:        cfg.Tasks,
		notifier:     cfg.Notifier,
		guard:        cfg.Guard,
		logger:       logger,
		metrics:      cfg.Metrics,
		messageDelay: messageDelay,
		voiceDelay:   voiceDelay,
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

// Sync fetches the call's results from the provider and merges them into the
// database. All writes share one transaction; the confirmation notification
// goes out only after the commit succeeds.
func (r *Reconciler) Sync(ctx context.Context, callID int64) (*Result, error) {
	ok, err := r.guard.Acquire(ctx, callID)
	if err != nil {
		// Redis being down should not stop reconciliation.
		r.logger.Warn("reconcile: dedupe guard unavailable, proceeding", "call_id", callID, "error", err)
	} else if !ok {
		return nil, ErrSyncInFlight
	}
	defer r.guard.Release(ctx, callID)

	detail, err := r.provider.GetCallDetail(ctx, callID)
	if err != nil {
		r.metrics.ObserveSync("fetch_failed")
		return nil, fmt.Errorf("reconcile: fetch call detail: %w", err)
	}
	outcome := ParseOutcome(detail)

	result, err := r.apply(ctx, callID, detail, outcome)
	if err != nil {
		r.metrics.ObserveSync("failed")
		return nil, err
	}

	if result.ConfirmedNow {
		r.metrics.ObserveSync("confirmed")
		r.metrics.ObserveConfirmation()
	} else {
		r.metrics.ObserveSync("updated")
	}
	return result, nil
}

func (r *Reconciler) apply(ctx context.Context, callID int64, detail *dinodial.CallDetail, outcome Outcome) (*Result, error) {
	phone := strings.TrimSpace(detail.PhoneNumber)
	if phone == "" {
		phone = "Unknown"
	}
	callStatus := detail.Status
	if callStatus == "" {
		callStatus = "completed"
	}
	now := r.clock()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	patient, err := r.patients.FindByPhone(ctx, tx, phone)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		name := outcome.Name
		if name == "" {
			name = patients.PlaceholderName
		}
		patient = &patients.Patient{Name: name, Phone: phone}
		if err := r.patients.Create(ctx, tx, patient); err != nil {
			return nil, err
		}
	}
	if outcome.Name != "" && outcome.Name != "Unknown" && outcome.Name != patient.Name {
		if err := r.patients.UpdateName(ctx, tx, patient.ID, outcome.Name); err != nil {
			return nil, err
		}
		patient.Name = outcome.Name
	}

	rec, err := r.calls.FindByCallID(ctx, tx, callID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &calls.Record{
			CallID:       callID,
			PhoneNumber:  phone,
			Status:       callStatus,
			Duration:     detail.Duration,
			RecordingURL: detail.RecordingURL,
			Evaluation:   outcome.Raw,
		}
		if err := r.calls.Create(ctx, tx, rec); err != nil {
			return nil, err
		}
	} else {
		rec.Status = callStatus
		rec.Duration = detail.Duration
		if len(outcome.Raw) > 0 {
			rec.Evaluation = outcome.Raw
		}
		// A known recording URL is never blanked by a later sync.
		if detail.RecordingURL != "" {
			rec.RecordingURL = detail.RecordingURL
		}
	}
	if callStatus == "completed" && rec.CompletedAt == nil {
		rec.CompletedAt = &now
	}

	var appt *appointments.Appointment
	if rec.AppointmentID != nil {
		appt, err = r.appts.GetByID(ctx, tx, *rec.AppointmentID)
		if err != nil && !errors.Is(err, appointments.ErrNotFound) {
			return nil, err
		}
	}
	if appt == nil {
		doctor, created, err := r.doctors.EnsureDefault(ctx, tx)
		if err != nil {
			return nil, err
		}
		if created {
			r.logger.Warn("reconcile: no doctors registered, created placeholder", "call_id", callID)
		}
		appt = &appointments.Appointment{
			PatientID: patient.ID,
			DoctorID:  doctor.ID,
			Date:      now.AddDate(0, 0, 1),
			TimeSlot:  "10:00 AM",
			Status:    appointments.StatusPending,
			CallID:    &callID,
		}
		if err := r.appts.Create(ctx, tx, appt); err != nil {
			return nil, err
		}
		rec.AppointmentID = &appt.ID
	}

	if outcome.Symptoms != "" {
		appt.Symptoms = outcome.Symptoms
	}
	if outcome.Specialty != "" {
		match, err := r.doctors.MatchSpecialty(ctx, tx, outcome.Specialty)
		if err != nil {
			return nil, err
		}
		if match != nil {
			appt.DoctorID = match.ID
		}
	}
	if outcome.TimeSlot != "" {
		appt.TimeSlot = outcome.TimeSlot
	}
	if outcome.SpecialNotes != "" {
		appt.SpecialNotes = outcome.SpecialNotes
	}
	if detail.RecordingURL != "" {
		appt.RecordingURL = detail.RecordingURL
	}
	if appt.CallID == nil {
		appt.CallID = &callID
	}
	if outcome.Booked {
		appt.Status = appointments.StatusConfirmed
		appt.CallStatus = "completed"
	}

	if err := r.appts.Save(ctx, tx, appt); err != nil {
		return nil, err
	}

	confirmedNow := false
	if outcome.Booked {
		code := newConfirmationCode(appt.ID)
		assigned, err := r.appts.SetConfirmation(ctx, tx, appt.ID, code)
		if err != nil {
			return nil, err
		}
		if assigned {
			appt.ConfirmationNumber = &code
			confirmedNow = true
			// The reminder pair rides on the one-time code assignment, so a
			// re-sync cannot duplicate it.
			if _, err := r.tasks.CreatePair(ctx, tx, appt.ID, now, r.messageDelay, r.voiceDelay); err != nil {
				return nil, err
			}
		}
	}

	if err := r.calls.Update(ctx, tx, rec); err != nil {
		return nil, err
	}

	doctor, err := r.doctors.GetByID(ctx, tx, appt.DoctorID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reconcile: commit: %w", err)
	}

	result := &Result{
		PatientName:  patient.Name,
		Doctor:       doctor.Name,
		Specialty:    doctor.Specialty,
		Symptoms:     appt.Symptoms,
		Status:       appt.Status,
		ConfirmedNow: confirmedNow,
	}
	if appt.ConfirmationNumber != nil {
		result.ConfirmationNumber = *appt.ConfirmationNumber
	}

	if confirmedNow {
		r.logger.Info("reconcile: appointment confirmed",
			"call_id", callID, "appointment_id", appt.ID, "confirmation", result.ConfirmationNumber)
		r.notifyConfirmation(ctx, patient.Phone, Confirmation{
			PatientName: patient.Name,
			DoctorName:  doctor.Name,
			Specialty:   doctor.Specialty,
			Date:        appt.Date.Format("2006-01-02"),
			TimeSlot:    appt.TimeSlot,
			Code:        result.ConfirmationNumber,
		})
	} else {
		r.logger.Info("reconcile: call results merged",
			"call_id", callID, "appointment_id", appt.ID, "status", appt.Status)
	}
	return result, nil
}

func (r *Reconciler) notifyConfirmation(ctx context.Context, phone string, c Confirmation) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendBookingConfirmation(ctx, phone, c); err != nil {
		r.logger.Error("reconcile: confirmation send failed", "phone", phone, "error", err)
	}
}

func newConfirmationCode(appointmentID int64) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("APT-%d-%s", appointmentID, suffix)
}
