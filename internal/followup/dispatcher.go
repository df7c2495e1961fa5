package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/dinodial"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/observability/metrics"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/internal/prompts"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// Reminder carries the appointment details a message reminder needs.
type Reminder struct {
	PatientName string
	DoctorName  string
	Specialty   string
	Date        string
	TimeSlot    string
}

// Messenger delivers text reminders to patients.
type Messenger interface {
	SendAppointmentReminder(ctx context.Context, phone string, r Reminder) error
}

// Caller places outbound voice calls.
type Caller interface {
	InitiateCall(ctx context.Context, req dinodial.CallRequest) (*dinodial.CallHandle, error)
}

// Task outcomes as reported to metrics. deferred means the task stayed
// pending for a later tick.
const (
	outcomeCompleted   = "completed"
	outcomeFailed      = "failed"
	outcomeDeferred    = "deferred"
	outcomeRateLimited = "rate_limited"
)

// Dispatcher drains due follow-up tasks once per tick. Each task commits its
// own outcome, so a crash mid-tick loses at most the task in flight.
type Dispatcher struct {
	tasks     *Store
	appts     *appointments.Store
	patients  *patients.Store
	doctors   *doctors.Store
	messenger Messenger
	caller    Caller
	backoff   BackoffPolicy
	logger    *logging.Logger
	metrics   *metrics.DispatcherMetrics
	clock     func() time.Time
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Tasks        *Store
	Appointments *appointments.Store
	Patients     *patients.Store
	Doctors      *doctors.Store
	Messenger    Messenger
	Caller       Caller
	Backoff      BackoffPolicy
	Logger       *logging.Logger
	Metrics      *metrics.DispatcherMetrics
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	backoff := cfg.Backoff
	if backoff.Cooldown == 0 {
		backoff = DefaultBackoff()
	}
	return &Dispatcher{
		tasks:     cfg.Tasks,
		appts:     cfg.Appointments,
		patients:  cfg.Patients,
		doctors:   cfg.Doctors,
		messenger: cfg.Messenger,
		caller:    cfg.Caller,
		backoff:   backoff,
		logger:    logger,
		metrics:   cfg.Metrics,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// ProcessDue runs one dispatcher tick: fetch every pending task whose
// scheduled time has passed and attempt delivery. Returns the number of tasks
// that reached a terminal state.
//
// A provider rate limit leaves the task pending and pauses the whole tick for
// the backoff cooldown; transient call failures leave the task pending without
// a pause. Everything else is terminal.
func (d *Dispatcher) ProcessDue(ctx context.Context) (int, error) {
	start := d.clock()
	due, err := d.tasks.ListDue(ctx, nil, start)
	if err != nil {
		return 0, fmt.Errorf("followup dispatcher: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	d.logger.Info("followup dispatcher: processing due tasks", "count", len(due))

	processed := 0
	for i := range due {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		t := &due[i]
		outcome := d.processOne(ctx, t)
		d.metrics.ObserveTask(string(t.Channel), outcome)
		switch outcome {
		case outcomeCompleted, outcomeFailed:
			processed++
		case outcomeRateLimited:
			d.metrics.ObserveRateLimitPause()
			d.logger.Warn("followup dispatcher: provider rate limited, pausing",
				"task_id", t.ID, "cooldown", d.backoff.Cooldown)
			if err := d.backoff.Pause(ctx); err != nil {
				return processed, err
			}
		}
	}
	d.metrics.ObserveTick(time.Since(start).Seconds())
	return processed, nil
}

func (d *Dispatcher) processOne(ctx context.Context, t *Task) string {
	appt, err := d.appts.GetByID(ctx, nil, t.AppointmentID)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return d.fail(ctx, t, "appointment missing")
		}
		d.logger.Error("followup dispatcher: load appointment", "task_id", t.ID, "error", err)
		return outcomeDeferred
	}

	patient, err := d.patients.GetByID(ctx, nil, appt.PatientID)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			return d.fail(ctx, t, "patient missing")
		}
		d.logger.Error("followup dispatcher: load patient", "task_id", t.ID, "error", err)
		return outcomeDeferred
	}

	doctor, err := d.doctors.GetByID(ctx, nil, appt.DoctorID)
	if err != nil {
		if errors.Is(err, doctors.ErrNotFound) {
			return d.fail(ctx, t, "doctor missing")
		}
		d.logger.Error("followup dispatcher: load doctor", "task_id", t.ID, "error", err)
		return outcomeDeferred
	}

	dateStr := appt.Date.Format("Monday, 02 January 2006")

	switch t.Channel {
	case ChannelMessage:
		r := Reminder{
			PatientName: patient.Name,
			DoctorName:  doctor.Name,
			Specialty:   doctor.Specialty,
			Date:        dateStr,
			TimeSlot:    appt.TimeSlot,
		}
		if err := d.messenger.SendAppointmentReminder(ctx, patient.Phone, r); err != nil {
			d.logger.Error("followup dispatcher: reminder message failed",
				"task_id", t.ID, "phone", patient.Phone, "error", err)
			return d.fail(ctx, t, "message send failed")
		}
	case ChannelVoiceCall:
		req := dinodial.CallRequest{
			Prompt: prompts.ReminderPrompt(patient.Name, doctor.Name, dateStr, appt.TimeSlot),
		}
		if _, err := d.caller.InitiateCall(ctx, req); err != nil {
			if dinodial.IsRateLimited(err) {
				return outcomeRateLimited
			}
			if dinodial.IsTransient(err) {
				d.logger.Warn("followup dispatcher: transient call failure, task stays pending",
					"task_id", t.ID, "error", err)
				return outcomeDeferred
			}
			d.logger.Error("followup dispatcher: reminder call failed",
				"task_id", t.ID, "error", err)
			return d.fail(ctx, t, "call failed")
		}
	default:
		return d.fail(ctx, t, "unknown channel")
	}

	if err := d.tasks.MarkCompleted(ctx, nil, t.ID); err != nil {
		d.logger.Error("followup dispatcher: mark completed", "task_id", t.ID, "error", err)
		return outcomeDeferred
	}
	d.logger.Info("followup dispatcher: reminder delivered",
		"task_id", t.ID, "appointment_id", t.AppointmentID, "channel", t.Channel)
	return outcomeCompleted
}

func (d *Dispatcher) fail(ctx context.Context, t *Task, reason string) string {
	d.logger.Warn("followup dispatcher: task failed",
		"task_id", t.ID, "appointment_id", t.AppointmentID, "reason", reason)
	if err := d.tasks.MarkFailed(ctx, nil, t.ID); err != nil {
		d.logger.Error("followup dispatcher: mark failed", "task_id", t.ID, "error", err)
		return outcomeDeferred
	}
	return outcomeFailed
}
