package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arogya-health/booking-platform/internal/appointments"
)

// ErrNoAppointments is returned by TriggerNow when no appointment exists to
// attach the demo pair to.
var ErrNoAppointments = errors.New("followup: no appointments to remind")

// Standard delays between confirmation and the reminder pair.
const (
	DefaultMessageDelay = 1 * time.Hour
	DefaultVoiceDelay   = 2 * time.Hour
)

// Scheduler creates reminder pairs for confirmed appointments.
type Scheduler struct {
	tasks        *Store
	appts        *appointments.Store
	messageDelay time.Duration
	voiceDelay   time.Duration
}

// NewScheduler creates a scheduler. Non-positive delays fall back to the
// defaults.
func NewScheduler(tasks *Store, appts *appointments.Store, messageDelay, voiceDelay time.Duration) *Scheduler {
	if messageDelay <= 0 {
		messageDelay = DefaultMessageDelay
	}
	if voiceDelay <= 0 {
		voiceDelay = DefaultVoiceDelay
	}
	return &Scheduler{tasks: tasks, appts: appts, messageDelay: messageDelay, voiceDelay: voiceDelay}
}

// ScheduleReminders creates the standard message-then-call pair for an
// appointment, anchored at base.
func (s *Scheduler) ScheduleReminders(ctx context.Context, q Querier, appointmentID int64, base time.Time) ([]Task, error) {
	return s.tasks.CreatePair(ctx, q, appointmentID, base, s.messageDelay, s.voiceDelay)
}

// TriggerNow creates an immediately-due reminder pair, bypassing the standard
// delays. When appointmentID is zero the most recent appointment is used.
// The voice call trails the message by a minute so the two deliveries do not
// race each other.
func (s *Scheduler) TriggerNow(ctx context.Context, appointmentID int64) ([]Task, error) {
	if appointmentID == 0 {
		latest, err := s.appts.Latest(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("followup: trigger now: %w", err)
		}
		if latest == nil {
			return nil, ErrNoAppointments
		}
		appointmentID = latest.ID
	} else {
		if _, err := s.appts.GetByID(ctx, nil, appointmentID); err != nil {
			return nil, fmt.Errorf("followup: trigger now: %w", err)
		}
	}
	return s.tasks.CreatePair(ctx, nil, appointmentID, time.Now().UTC(), 0, time.Minute)
}
