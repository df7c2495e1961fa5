// Package notify delivers patient-facing WhatsApp messages and hospital-desk
// email alerts for bookings and reminders.
package notify

import (
	"context"
	"fmt"

	"github.com/arogya-health/booking-platform/internal/followup"
	"github.com/arogya-health/booking-platform/internal/reconcile"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// WhatsAppSender delivers one WhatsApp message.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// Service fans booking notifications out to patients and the hospital desk.
type Service struct {
	whatsapp   WhatsAppSender
	email      EmailSender
	alertEmail string
	logger     *logging.Logger
}

// NewService creates a notification service. alertEmail is the hospital-desk
// address for confirmed-booking alerts; empty disables the alert.
func NewService(whatsapp WhatsAppSender, email EmailSender, alertEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{whatsapp: whatsapp, email: email, alertEmail: alertEmail, logger: logger}
}

// SendBookingConfirmation messages the patient and alerts the hospital desk.
// The desk alert is best-effort; only the patient send can fail the call.
func (s *Service) SendBookingConfirmation(ctx context.Context, phone string, c reconcile.Confirmation) error {
	if err := s.whatsapp.SendWhatsApp(ctx, phone, ConfirmationMessage(c)); err != nil {
		return fmt.Errorf("notify: confirmation to %s: %w", phone, err)
	}
	s.logger.Info("booking confirmation sent", "phone", phone, "confirmation", c.Code)

	if s.email != nil && s.alertEmail != "" {
		msg := EmailMessage{
			To:      s.alertEmail,
			Subject: ConfirmationAlertSubject(c),
			Body:    ConfirmationAlertBody(c),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: desk alert failed", "to", s.alertEmail, "error", err)
		}
	}
	return nil
}

// SendAppointmentReminder messages the patient about an upcoming appointment.
func (s *Service) SendAppointmentReminder(ctx context.Context, phone string, r followup.Reminder) error {
	if err := s.whatsapp.SendWhatsApp(ctx, phone, ReminderMessage(r)); err != nil {
		return fmt.Errorf("notify: reminder to %s: %w", phone, err)
	}
	s.logger.Info("appointment reminder sent", "phone", phone)
	return nil
}

var (
	_ reconcile.Notifier = (*Service)(nil)
	_ followup.Messenger = (*Service)(nil)
)

// LogWhatsAppSender logs instead of sending. Used in development when Twilio
// credentials are absent.
type LogWhatsAppSender struct {
	logger *logging.Logger
}

// NewLogWhatsAppSender creates the no-op sender.
func NewLogWhatsAppSender(logger *logging.Logger) *LogWhatsAppSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogWhatsAppSender{logger: logger}
}

// SendWhatsApp logs the message without sending it.
func (s *LogWhatsAppSender) SendWhatsApp(ctx context.Context, to, body string) error {
	s.logger.Info("whatsapp sender not configured, logging only", "to", to, "body_len", len(body))
	return nil
}

var (
	_ WhatsAppSender = (*TwilioWhatsAppSender)(nil)
	_ WhatsAppSender = (*LogWhatsAppSender)(nil)
)
