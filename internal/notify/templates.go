package notify

import (
	"fmt"

	"github.com/arogya-health/booking-platform/internal/followup"
	"github.com/arogya-health/booking-platform/internal/reconcile"
)

// ConfirmationMessage renders the WhatsApp body for a freshly confirmed
// appointment.
func ConfirmationMessage(c reconcile.Confirmation) string {
	return fmt.Sprintf(`*Appointment Confirmed!*

*Patient:* %s
*Doctor:* %s (%s)
*Date:* %s
*Time:* %s
*ID:* %s

Please arrive 10 min early.
Reply to this message to reschedule.`,
		c.PatientName, c.DoctorName, c.Specialty, c.Date, c.TimeSlot, c.Code)
}

// ReminderMessage renders the WhatsApp body for an upcoming-appointment
// reminder.
func ReminderMessage(r followup.Reminder) string {
	return fmt.Sprintf(`*Appointment Reminder*

Hi %s,
This is a reminder for your appointment with *%s* (%s).

*Date:* %s
*Time:* %s

Please reply if you need to reschedule.`,
		r.PatientName, r.DoctorName, r.Specialty, r.Date, r.TimeSlot)
}

// ConfirmationAlertSubject and ConfirmationAlertBody render the ops email
// sent to the hospital desk when a call produces a confirmed booking.
func ConfirmationAlertSubject(c reconcile.Confirmation) string {
	return fmt.Sprintf("Booking confirmed - %s with %s", c.PatientName, c.DoctorName)
}

func ConfirmationAlertBody(c reconcile.Confirmation) string {
	return fmt.Sprintf(`A voice-call booking was just confirmed.

Patient: %s
Doctor: %s (%s)
Date: %s
Time: %s
Confirmation: %s

The patient has been notified on WhatsApp.`,
		c.PatientName, c.DoctorName, c.Specialty, c.Date, c.TimeSlot, c.Code)
}
