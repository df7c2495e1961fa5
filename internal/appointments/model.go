package appointments

import "time"

// Status tracks the lifecycle of an appointment.
type Status string

const (
	// StatusScheduled is set when a booking request creates the appointment.
	StatusScheduled Status = "scheduled"
	// StatusPending is set when a call result arrives with no prior booking.
	StatusPending Status = "pending"
	// StatusConfirmed is set when the call evaluation reports a booking.
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Appointment links a patient and a doctor to a date and time slot.
// ConfirmationNumber stays nil until the first transition into confirmed and
// is never reassigned afterwards.
type Appointment struct {
	ID                 int64      `json:"id"`
	PatientID          int64      `json:"patient_id"`
	DoctorID           int64      `json:"doctor_id"`
	Date               time.Time  `json:"appointment_date"`
	TimeSlot           string     `json:"appointment_time"`
	Status             Status     `json:"status"`
	CallID             *int64     `json:"call_id,omitempty"`
	CallStatus         string     `json:"call_status,omitempty"`
	RecordingURL       string     `json:"call_recording_url,omitempty"`
	Reason             string     `json:"reason,omitempty"`
	Symptoms           string     `json:"symptoms,omitempty"`
	SpecialNotes       string     `json:"special_notes,omitempty"`
	ConfirmationNumber *string    `json:"confirmation_number,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Stats aggregates appointment counts for the dashboard.
type Stats struct {
	TotalPatients     int64 `json:"total_patients"`
	TotalDoctors      int64 `json:"total_doctors"`
	TotalAppointments int64 `json:"total_appointments"`
	TodayAppointments int64 `json:"today_appointments"`
	Scheduled         int64 `json:"pending_appointments"`
	Completed         int64 `json:"completed_appointments"`
}
