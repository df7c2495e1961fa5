package doctors

import "time"

// Default placeholder used when a call result must be attached to an
// appointment but no doctor has been registered yet.
const (
	DefaultName      = "Dr. Sharma"
	DefaultSpecialty = "General Medicine"
	DefaultPhone     = "0000000000"
)

// Doctor represents a practicing doctor.
type Doctor struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Specialty       string    `json:"specialty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	PasswordHash    string    `json:"-"`
	ClinicName      string    `json:"clinic_name,omitempty"`
	AvailableDays   string    `json:"available_days,omitempty"`
	AvailableTime   string    `json:"available_time,omitempty"`
	ConsultationFee float64   `json:"consultation_fee"`
	IsAvailable     bool      `json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
}

// AvailabilitySlot is one bookable slot on a doctor's calendar.
type AvailabilitySlot struct {
	ID          int64     `json:"id"`
	DoctorID    int64     `json:"doctor_id"`
	Date        time.Time `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	IsBooked    bool      `json:"is_booked"`
	MaxPatients int       `json:"max_patients"`
	CreatedAt   time.Time `json:"created_at"`
}
