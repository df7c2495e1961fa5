package patients

import "time"

// PlaceholderName is used when a call result arrives for a phone number the
// hospital has never seen. A later evaluation with a real name overwrites it.
const PlaceholderName = "New Patient"

// Patient represents a registered patient.
type Patient struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Age            *int      `json:"age,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Address        string    `json:"address,omitempty"`
	MedicalHistory string    `json:"medical_history,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
