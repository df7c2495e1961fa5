package calls

import (
	"encoding/json"
	"time"
)

// Record is the durable log of one provider voice call. There is at most one
// record per provider call id; reconciliation merges into it rather than
// rewriting.
type Record struct {
	ID            int64           `json:"id"`
	CallID        int64           `json:"call_id"`
	PhoneNumber   string          `json:"phone_number"`
	AppointmentID *int64          `json:"appointment_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	Duration      int             `json:"duration"`
	PromptUsed    string          `json:"-"`
	Evaluation    json.RawMessage `json:"evaluation_result,omitempty"`
	RecordingURL  string          `json:"recording_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}
