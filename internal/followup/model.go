package followup

import "time"

// Status tracks the lifecycle of a follow-up task. pending is the only
// non-terminal state; completed and failed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Channel specifies how the reminder is delivered.
type Channel string

const (
	ChannelMessage   Channel = "message"
	ChannelVoiceCall Channel = "voice_call"
)

// Task is one scheduled reminder for an appointment. A task is due when its
// status is pending and its scheduled time has passed. Tasks are never
// deleted; terminal rows remain as an audit trail.
type Task struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	ScheduledAt   time.Time `json:"scheduled_time"`
	Channel       Channel   `json:"channel"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
