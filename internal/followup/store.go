package followup

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier abstracts the pgx query interface so store methods run against the
// pool or an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides CRUD operations for follow-up tasks.
type Store struct {
	pool Querier
}

// NewStore creates a follow-up task store backed by the given pool.
func NewStore(pool Querier) *Store {
	return &Store{pool: pool}
}

func (s *Store) querier(q Querier) Querier {
	if q == nil {
		return s.pool
	}
	return q
}

// Create inserts a new pending task.
func (s *Store) Create(ctx context.Context, q Querier, t *Task) error {
	if t.Status == "" {
		t.Status = StatusPending
	}
	err := s.querier(q).QueryRow(ctx, `
		INSERT INTO follow_up_tasks (appointment_id, scheduled_time, channel, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		t.AppointmentID, t.ScheduledAt, string(t.Channel), string(t.Status),
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("followup: create task: %w", err)
	}
	return nil
}

// CreatePair inserts the standard post-confirmation reminder pair: a message
// at base+messageDelay and a voice call at base+voiceDelay.
func (s *Store) CreatePair(ctx context.Context, q Querier, appointmentID int64, base time.Time, messageDelay, voiceDelay time.Duration) ([]Task, error) {
	pair := []Task{
		{AppointmentID: appointmentID, ScheduledAt: base.Add(messageDelay), Channel: ChannelMessage},
		{AppointmentID: appointmentID, ScheduledAt: base.Add(voiceDelay), Channel: ChannelVoiceCall},
	}
	for i := range pair {
		if err := s.Create(ctx, q, &pair[i]); err != nil {
			return nil, err
		}
	}
	return pair, nil
}

// ListDue returns all pending tasks whose scheduled time is on or before the
// given instant.
func (s *Store) ListDue(ctx context.Context, q Querier, asOf time.Time) ([]Task, error) {
	rows, err := s.querier(q).Query(ctx, `
		SELECT id, appointment_id, scheduled_time, channel, status, created_at
		FROM follow_up_tasks
		WHERE status = 'pending' AND scheduled_time <= $1
		ORDER BY scheduled_time ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("followup: list due: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListByAppointment returns all tasks for an appointment, oldest first.
func (s *Store) ListByAppointment(ctx context.Context, q Querier, appointmentID int64) ([]Task, error) {
	rows, err := s.querier(q).Query(ctx, `
		SELECT id, appointment_id, scheduled_time, channel, status, created_at
		FROM follow_up_tasks
		WHERE appointment_id = $1
		ORDER BY scheduled_time ASC`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("followup: list by appointment: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// MarkCompleted transitions a pending task to completed.
func (s *Store) MarkCompleted(ctx context.Context, q Querier, id int64) error {
	return s.markTerminal(ctx, q, id, StatusCompleted)
}

// MarkFailed transitions a pending task to failed.
func (s *Store) MarkFailed(ctx context.Context, q Querier, id int64) error {
	return s.markTerminal(ctx, q, id, StatusFailed)
}

func (s *Store) markTerminal(ctx context.Context, q Querier, id int64, status Status) error {
	tag, err := s.querier(q).Exec(ctx, `
		UPDATE follow_up_tasks SET status = $1
		WHERE id = $2 AND status = 'pending'`, string(status), id)
	if err != nil {
		return fmt.Errorf("followup: mark %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("followup: mark %s: no pending task with id %d", status, id)
	}
	return nil
}

func scanTasks(rows pgx.Rows) ([]Task, error) {
	var result []Task
	for rows.Next() {
		var t Task
		var channel, status string
		if err := rows.Scan(&t.ID, &t.AppointmentID, &t.ScheduledAt, &channel, &status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("followup: scan task: %w", err)
		}
		t.Channel = Channel(channel)
		t.Status = Status(status)
		result = append(result, t)
	}
	return result, rows.Err()
}
