package calls

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a call record lookup finds nothing.
var ErrNotFound = errors.New("calls: not found")

// Querier abstracts the pgx query interface so store methods run against the
// pool or an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides CRUD operations for call logs.
type Store struct {
	pool Querier
}

// NewStore creates a call-log store backed by the given pool.
func NewStore(pool Querier) *Store {
	return &Store{pool: pool}
}

func (s *Store) querier(q Querier) Querier {
	if q == nil {
		return s.pool
	}
	return q
}

const columns = `id, call_id, phone_number, appointment_id, status, duration, prompt_used, evaluation_result, recording_url, created_at, completed_at`

// Create inserts a new call record.
func (s *Store) Create(ctx context.Context, q Querier, r *Record) error {
	err := s.querier(q).QueryRow(ctx, `
		INSERT INTO call_logs (call_id, phone_number, appointment_id, status, duration, prompt_used, evaluation_result, recording_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		r.CallID, r.PhoneNumber, r.AppointmentID, r.Status, r.Duration,
		r.PromptUsed, r.Evaluation, r.RecordingURL,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("calls: insert: %w", err)
	}
	return nil
}

// FindByCallID fetches the record for a provider call id, returning nil when
// no record exists yet.
func (s *Store) FindByCallID(ctx context.Context, q Querier, callID int64) (*Record, error) {
	row := s.querier(q).QueryRow(ctx, `SELECT `+columns+` FROM call_logs WHERE call_id = $1`, callID)
	var r Record
	err := row.Scan(&r.ID, &r.CallID, &r.PhoneNumber, &r.AppointmentID, &r.Status, &r.Duration,
		&r.PromptUsed, &r.Evaluation, &r.RecordingURL, &r.CreatedAt, &r.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("calls: find by call id: %w", err)
	}
	return &r, nil
}

// Update persists merged provider data. The recording URL is written as-is;
// merge semantics (never blanking a known URL) are the caller's concern.
func (s *Store) Update(ctx context.Context, q Querier, r *Record) error {
	tag, err := s.querier(q).Exec(ctx, `
		UPDATE call_logs
		SET status = $1, duration = $2, evaluation_result = $3, recording_url = $4,
		    appointment_id = $5, completed_at = $6
		WHERE call_id = $7`,
		r.Status, r.Duration, r.Evaluation, r.RecordingURL, r.AppointmentID, r.CompletedAt, r.CallID)
	if err != nil {
		return fmt.Errorf("calls: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns call records, newest first.
func (s *Store) List(ctx context.Context, q Querier, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.querier(q).Query(ctx, `
		SELECT `+columns+` FROM call_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("calls: list: %w", err)
	}
	defer rows.Close()
	var result []Record
	for rows.Next() {
		var r Record
		err := rows.Scan(&r.ID, &r.CallID, &r.PhoneNumber, &r.AppointmentID, &r.Status, &r.Duration,
			&r.PromptUsed, &r.Evaluation, &r.RecordingURL, &r.CreatedAt, &r.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("calls: scan: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
