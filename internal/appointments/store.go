package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when an appointment lookup finds nothing.
var ErrNotFound = errors.New("appointments: not found")

// Querier abstracts the pgx query interface so store methods run against the
// pool or an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides CRUD operations for appointments.
type Store struct {
	pool Querier
}

// NewStore creates an appointment store backed by the given pool.
func NewStore(pool Querier) *Store {
	return &Store{pool: pool}
}

func (s *Store) querier(q Querier) Querier {
	if q == nil {
		return s.pool
	}
	return q
}

const columns = `id, patient_id, doctor_id, appointment_date, appointment_time, status, call_id, call_status, call_recording_url, reason, symptoms, special_notes, confirmation_number, created_at, updated_at`

// Create inserts a new appointment row.
func (s *Store) Create(ctx context.Context, q Querier, a *Appointment) error {
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	err := s.querier(q).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, appointment_time, status, call_id, call_status, reason, symptoms, special_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		a.PatientID, a.DoctorID, a.Date, a.TimeSlot, string(a.Status),
		a.CallID, a.CallStatus, a.Reason, a.Symptoms, a.SpecialNotes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID fetches an appointment by id.
func (s *Store) GetByID(ctx context.Context, q Querier, id int64) (*Appointment, error) {
	row := s.querier(q).QueryRow(ctx, `SELECT `+columns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// ListFilter narrows List results.
type ListFilter struct {
	Status   Status
	DoctorID int64
	Date     *time.Time
}

// List returns appointments matching the filter, newest date first.
func (s *Store) List(ctx context.Context, q Querier, filter ListFilter) ([]Appointment, error) {
	query := `SELECT ` + columns + ` FROM appointments WHERE TRUE`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DoctorID != 0 {
		args = append(args, filter.DoctorID)
		query += fmt.Sprintf(" AND doctor_id = $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(" AND appointment_date = $%d", len(args))
	}
	query += " ORDER BY appointment_date DESC, id DESC"

	rows, err := s.querier(q).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointmentRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// Latest returns the most recently created appointment, or nil when none
// exist. Used by the manual reminder trigger.
func (s *Store) Latest(ctx context.Context, q Querier) (*Appointment, error) {
	row := s.querier(q).QueryRow(ctx, `SELECT `+columns+` FROM appointments ORDER BY id DESC LIMIT 1`)
	a, err := scanAppointment(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// UpdateStatus transitions the appointment's status.
func (s *Store) UpdateStatus(ctx context.Context, q Querier, id int64, status Status) error {
	tag, err := s.querier(q).Exec(ctx, `
		UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachCall links a provider call to the appointment.
func (s *Store) AttachCall(ctx context.Context, q Querier, id, callID int64, callStatus string) error {
	tag, err := s.querier(q).Exec(ctx, `
		UPDATE appointments SET call_id = $1, call_status = $2, updated_at = NOW() WHERE id = $3`,
		callID, callStatus, id)
	if err != nil {
		return fmt.Errorf("appointments: attach call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetConfirmation assigns the confirmation number if none has been assigned
// yet. Returns true when this call performed the assignment, false when a
// code was already present (the stored code wins).
func (s *Store) SetConfirmation(ctx context.Context, q Querier, id int64, code string) (bool, error) {
	tag, err := s.querier(q).Exec(ctx, `
		UPDATE appointments SET confirmation_number = $1, updated_at = NOW()
		WHERE id = $2 AND confirmation_number IS NULL`, code, id)
	if err != nil {
		return false, fmt.Errorf("appointments: set confirmation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Save persists the mutable fields the reconciler touches: doctor, slot,
// status, call linkage and free-text details.
func (s *Store) Save(ctx context.Context, q Querier, a *Appointment) error {
	tag, err := s.querier(q).Exec(ctx, `
		UPDATE appointments
		SET doctor_id = $1, appointment_date = $2, appointment_time = $3, status = $4,
		    call_id = $5, call_status = $6, call_recording_url = $7,
		    reason = $8, symptoms = $9, special_notes = $10, updated_at = NOW()
		WHERE id = $11`,
		a.DoctorID, a.Date, a.TimeSlot, string(a.Status),
		a.CallID, a.CallStatus, a.RecordingURL,
		a.Reason, a.Symptoms, a.SpecialNotes, a.ID)
	if err != nil {
		return fmt.Errorf("appointments: save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DashboardStats aggregates appointment counters for the admin dashboard.
func (s *Store) DashboardStats(ctx context.Context, q Querier, today time.Time) (*Stats, error) {
	row := s.querier(q).QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE appointment_date = $1),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM appointments`, today)
	var st Stats
	if err := row.Scan(&st.TotalAppointments, &st.TodayAppointments, &st.Scheduled, &st.Completed); err != nil {
		return nil, fmt.Errorf("appointments: stats: %w", err)
	}
	return &st, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.TimeSlot, &status,
		&a.CallID, &a.CallStatus, &a.RecordingURL, &a.Reason, &a.Symptoms, &a.SpecialNotes,
		&a.ConfirmationNumber, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	a.Status = Status(status)
	return &a, nil
}

func scanAppointmentRow(rows pgx.Rows) (*Appointment, error) {
	var a Appointment
	var status string
	err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.TimeSlot, &status,
		&a.CallID, &a.CallStatus, &a.RecordingURL, &a.Reason, &a.Symptoms, &a.SpecialNotes,
		&a.ConfirmationNumber, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	a.Status = Status(status)
	return &a, nil
}
