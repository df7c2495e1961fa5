package doctors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotFound is returned when a doctor lookup finds nothing.
	ErrNotFound = errors.New("doctors: not found")
	// ErrSlotBooked is returned when deleting a slot a patient already holds.
	ErrSlotBooked = errors.New("doctors: slot is booked")
)

// Querier abstracts the pgx query interface so store methods run against the
// pool or an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides CRUD operations for doctors and their availability.
type Store struct {
	pool Querier
}

// NewStore creates a doctor store backed by the given pool.
func NewStore(pool Querier) *Store {
	return &Store{pool: pool}
}

func (s *Store) querier(q Querier) Querier {
	if q == nil {
		return s.pool
	}
	return q
}

const doctorColumns = `id, name, specialty, phone, email, COALESCE(password_hash, ''), clinic_name, available_days, available_time, consultation_fee, is_available, created_at`

// Create inserts a new doctor row.
func (s *Store) Create(ctx context.Context, q Querier, d *Doctor) error {
	if d.AvailableDays == "" {
		d.AvailableDays = "Mon-Fri"
	}
	if d.AvailableTime == "" {
		d.AvailableTime = "9 AM - 5 PM"
	}
	err := s.querier(q).QueryRow(ctx, `
		INSERT INTO doctors (name, specialty, phone, email, clinic_name, available_days, available_time, consultation_fee, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		d.Name, d.Specialty, d.Phone, d.Email, d.ClinicName,
		d.AvailableDays, d.AvailableTime, d.ConsultationFee, d.IsAvailable,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("doctors: insert: %w", err)
	}
	return nil
}

// GetByID fetches a doctor by id.
func (s *Store) GetByID(ctx context.Context, q Querier, id int64) (*Doctor, error) {
	row := s.querier(q).QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

// FindByEmail fetches a doctor by login email, returning nil when absent.
func (s *Store) FindByEmail(ctx context.Context, q Querier, email string) (*Doctor, error) {
	row := s.querier(q).QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE email = $1`, email)
	d, err := scanDoctor(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return d, err
}

// List returns doctors, optionally filtered by exact specialty.
func (s *Store) List(ctx context.Context, q Querier, specialty string) ([]Doctor, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if specialty != "" {
		rows, err = s.querier(q).Query(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE specialty = $1 ORDER BY id`, specialty)
	} else {
		rows, err = s.querier(q).Query(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY id`)
	}
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()
	return scanDoctors(rows)
}

// ListAvailable returns doctors currently accepting bookings.
func (s *Store) ListAvailable(ctx context.Context, q Querier) ([]Doctor, error) {
	rows, err := s.querier(q).Query(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE is_available ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("doctors: list available: %w", err)
	}
	defer rows.Close()
	return scanDoctors(rows)
}

// First returns the lowest-id doctor, or nil when the table is empty.
func (s *Store) First(ctx context.Context, q Querier) (*Doctor, error) {
	row := s.querier(q).QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY id LIMIT 1`)
	d, err := scanDoctor(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return d, err
}

// MatchSpecialty returns the first doctor whose specialty contains the given
// text (case-insensitive), or nil when nobody matches.
func (s *Store) MatchSpecialty(ctx context.Context, q Querier, specialty string) (*Doctor, error) {
	row := s.querier(q).QueryRow(ctx, `
		SELECT `+doctorColumns+` FROM doctors
		WHERE specialty ILIKE '%' || $1 || '%'
		ORDER BY id LIMIT 1`, specialty)
	d, err := scanDoctor(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return d, err
}

// EnsureDefault returns the first registered doctor, creating the placeholder
// doctor when — and only when — the table is empty. The bool reports whether
// the placeholder was created.
func (s *Store) EnsureDefault(ctx context.Context, q Querier) (*Doctor, bool, error) {
	d, err := s.First(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if d != nil {
		return d, false, nil
	}
	placeholder := &Doctor{
		Name:        DefaultName,
		Specialty:   DefaultSpecialty,
		Phone:       DefaultPhone,
		IsAvailable: true,
	}
	if err := s.Create(ctx, q, placeholder); err != nil {
		return nil, false, err
	}
	return placeholder, true, nil
}

// SetPassword stores a bcrypt hash of the doctor's portal password.
func (s *Store) SetPassword(ctx context.Context, q Querier, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("doctors: hash password: %w", err)
	}
	tag, err := s.querier(q).Exec(ctx, `UPDATE doctors SET password_hash = $1 WHERE id = $2`, string(hash), id)
	if err != nil {
		return fmt.Errorf("doctors: set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CheckPassword reports whether the candidate matches the stored hash.
func CheckPassword(d *Doctor, candidate string) bool {
	if d == nil || d.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(candidate)) == nil
}

// ToggleAvailability flips the doctor's overall availability flag and returns
// the new value.
func (s *Store) ToggleAvailability(ctx context.Context, q Querier, id int64) (bool, error) {
	var available bool
	err := s.querier(q).QueryRow(ctx, `
		UPDATE doctors SET is_available = NOT is_available
		WHERE id = $1 RETURNING is_available`, id).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("doctors: toggle availability: %w", err)
	}
	return available, nil
}

// Count returns the total number of doctors.
func (s *Store) Count(ctx context.Context, q Querier) (int64, error) {
	var n int64
	if err := s.querier(q).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("doctors: count: %w", err)
	}
	return n, nil
}

// AddSlot inserts an availability slot unless one already exists for the same
// doctor, date and time.
func (s *Store) AddSlot(ctx context.Context, q Querier, slot *AvailabilitySlot) (bool, error) {
	if slot.MaxPatients <= 0 {
		slot.MaxPatients = 1
	}
	err := s.querier(q).QueryRow(ctx, `
		INSERT INTO doctor_availability (doctor_id, date, time_slot, max_patients)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doctor_id, date, time_slot) DO NOTHING
		RETURNING id, created_at`,
		slot.DoctorID, slot.Date, slot.TimeSlot, slot.MaxPatients,
	).Scan(&slot.ID, &slot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("doctors: add slot: %w", err)
	}
	return true, nil
}

// ListSlots returns a doctor's availability slots within [from, to].
func (s *Store) ListSlots(ctx context.Context, q Querier, doctorID int64, from, to time.Time) ([]AvailabilitySlot, error) {
	rows, err := s.querier(q).Query(ctx, `
		SELECT id, doctor_id, date, time_slot, is_booked, max_patients, created_at
		FROM doctor_availability
		WHERE doctor_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, time_slot`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("doctors: list slots: %w", err)
	}
	defer rows.Close()
	var slots []AvailabilitySlot
	for rows.Next() {
		var sl AvailabilitySlot
		if err := rows.Scan(&sl.ID, &sl.DoctorID, &sl.Date, &sl.TimeSlot, &sl.IsBooked, &sl.MaxPatients, &sl.CreatedAt); err != nil {
			return nil, fmt.Errorf("doctors: scan slot: %w", err)
		}
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}

// DeleteSlot removes an unbooked availability slot.
func (s *Store) DeleteSlot(ctx context.Context, q Querier, doctorID, slotID int64) error {
	var isBooked bool
	err := s.querier(q).QueryRow(ctx, `
		SELECT is_booked FROM doctor_availability WHERE id = $1 AND doctor_id = $2`,
		slotID, doctorID).Scan(&isBooked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("doctors: find slot: %w", err)
	}
	if isBooked {
		return ErrSlotBooked
	}
	if _, err := s.querier(q).Exec(ctx, `DELETE FROM doctor_availability WHERE id = $1`, slotID); err != nil {
		return fmt.Errorf("doctors: delete slot: %w", err)
	}
	return nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.Phone, &d.Email, &d.PasswordHash,
		&d.ClinicName, &d.AvailableDays, &d.AvailableTime, &d.ConsultationFee, &d.IsAvailable, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("doctors: scan: %w", err)
	}
	return &d, nil
}

func scanDoctors(rows pgx.Rows) ([]Doctor, error) {
	var result []Doctor
	for rows.Next() {
		var d Doctor
		err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.Phone, &d.Email, &d.PasswordHash,
			&d.ClinicName, &d.AvailableDays, &d.AvailableTime, &d.ConsultationFee, &d.IsAvailable, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
