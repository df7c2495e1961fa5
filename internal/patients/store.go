package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a patient lookup by id finds nothing.
var ErrNotFound = errors.New("patients: not found")

// Querier abstracts the pgx query interface so store methods run against the
// pool or an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides CRUD operations for patients.
type Store struct {
	pool Querier
}

// NewStore creates a patient store backed by the given pool.
func NewStore(pool Querier) *Store {
	return &Store{pool: pool}
}

func (s *Store) querier(q Querier) Querier {
	if q == nil {
		return s.pool
	}
	return q
}

// Create inserts a new patient row.
func (s *Store) Create(ctx context.Context, q Querier, p *Patient) error {
	err := s.querier(q).QueryRow(ctx, `
		INSERT INTO patients (name, phone, email, age, gender, address, medical_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		p.Name, p.Phone, p.Email, p.Age, p.Gender, p.Address, p.MedicalHistory,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}
	return nil
}

// GetByID fetches a patient by id.
func (s *Store) GetByID(ctx context.Context, q Querier, id int64) (*Patient, error) {
	row := s.querier(q).QueryRow(ctx, `
		SELECT id, name, phone, email, age, gender, address, medical_history, created_at
		FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

// FindByPhone fetches a patient by phone number, returning nil when absent.
func (s *Store) FindByPhone(ctx context.Context, q Querier, phone string) (*Patient, error) {
	row := s.querier(q).QueryRow(ctx, `
		SELECT id, name, phone, email, age, gender, address, medical_history, created_at
		FROM patients WHERE phone = $1`, phone)
	p, err := scanPatient(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// UpdateName overwrites the patient's stored name.
func (s *Store) UpdateName(ctx context.Context, q Querier, id int64, name string) error {
	_, err := s.querier(q).Exec(ctx, `UPDATE patients SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("patients: update name: %w", err)
	}
	return nil
}

// Count returns the total number of registered patients.
func (s *Store) Count(ctx context.Context, q Querier) (int64, error) {
	var n int64
	if err := s.querier(q).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("patients: count: %w", err)
	}
	return n, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.Age, &p.Gender, &p.Address, &p.MedicalHistory, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: scan: %w", err)
	}
	return &p, nil
}
