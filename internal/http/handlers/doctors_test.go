package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/patients"
)

func doctorRouter(t *testing.T) (chi.Router, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	h := NewDoctorHandler(doctors.NewStore(mock), appointments.NewStore(mock),
		patients.NewStore(mock), "test-secret", time.Hour, quietLogger())
	r := chi.NewRouter()
	r.Post("/api/doctor/register", h.Register)
	r.Post("/api/doctor/login", h.Login)
	r.Get("/api/doctors", h.List)
	r.Post("/api/doctor/{doctorID}/availability", h.AddAvailability)
	r.Post("/api/doctor/{doctorID}/toggle-availability", h.ToggleAvailability)
	return r, mock
}

func doctorRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "specialty", "phone", "email", "password_hash",
		"clinic_name", "available_days", "available_time", "consultation_fee", "is_available", "created_at"})
}

func TestRegisterDoctor(t *testing.T) {
	r, mock := doctorRouter(t)

	mock.ExpectQuery("INSERT INTO doctors").
		WithArgs("Dr. Anita", "Cardiology", "", "anita@hospital.example", "City Clinic",
			"Mon-Fri", "4pm-6pm", 800.0, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(4), time.Now()))

	body := `{"name":"Dr. Anita","specialty":"Cardiology","email":"anita@hospital.example",
		"clinic_name":"City Clinic","available_days":"Mon-Fri","available_time":"4pm-6pm","consultation_fee":800}`
	req := httptest.NewRequest(http.MethodPost, "/api/doctor/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDoctorLoginSuccess(t *testing.T) {
	r, mock := doctorRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery("FROM doctors WHERE email").
		WithArgs("anita@hospital.example").
		WillReturnRows(doctorRows().
			AddRow(int64(4), "Dr. Anita", "Cardiology", "", "anita@hospital.example", string(hash),
				"City Clinic", "Mon-Fri", "4pm-6pm", 800.0, true, time.Now()))

	body := `{"email":"anita@hospital.example","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/doctor/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token"`) {
		t.Fatalf("expected session token in response: %s", rec.Body.String())
	}
}

func TestDoctorLoginBadPassword(t *testing.T) {
	r, mock := doctorRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery("FROM doctors WHERE email").
		WithArgs("anita@hospital.example").
		WillReturnRows(doctorRows().
			AddRow(int64(4), "Dr. Anita", "Cardiology", "", "anita@hospital.example", string(hash),
				"City Clinic", "Mon-Fri", "4pm-6pm", 800.0, true, time.Now()))

	body := `{"email":"anita@hospital.example","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/doctor/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDoctorLoginUnknownEmail(t *testing.T) {
	r, mock := doctorRouter(t)

	mock.ExpectQuery("FROM doctors WHERE email").
		WithArgs("nobody@hospital.example").WillReturnRows(doctorRows())

	body := `{"email":"nobody@hospital.example","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/doctor/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAddAvailabilitySkipsDuplicates(t *testing.T) {
	r, mock := doctorRouter(t)

	slotRows := func(id int64) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, time.Now())
	}
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO doctor_availability").
		WithArgs(int64(4), date, "10:00 AM", 1).WillReturnRows(slotRows(1))
	// Second slot already exists; ON CONFLICT returns no row.
	mock.ExpectQuery("INSERT INTO doctor_availability").
		WithArgs(int64(4), date, "11:00 AM", 1).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}))

	body := `{"date":"2026-09-01","time_slots":["10:00 AM","11:00 AM"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/doctor/4/availability", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Added 1 availability slots") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestToggleAvailability(t *testing.T) {
	r, mock := doctorRouter(t)

	mock.ExpectQuery("SET is_available = NOT is_available").
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"is_available"}).AddRow(false))

	req := httptest.NewRequest(http.MethodPost, "/api/doctor/4/toggle-availability", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "now unavailable") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
