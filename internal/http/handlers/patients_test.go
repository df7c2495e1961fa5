package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithWriter("error", io.Discard)
}

func patientRouter(t *testing.T) (chi.Router, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	h := NewPatientHandler(patients.NewStore(mock), quietLogger())
	r := chi.NewRouter()
	r.Post("/api/patient/register", h.Register)
	r.Get("/api/patient/{patientID}", h.Get)
	r.Get("/api/patient/phone/{phone}", h.GetByPhone)
	return r, mock
}

func patientRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "phone", "email", "age", "gender", "address", "medical_history", "created_at"})
}

func TestRegisterPatientCreates(t *testing.T) {
	r, mock := patientRouter(t)

	mock.ExpectQuery("FROM patients WHERE phone").
		WithArgs("+919876543210").WillReturnRows(patientRows())
	mock.ExpectQuery("INSERT INTO patients").
		WithArgs("Asha Rao", "+919876543210", "asha@example.com", (*int)(nil), "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(21), time.Now()))

	body := `{"name":"Asha Rao","phone":"+919876543210","email":"asha@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patient/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"success"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegisterPatientExistingPhone(t *testing.T) {
	r, mock := patientRouter(t)

	mock.ExpectQuery("FROM patients WHERE phone").
		WithArgs("+919876543210").
		WillReturnRows(patientRows().
			AddRow(int64(21), "Asha Rao", "+919876543210", "", (*int)(nil), "", "", "", time.Now()))

	body := `{"name":"Asha Rao","phone":"+919876543210"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patient/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing patient, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already registered") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRegisterPatientValidation(t *testing.T) {
	r, _ := patientRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/patient/register", strings.NewReader(`{"name":"Asha"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without phone, got %d", rec.Code)
	}
}

func TestGetPatientNotFound(t *testing.T) {
	r, mock := patientRouter(t)

	mock.ExpectQuery("FROM patients WHERE id").
		WithArgs(int64(99)).WillReturnRows(patientRows())

	req := httptest.NewRequest(http.MethodGet, "/api/patient/99", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetPatientByPhone(t *testing.T) {
	r, mock := patientRouter(t)

	mock.ExpectQuery("FROM patients WHERE phone").
		WithArgs("+919876543210").
		WillReturnRows(patientRows().
			AddRow(int64(21), "Asha Rao", "+919876543210", "", (*int)(nil), "", "", "", time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/patient/phone/+919876543210", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Asha Rao") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
