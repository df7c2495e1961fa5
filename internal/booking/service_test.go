package booking

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/calls"
	"github.com/arogya-health/booking-platform/internal/dinodial"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

type stubCaller struct {
	calls      int
	lastPrompt string
	lastEval   bool
	err        error
}

func (c *stubCaller) InitiateCall(ctx context.Context, req dinodial.CallRequest) (*dinodial.CallHandle, error) {
	c.calls++
	c.lastPrompt = req.Prompt
	c.lastEval = req.EvaluationTool != nil
	if c.err != nil {
		return nil, c.err
	}
	return &dinodial.CallHandle{ID: 42, Message: "Call initiated"}, nil
}

func newTestService(mock pgxmock.PgxPoolIface, caller Caller) *Service {
	return NewService(Config{
		Pool:         mock,
		Patients:     patients.NewStore(mock),
		Doctors:      doctors.NewStore(mock),
		Appointments: appointments.NewStore(mock),
		Calls:        calls.NewStore(mock),
		Caller:       caller,
		Logger:       logging.NewWithWriter("error", io.Discard),
	})
}

func doctorRow(id int64, name, specialty, slots string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "specialty", "phone", "email", "password_hash",
		"clinic_name", "available_days", "available_time", "consultation_fee", "is_available", "created_at"}).
		AddRow(id, name, specialty, "", "", "", "City Clinic", "Mon-Fri", slots, 500.0, true, time.Now())
}

func TestBookCreatesAppointmentAndPlacesCall(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	caller := &stubCaller{}
	svc := newTestService(mock, caller)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM patients WHERE phone").
		WithArgs("+919876543210").WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO patients").
		WithArgs("Asha Rao", "+919876543210", "", (*int)(nil), "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(21), time.Now()))
	mock.ExpectQuery("FROM doctors WHERE id").
		WithArgs(int64(4)).WillReturnRows(doctorRow(4, "Dr. Anita", "Cardiology", "4pm-6pm"))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(21), int64(4), pgxmock.AnyArg(), "11:30 AM", "scheduled",
			pgxmock.AnyArg(), "", "checkup", "chest pain", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), time.Now(), time.Now()))
	mock.ExpectQuery("WHERE is_available").
		WillReturnRows(doctorRow(4, "Dr. Anita", "Cardiology", "4pm-6pm"))
	mock.ExpectCommit()
	// The provider accepted the call: persist the log and linkage.
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO call_logs").
		WithArgs(int64(42), "+919876543210", pgxmock.AnyArg(), "in_progress", 0, pgxmock.AnyArg(), pgxmock.AnyArg(), "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectExec("SET call_id").
		WithArgs(int64(42), "initiated", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	result, err := svc.Book(context.Background(), Request{
		PatientPhone: "+919876543210",
		PatientName:  "Asha Rao",
		DoctorID:     4,
		Date:         "2026-09-01",
		TimeSlot:     "11:30 AM",
		Reason:       "checkup",
		Symptoms:     "chest pain",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if result.AppointmentID != 7 || result.CallID == nil || *result.CallID != 42 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.CallStatus != "initiated" {
		t.Fatalf("call status = %q", result.CallStatus)
	}
	if caller.calls != 1 || !caller.lastEval {
		t.Fatalf("caller not invoked with evaluation tool: %+v", caller)
	}
	if !strings.Contains(caller.lastPrompt, "Dr. Anita") {
		t.Fatalf("prompt missing target doctor:\n%s", caller.lastPrompt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBookRequiresPhone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	svc := newTestService(mock, &stubCaller{})
	if _, err := svc.Book(context.Background(), Request{}); !errors.Is(err, ErrPhoneRequired) {
		t.Fatalf("expected ErrPhoneRequired, got %v", err)
	}
}

func TestBookRejectsBadDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	svc := newTestService(mock, &stubCaller{})
	if _, err := svc.Book(context.Background(), Request{PatientPhone: "+911", Date: "01-09-2026"}); err == nil {
		t.Fatal("expected date parse error")
	}
}

func TestBookSurvivesCallFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	caller := &stubCaller{err: &dinodial.RateLimitError{Message: "Rate limit exceeded"}}
	svc := newTestService(mock, caller)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM patients WHERE phone").
		WithArgs("+919876543210").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "email", "age", "gender", "address", "medical_history", "created_at"}).
			AddRow(int64(21), "Asha Rao", "+919876543210", "", (*int)(nil), "", "", "", time.Now()))
	mock.ExpectQuery("FROM doctors ORDER BY id LIMIT 1").
		WillReturnRows(doctorRow(3, "Dr. Mehta", "General Medicine", "9am-5pm"))
	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(8), time.Now(), time.Now()))
	mock.ExpectQuery("WHERE is_available").
		WillReturnRows(doctorRow(3, "Dr. Mehta", "General Medicine", "9am-5pm"))
	mock.ExpectCommit()
	// No call log: the dial failed.

	result, err := svc.Book(context.Background(), Request{PatientPhone: "+919876543210"})
	if err != nil {
		t.Fatalf("booking must survive a failed dial: %v", err)
	}
	if result.CallID != nil || result.CallStatus != "failed" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStartCallBuildsRosterPrompt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	caller := &stubCaller{}
	svc := newTestService(mock, caller)

	mock.ExpectQuery("WHERE is_available").
		WillReturnRows(doctorRow(4, "Dr. Anita", "Cardiology", "4pm-6pm"))

	handle, err := svc.StartCall(context.Background(), "+919876543210", nil)
	if err != nil {
		t.Fatalf("start call: %v", err)
	}
	if handle.ID != 42 {
		t.Fatalf("handle = %+v", handle)
	}
	if !strings.Contains(caller.lastPrompt, "<hospital_roster>") || !strings.Contains(caller.lastPrompt, "Dr. Anita") {
		t.Fatalf("roster missing from prompt:\n%s", caller.lastPrompt)
	}
}
