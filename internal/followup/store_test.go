package followup

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestStoreCreateDefaultsToPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	at := time.Now().Add(time.Hour)
	mock.ExpectQuery("INSERT INTO follow_up_tasks").
		WithArgs(int64(7), at, "message", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	task := &Task{AppointmentID: 7, ScheduledAt: at, Channel: ChannelMessage}
	if err := store.Create(context.Background(), nil, task); err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID != 1 || task.Status != StatusPending {
		t.Fatalf("unexpected task after create: %+v", task)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreCreatePair(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO follow_up_tasks").
		WithArgs(int64(3), base.Add(time.Hour), "message", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), time.Now()))
	mock.ExpectQuery("INSERT INTO follow_up_tasks").
		WithArgs(int64(3), base.Add(2*time.Hour), "voice_call", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), time.Now()))

	pair, err := store.CreatePair(context.Background(), nil, 3, base, time.Hour, 2*time.Hour)
	if err != nil {
		t.Fatalf("create pair: %v", err)
	}
	if len(pair) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(pair))
	}
	if pair[0].Channel != ChannelMessage || pair[1].Channel != ChannelVoiceCall {
		t.Fatalf("unexpected channels: %v %v", pair[0].Channel, pair[1].Channel)
	}
	if !pair[1].ScheduledAt.After(pair[0].ScheduledAt) {
		t.Fatalf("voice task should trail message task")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreListDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	now := time.Now()
	mock.ExpectQuery("SELECT id, appointment_id, scheduled_time, channel, status").
		WithArgs(now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "appointment_id", "scheduled_time", "channel", "status", "created_at"}).
			AddRow(int64(1), int64(7), now.Add(-time.Minute), "message", "pending", now).
			AddRow(int64(2), int64(7), now.Add(-time.Second), "voice_call", "pending", now))

	due, err := store.ListDue(context.Background(), nil, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due tasks, got %d", len(due))
	}
	if due[0].Channel != ChannelMessage || due[1].Channel != ChannelVoiceCall {
		t.Fatalf("unexpected channels: %+v", due)
	}
}

func TestStoreListByAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	now := time.Now()
	mock.ExpectQuery("FROM follow_up_tasks").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "appointment_id", "scheduled_time", "channel", "status", "created_at"}).
			AddRow(int64(1), int64(7), now.Add(time.Hour), "message", "completed", now).
			AddRow(int64(2), int64(7), now.Add(2*time.Hour), "voice_call", "pending", now))

	tasks, err := store.ListByAppointment(context.Background(), nil, 7)
	if err != nil {
		t.Fatalf("list by appointment: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Status != StatusCompleted || tasks[1].Status != StatusPending {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestStoreMarkTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	mock.ExpectExec("UPDATE follow_up_tasks").
		WithArgs("completed", int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := store.MarkCompleted(context.Background(), nil, 5); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	// Terminal rows are untouchable; affecting zero rows is an error.
	mock.ExpectExec("UPDATE follow_up_tasks").
		WithArgs("failed", int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := store.MarkFailed(context.Background(), nil, 5); err == nil {
		t.Fatal("expected error marking a non-pending task")
	}
}
