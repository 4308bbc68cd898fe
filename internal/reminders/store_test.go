package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStoreCreateDefaults(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	scheduled := now.Add(time.Hour)

	r := &Reminder{
		PatientID:      uuid.New(),
		Channel:        ChannelSMS,
		ScheduledTime:  scheduled,
		MessageContent: "Prenez votre traitement ce soir",
	}

	mock.ExpectQuery("INSERT INTO reminders").
		WithArgs(pgxmock.AnyArg(), r.PatientID, (*uuid.UUID)(nil), ChannelSMS, scheduled,
			StatusPending, r.MessageContent, "fr").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := store.Create(context.Background(), r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != StatusPending {
		t.Errorf("status = %s, want pending", r.Status)
	}
	if r.Language != "fr" {
		t.Errorf("language = %s, want fr", r.Language)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreClaimForSend(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	sendTime := time.Now()

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id, sendTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.ClaimForSend(context.Background(), id, sendTime); err != nil {
		t.Fatalf("ClaimForSend: %v", err)
	}
}

func TestStoreClaimForSendLosesRace(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.ClaimForSend(context.Background(), id, time.Now())
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestStoreRefreshDeliveryStatus(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id, "sending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.RefreshDeliveryStatus(context.Background(), id, "sending"); err != nil {
		t.Fatalf("RefreshDeliveryStatus: %v", err)
	}

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id, "ringing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.RefreshDeliveryStatus(context.Background(), id, "ringing"); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestStoreMarkFailedRejectsIllegalEdge(t *testing.T) {
	store, _ := newMockStore(t)

	err := store.MarkFailed(context.Background(), uuid.New(), StatusDelivered, "boom")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestStoreApplyDeliveryOutcome(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id, StatusDelivered, "delivered", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.ApplyDeliveryOutcome(context.Background(), id, StatusDelivered, "delivered", ""); err != nil {
		t.Fatalf("ApplyDeliveryOutcome: %v", err)
	}
}

func TestStoreApplyDeliveryOutcomeStale(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id, StatusFailed, "undelivered", "unreachable").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.ApplyDeliveryOutcome(context.Background(), id, StatusFailed, "undelivered", "unreachable")
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestStoreApplyDeliveryOutcomeRejectsNonTerminalTarget(t *testing.T) {
	store, _ := newMockStore(t)

	err := store.ApplyDeliveryOutcome(context.Background(), uuid.New(), StatusPending, "queued", "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestStoreCancel(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.Cancel(context.Background(), id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	mock.ExpectExec("UPDATE reminders").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.Cancel(context.Background(), id); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestStoreListDue(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"reminder_id", "patient_id", "prescription_id", "channel", "scheduled_time", "send_time",
		"status", "message_content", "language", "provider_sid", "delivery_status", "error_message",
		"created_at", "updated_at",
	}).AddRow(uuid.New(), uuid.New(), nil, ChannelSMS, now.Add(-time.Minute), nil,
		StatusPending, "Rappel", "fr", nil, nil, nil, now, now)

	mock.ExpectQuery("SELECT .* FROM reminders").
		WithArgs(now, 25).
		WillReturnRows(rows)

	due, err := store.ListDue(context.Background(), now, 25)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 1 || due[0].Status != StatusPending {
		t.Errorf("due = %+v", due)
	}
}
