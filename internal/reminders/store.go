package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists reminders in Postgres. Status transitions are applied with
// compare-and-set updates so concurrent submitters and callbacks get
// at-most-once semantics from the database alone.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

const reminderColumns = `reminder_id, patient_id, prescription_id, channel, scheduled_time, send_time,
	       status, message_content, language, provider_sid, delivery_status, error_message,
	       created_at, updated_at`

// Create inserts a new pending reminder and fills in its generated id.
func (s *Store) Create(ctx context.Context, r *Reminder) error {
	if r.ReminderID == uuid.Nil {
		r.ReminderID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.Language == "" {
		r.Language = "fr"
	}
	query := `
		INSERT INTO reminders (reminder_id, patient_id, prescription_id, channel, scheduled_time,
		    status, message_content, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		r.ReminderID, r.PatientID, r.PrescriptionID, r.Channel, r.ScheduledTime,
		r.Status, r.MessageContent, r.Language).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("reminders: create: %w", err)
	}
	return nil
}

// Get loads one reminder by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE reminder_id = $1`
	r, err := scanReminder(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reminders: get: %w", err)
	}
	return r, nil
}

// GetByProviderSID finds the reminder a delivery callback refers to.
func (s *Store) GetByProviderSID(ctx context.Context, sid string) (*Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE provider_sid = $1`
	r, err := scanReminder(s.pool.QueryRow(ctx, query, sid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reminders: get by provider sid: %w", err)
	}
	return r, nil
}

// ListPending returns pending reminders for a patient ordered by schedule.
func (s *Store) ListPending(ctx context.Context, patientID uuid.UUID) ([]Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE patient_id = $1 AND status = 'pending'
		ORDER BY scheduled_time ASC`
	rows, err := s.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("reminders: list pending: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// ListDue returns up to limit pending reminders whose scheduled_time has
// passed, oldest first. The dispatch worker drains this.
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE status = 'pending' AND scheduled_time <= $1
		ORDER BY scheduled_time ASC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("reminders: list due: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// ClaimForSend flips pending → sent and stamps send_time, but only if the
// reminder is still pending. Returns ErrAlreadySubmitted when another
// submitter won the race or the reminder already left pending.
func (s *Store) ClaimForSend(ctx context.Context, id uuid.UUID, sendTime time.Time) error {
	query := `
		UPDATE reminders
		SET status = 'sent', send_time = $2, updated_at = now()
		WHERE reminder_id = $1 AND status = 'pending'`
	ct, err := s.pool.Exec(ctx, query, id, sendTime)
	if err != nil {
		return fmt.Errorf("reminders: claim for send: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

// RecordProviderAccepted stores the provider correlation id after a
// successful submission.
func (s *Store) RecordProviderAccepted(ctx context.Context, id uuid.UUID, providerSID, deliveryStatus string) error {
	query := `
		UPDATE reminders
		SET provider_sid = $2, delivery_status = $3, updated_at = now()
		WHERE reminder_id = $1 AND status = 'sent'`
	ct, err := s.pool.Exec(ctx, query, id, providerSID, deliveryStatus)
	if err != nil {
		return fmt.Errorf("reminders: record provider accepted: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RefreshDeliveryStatus records an intermediate provider state (queued,
// sending, ringing) without moving the state machine. Only reminders still
// in sent are touched; settled rows keep their final delivery_status and
// the caller gets ErrAlreadySubmitted.
func (s *Store) RefreshDeliveryStatus(ctx context.Context, id uuid.UUID, deliveryStatus string) error {
	query := `
		UPDATE reminders
		SET delivery_status = $2, updated_at = now()
		WHERE reminder_id = $1 AND status = 'sent'`
	ct, err := s.pool.Exec(ctx, query, id, deliveryStatus)
	if err != nil {
		return fmt.Errorf("reminders: refresh delivery status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

// MarkFailed transitions the reminder to failed from one of the allowed
// source states, populating error_message. Zero rows means the reminder was
// not in the expected state anymore.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, from Status, errorMessage string) error {
	if err := CheckTransition(from, StatusFailed); err != nil {
		return err
	}
	query := `
		UPDATE reminders
		SET status = 'failed', error_message = $3, updated_at = now()
		WHERE reminder_id = $1 AND status = $2`
	ct, err := s.pool.Exec(ctx, query, id, from, errorMessage)
	if err != nil {
		return fmt.Errorf("reminders: mark failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

// Cancel transitions pending → cancelled.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE reminders
		SET status = 'cancelled', updated_at = now()
		WHERE reminder_id = $1 AND status = 'pending'`
	ct, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("reminders: cancel: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

// ApplyDeliveryOutcome moves sent → delivered/failed from a provider
// callback, recording the provider's raw status and failure detail. Zero
// rows updated means the reminder was no longer in sent; callers treat that
// as a stale callback.
func (s *Store) ApplyDeliveryOutcome(ctx context.Context, id uuid.UUID, to Status, providerStatus, detail string) error {
	if err := CheckTransition(StatusSent, to); err != nil {
		return err
	}
	query := `
		UPDATE reminders
		SET status = $2, delivery_status = $3, error_message = $4, updated_at = now()
		WHERE reminder_id = $1 AND status = 'sent'`
	ct, err := s.pool.Exec(ctx, query, id, to, providerStatus, detail)
	if err != nil {
		return fmt.Errorf("reminders: apply delivery outcome: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

func scanReminder(row pgx.Row) (*Reminder, error) {
	var r Reminder
	var providerSID, deliveryStatus, errorMessage *string
	err := row.Scan(&r.ReminderID, &r.PatientID, &r.PrescriptionID, &r.Channel, &r.ScheduledTime,
		&r.SendTime, &r.Status, &r.MessageContent, &r.Language, &providerSID, &deliveryStatus,
		&errorMessage, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if providerSID != nil {
		r.ProviderSID = *providerSID
	}
	if deliveryStatus != nil {
		r.DeliveryStatus = *deliveryStatus
	}
	if errorMessage != nil {
		r.ErrorMessage = *errorMessage
	}
	return &r, nil
}

func collectReminders(rows pgx.Rows) ([]Reminder, error) {
	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("reminders: scan: %w", err)
		}
		out = append(out, *r)
	}
	if out == nil {
		out = []Reminder{}
	}
	return out, rows.Err()
}
