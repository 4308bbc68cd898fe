package appointments

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
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists appointments in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

const appointmentColumns = `appointment_id, patient_id, professional_id, scheduled, type, notes,
	       created_at, updated_at`

// Create inserts a new appointment after validation.
func (s *Store) Create(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.AppointmentID == uuid.Nil {
		a.AppointmentID = uuid.New()
	}
	query := `
		INSERT INTO appointments (appointment_id, patient_id, professional_id, scheduled, type, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		a.AppointmentID, a.PatientID, a.ProfessionalID, a.Scheduled, a.Type, a.Notes).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointments: create: %w", err)
	}
	return nil
}

// Get loads one appointment by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE appointment_id = $1`
	a, err := scanAppointment(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return a, nil
}

// ListByPatient returns a patient's appointments, soonest first.
func (s *Store) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled ASC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by patient: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListUpcoming returns appointments scheduled at or after t, soonest first.
func (s *Store) ListUpcoming(ctx context.Context, t time.Time, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE scheduled >= $1
		ORDER BY scheduled ASC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, t, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list upcoming: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.AppointmentID, &a.PatientID, &a.ProfessionalID, &a.Scheduled,
		&a.Type, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *a)
	}
	if out == nil {
		out = []Appointment{}
	}
	return out, rows.Err()
}
