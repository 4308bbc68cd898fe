package prescriptions

import (
	"context"
	"errors"
	"fmt"

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

// Store persists prescriptions and the medication catalog in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

// CreateMedication inserts a catalog entry.
func (s *Store) CreateMedication(ctx context.Context, m *Medication) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.MedicationID == uuid.Nil {
		m.MedicationID = uuid.New()
	}
	query := `
		INSERT INTO medications (medication_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query, m.MedicationID, m.Name, m.Description).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("prescriptions: create medication: %w", err)
	}
	return nil
}

// GetMedication loads one catalog entry by id.
func (s *Store) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	query := `
		SELECT medication_id, name, description, created_at, updated_at
		FROM medications WHERE medication_id = $1`
	var m Medication
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&m.MedicationID, &m.Name, &m.Description, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicationNotFound
		}
		return nil, fmt.Errorf("prescriptions: get medication: %w", err)
	}
	return &m, nil
}

// ListMedications returns the catalog sorted by name.
func (s *Store) ListMedications(ctx context.Context) ([]Medication, error) {
	query := `
		SELECT medication_id, name, description, created_at, updated_at
		FROM medications ORDER BY name ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prescriptions: list medications: %w", err)
	}
	defer rows.Close()

	var out []Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.MedicationID, &m.Name, &m.Description,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("prescriptions: scan medication: %w", err)
		}
		out = append(out, m)
	}
	if out == nil {
		out = []Medication{}
	}
	return out, rows.Err()
}

// Create inserts a prescription and all of its items in one transaction, so
// a prescription can never be observed without its medication lines.
func (s *Store) Create(ctx context.Context, p *Prescription) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.PrescriptionID == uuid.Nil {
		p.PrescriptionID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("prescriptions: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO prescriptions (prescription_id, appointment_id, notes)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		p.PrescriptionID, p.AppointmentID, p.Notes).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("prescriptions: create: %w", err)
	}

	for i := range p.Items {
		item := &p.Items[i]
		if item.ItemID == uuid.Nil {
			item.ItemID = uuid.New()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO prescription_medications (prescription_medication_id, prescription_id,
			    medication_id, dosage, frequency, start_date, end_date, instructions)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ItemID, p.PrescriptionID, item.MedicationID, item.Dosage,
			item.Frequency, item.StartDate, item.EndDate, item.Instructions)
		if err != nil {
			return fmt.Errorf("prescriptions: create item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("prescriptions: commit: %w", err)
	}
	return nil
}

// Get loads one prescription with its items.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	query := `
		SELECT prescription_id, appointment_id, notes, created_at, updated_at
		FROM prescriptions WHERE prescription_id = $1`
	var p Prescription
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.PrescriptionID, &p.AppointmentID, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("prescriptions: get: %w", err)
	}

	items, err := s.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return &p, nil
}

// ListByAppointment returns prescriptions issued against an appointment.
func (s *Store) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Prescription, error) {
	query := `
		SELECT prescription_id, appointment_id, notes, created_at, updated_at
		FROM prescriptions
		WHERE appointment_id = $1
		ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("prescriptions: list by appointment: %w", err)
	}
	defer rows.Close()

	var out []Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.PrescriptionID, &p.AppointmentID, &p.Notes,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("prescriptions: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := s.listItems(ctx, out[i].PrescriptionID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	if out == nil {
		out = []Prescription{}
	}
	return out, nil
}

func (s *Store) listItems(ctx context.Context, prescriptionID uuid.UUID) ([]Item, error) {
	query := `
		SELECT prescription_medication_id, medication_id, dosage, frequency,
		       start_date, end_date, instructions
		FROM prescription_medications
		WHERE prescription_id = $1
		ORDER BY start_date ASC, prescription_medication_id ASC`
	rows, err := s.pool.Query(ctx, query, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("prescriptions: list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ItemID, &it.MedicationID, &it.Dosage, &it.Frequency,
			&it.StartDate, &it.EndDate, &it.Instructions); err != nil {
			return nil, fmt.Errorf("prescriptions: scan item: %w", err)
		}
		items = append(items, it)
	}
	if items == nil {
		items = []Item{}
	}
	return items, rows.Err()
}
