package departments

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT department_id, name, description, is_active, professional_ids, created_at, updated_at
		FROM departments ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if out == nil {
		out = []Department{}
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT department_id, name, description, is_active, professional_ids, created_at, updated_at
		FROM departments WHERE department_id = $1`, id)
	d, err := scanDepartment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repository) Create(ctx context.Context, d *Department) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.DepartmentID == uuid.Nil {
		d.DepartmentID = uuid.New()
	}
	professionals := uuidStrings(d.ProfessionalIDs)
	return r.db.QueryRowContext(ctx, `
		INSERT INTO departments (department_id, name, description, is_active, professional_ids)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		d.DepartmentID, d.Name, d.Description, d.IsActive, pq.Array(professionals)).
		Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *Repository) Update(ctx context.Context, d *Department) error {
	if err := d.Validate(); err != nil {
		return err
	}
	professionals := uuidStrings(d.ProfessionalIDs)
	res, err := r.db.ExecContext(ctx, `
		UPDATE departments
		SET name = $2, description = $3, is_active = $4, professional_ids = $5, updated_at = $6
		WHERE department_id = $1`,
		d.DepartmentID, d.Name, d.Description, d.IsActive, pq.Array(professionals), time.Now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE department_id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDepartment(row rowScanner) (*Department, error) {
	var d Department
	var professionals []string
	if err := row.Scan(&d.DepartmentID, &d.Name, &d.Description, &d.IsActive,
		pq.Array(&professionals), &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ProfessionalIDs = make([]uuid.UUID, 0, len(professionals))
	for _, s := range professionals {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		d.ProfessionalIDs = append(d.ProfessionalIDs, id)
	}
	return &d, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
