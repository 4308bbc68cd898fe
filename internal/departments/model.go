package departments

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName = errors.New("departments: name required")
	ErrNotFound  = errors.New("departments: not found")
)

// Department is a hospital department. professional_ids are weak references
// to staff records owned by the gateway.
type Department struct {
	DepartmentID    uuid.UUID   `json:"department_id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	IsActive        bool        `json:"is_active"`
	ProfessionalIDs []uuid.UUID `json:"professional_ids"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Validate checks write-time invariants.
func (d *Department) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
