package appointments

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the kind of appointment.
type Type string

const (
	TypeConsultation Type = "consultation"
	TypeFollowUp     Type = "suivi"
	TypeExamination  Type = "examen"
)

func (t Type) Valid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeExamination:
		return true
	}
	return false
}

var (
	ErrInvalidType   = errors.New("appointments: unsupported appointment type")
	ErrZeroScheduled = errors.New("appointments: scheduled time required")
	ErrNotFound      = errors.New("appointments: not found")
)

// Appointment links a patient and a professional at a scheduled time. Both
// party ids are weak references owned by the gateway.
type Appointment struct {
	AppointmentID  uuid.UUID `json:"appointment_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	Scheduled      time.Time `json:"scheduled"`
	Type           Type      `json:"type"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks write-time invariants.
func (a *Appointment) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, a.Type)
	}
	if a.Scheduled.IsZero() {
		return ErrZeroScheduled
	}
	return nil
}
