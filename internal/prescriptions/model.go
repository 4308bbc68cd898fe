package prescriptions

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyDosage         = errors.New("prescriptions: dosage required")
	ErrEmptyMedicationName = errors.New("prescriptions: medication name required")
	ErrInvalidDateRange    = errors.New("prescriptions: end_date must not precede start_date")
	ErrInvalidFrequency    = errors.New("prescriptions: frequency must be positive")
	ErrNoItems             = errors.New("prescriptions: at least one medication item required")
	ErrNotFound            = errors.New("prescriptions: not found")
	ErrMedicationNotFound  = errors.New("prescriptions: medication not found")
)

// Medication is a catalog entry prescriptions reference. Dosage lives on the
// prescription line, not here: the same medication is prescribed at
// different strengths.
type Medication struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m *Medication) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyMedicationName
	}
	return nil
}

// Item is one medication line on a prescription, carrying its own surrogate
// id so the same medication can appear twice with different date ranges.
// Frequency is doses per day over the prescribed interval; fractional values
// (every other day = 0.5) are valid.
type Item struct {
	ItemID       uuid.UUID `json:"prescription_medication_id"`
	MedicationID uuid.UUID `json:"medication_id"`
	Dosage       string    `json:"dosage"`
	Frequency    float64   `json:"frequency"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Instructions string    `json:"instructions,omitempty"`
}

func (i *Item) Validate() error {
	if strings.TrimSpace(i.Dosage) == "" {
		return ErrEmptyDosage
	}
	if i.Frequency <= 0 {
		return ErrInvalidFrequency
	}
	if i.EndDate.Before(i.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// Prescription is issued against an appointment and carries one or more
// medication items. The appointment link is a hard reference within this
// service; patient and professional come through the appointment.
type Prescription struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	AppointmentID  uuid.UUID `json:"appointment_id"`
	Notes          string    `json:"notes,omitempty"`
	Items          []Item    `json:"items"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks write-time invariants. A prescription without items or with
// any invalid item is rejected whole.
func (p *Prescription) Validate() error {
	if len(p.Items) == 0 {
		return ErrNoItems
	}
	for i := range p.Items {
		if err := p.Items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
