package prescriptions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Handler exposes prescriptions and the medication catalog over HTTP.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Create handles POST /prescriptions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p Prescription
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.Create(r.Context(), &p); err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create prescription", "error", err)
		http.Error(w, "Failed to create prescription", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

// Get handles GET /prescriptions/{prescriptionID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "prescriptionID"))
	if err != nil {
		http.Error(w, "Invalid prescriptionID", http.StatusBadRequest)
		return
	}
	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Prescription not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load prescription", "error", err, "prescription_id", id)
		http.Error(w, "Failed to load prescription", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// ListByAppointment handles GET /appointments/{appointmentID}/prescriptions.
func (h *Handler) ListByAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "Invalid appointmentID", http.StatusBadRequest)
		return
	}
	items, err := h.store.ListByAppointment(r.Context(), appointmentID)
	if err != nil {
		h.logger.Error("failed to list prescriptions", "error", err, "appointment_id", appointmentID)
		http.Error(w, "Failed to list prescriptions", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"prescriptions": items})
}

// CreateMedication handles POST /medications.
func (h *Handler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var m Medication
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.CreateMedication(r.Context(), &m); err != nil {
		if errors.Is(err, ErrEmptyMedicationName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create medication", "error", err)
		http.Error(w, "Failed to create medication", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, m)
}

// ListMedications handles GET /medications.
func (h *Handler) ListMedications(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMedications(r.Context())
	if err != nil {
		h.logger.Error("failed to list medications", "error", err)
		http.Error(w, "Failed to list medications", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"medications": items})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidFrequency) ||
		errors.Is(err, ErrEmptyDosage) ||
		errors.Is(err, ErrNoItems)
}
