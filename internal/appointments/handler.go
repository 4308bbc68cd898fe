package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Handler exposes appointment reads and writes over HTTP.
type Handler struct {
	store  *Store
	logger *logging.Logger
	now    func() time.Time
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger, now: time.Now}
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var a Appointment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.Create(r.Context(), &a); err != nil {
		if errors.Is(err, ErrInvalidType) || errors.Is(err, ErrZeroScheduled) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create appointment", "error", err)
		http.Error(w, "Failed to create appointment", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, a)
}

// Get handles GET /appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "Invalid appointmentID", http.StatusBadRequest)
		return
	}
	a, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "appointment_id", id)
		http.Error(w, "Failed to load appointment", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// ListByPatient handles GET /patients/{patientID}/appointments.
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "Invalid patientID", http.StatusBadRequest)
		return
	}
	items, err := h.store.ListByPatient(r.Context(), patientID, 0)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "patient_id", patientID)
		http.Error(w, "Failed to list appointments", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

// ListUpcoming handles GET /appointments/upcoming.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListUpcoming(r.Context(), h.now(), 0)
	if err != nil {
		h.logger.Error("failed to list upcoming appointments", "error", err)
		http.Error(w, "Failed to list appointments", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
