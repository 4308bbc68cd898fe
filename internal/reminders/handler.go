package reminders

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Handler exposes reminder scheduling over HTTP. Sending is the dispatch
// worker's job; the API only creates, lists and cancels.
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

type createReminderRequest struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	PrescriptionID *uuid.UUID `json:"prescription_id,omitempty"`
	Channel        Channel    `json:"channel"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	MessageContent string     `json:"message_content"`
	Language       string     `json:"language,omitempty"`
}

// Create handles POST /reminders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Channel.Valid() {
		http.Error(w, "Unsupported channel", http.StatusBadRequest)
		return
	}
	if req.ScheduledTime.IsZero() {
		http.Error(w, "scheduled_time required", http.StatusBadRequest)
		return
	}
	if req.MessageContent == "" {
		http.Error(w, "message_content required", http.StatusBadRequest)
		return
	}

	rem := &Reminder{
		PatientID:      req.PatientID,
		PrescriptionID: req.PrescriptionID,
		Channel:        req.Channel,
		ScheduledTime:  req.ScheduledTime,
		MessageContent: req.MessageContent,
		Language:       req.Language,
	}
	if err := h.store.Create(r.Context(), rem); err != nil {
		h.logger.Error("failed to create reminder", "error", err)
		http.Error(w, "Failed to create reminder", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, rem)
}

// Get handles GET /reminders/{reminderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "reminderID")
	if !ok {
		return
	}
	rem, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Reminder not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load reminder", "error", err, "reminder_id", id)
		http.Error(w, "Failed to load reminder", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rem)
}

// ListPending handles GET /patients/{patientID}/reminders.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.uuidParam(w, r, "patientID")
	if !ok {
		return
	}
	items, err := h.store.ListPending(r.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list reminders", "error", err, "patient_id", patientID)
		http.Error(w, "Failed to list reminders", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"reminders": items})
}

// Cancel handles POST /reminders/{reminderID}/cancel. Only a pending reminder
// can be cancelled; anything else reports conflict.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "reminderID")
	if !ok {
		return
	}
	if err := h.store.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, ErrAlreadySubmitted) {
			http.Error(w, "Reminder is no longer pending", http.StatusConflict)
			return
		}
		h.logger.Error("failed to cancel reminder", "error", err, "reminder_id", id)
		http.Error(w, "Failed to cancel reminder", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
