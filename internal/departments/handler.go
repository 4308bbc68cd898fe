package departments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Handler exposes department CRUD over HTTP.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /departments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list departments", "error", err)
		http.Error(w, "Failed to list departments", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"departments": items})
}

// Get handles GET /departments/{departmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r)
	if !ok {
		return
	}
	d, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Department not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load department", "error", err, "department_id", id)
		http.Error(w, "Failed to load department", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

type departmentRequest struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	IsActive        *bool       `json:"is_active"`
	ProfessionalIDs []uuid.UUID `json:"professional_ids"`
}

// department applies the active default: omitting is_active means active.
func (req *departmentRequest) department() Department {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return Department{
		Name:            req.Name,
		Description:     req.Description,
		IsActive:        active,
		ProfessionalIDs: req.ProfessionalIDs,
	}
}

// Create handles POST /departments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	d := req.department()
	if err := h.repo.Create(r.Context(), &d); err != nil {
		if errors.Is(err, ErrEmptyName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create department", "error", err)
		http.Error(w, "Failed to create department", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, d)
}

// Update handles PUT /departments/{departmentID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r)
	if !ok {
		return
	}
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	d := req.department()
	d.DepartmentID = id
	if err := h.repo.Update(r.Context(), &d); err != nil {
		switch {
		case errors.Is(err, ErrEmptyName):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			http.Error(w, "Department not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to update department", "error", err, "department_id", id)
			http.Error(w, "Failed to update department", http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// Delete handles DELETE /departments/{departmentID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Department not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete department", "error", err, "department_id", id)
		http.Error(w, "Failed to delete department", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		http.Error(w, "Invalid departmentID", http.StatusBadRequest)
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
