package feedback

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Handler wires HTTP requests to the feedback stores and queue.
type Handler struct {
	store     *Store
	publisher *Publisher
	jobs      JobRecorder
	audio     *AudioStore
	metrics   *metrics.FeedbackMetrics
	logger    *logging.Logger
}

// HandlerConfig wires a feedback Handler.
type HandlerConfig struct {
	Store     *Store
	Publisher *Publisher
	Jobs      JobRecorder
	Audio     *AudioStore
	Metrics   *metrics.FeedbackMetrics
	Logger    *logging.Logger
}

// NewHandler creates a feedback handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		jobs:      cfg.Jobs,
		audio:     cfg.Audio,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

type createFeedbackRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	Department  uuid.UUID `json:"department_id"`
	Rating      int       `json:"rating"`
	Language    Language  `json:"language"`
	InputType   InputType `json:"input_type"`
	Description string    `json:"description"`
	AudioKey    string    `json:"audio_key,omitempty"`
}

type createFeedbackResponse struct {
	Feedback *Feedback `json:"feedback"`
	JobID    string    `json:"job_id,omitempty"`
}

// Create handles POST /feedbacks. The row is committed synchronously; the
// classification job is queued afterwards so a queue outage never loses the
// feedback itself.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode create feedback request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Language == "" {
		req.Language = LanguageFrench
	}
	if req.InputType == "" {
		req.InputType = InputText
	}

	f := &Feedback{
		PatientID:   req.PatientID,
		Department:  req.Department,
		Rating:      req.Rating,
		Language:    req.Language,
		InputType:   req.InputType,
		Description: req.Description,
		AudioKey:    req.AudioKey,
	}
	if err := h.store.Create(r.Context(), f); err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create feedback", "error", err)
		http.Error(w, "Failed to create feedback", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveCreated(string(f.Language), string(f.InputType))

	resp := createFeedbackResponse{Feedback: f}
	if h.publisher != nil {
		jobID, err := h.publisher.EnqueueProcessing(r.Context(), f.FeedbackID, false)
		if err != nil {
			h.logger.Error("failed to enqueue feedback processing",
				"error", err, "feedback_id", f.FeedbackID)
		} else {
			resp.JobID = jobID
		}
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /feedbacks/{feedbackID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "feedbackID")
	if !ok {
		return
	}
	f, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Feedback not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load feedback", "error", err, "feedback_id", id)
		http.Error(w, "Failed to load feedback", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, f)
}

// ListByPatient handles GET /patients/{patientID}/feedbacks.
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.uuidParam(w, r, "patientID")
	if !ok {
		return
	}
	items, err := h.store.ListByPatient(r.Context(), patientID, 0)
	if err != nil {
		h.logger.Error("failed to list patient feedback", "error", err, "patient_id", patientID)
		http.Error(w, "Failed to list feedback", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"feedbacks": items})
}

// ListByTheme handles GET /themes/{themeID}/feedbacks.
func (h *Handler) ListByTheme(w http.ResponseWriter, r *http.Request) {
	themeID, ok := h.uuidParam(w, r, "themeID")
	if !ok {
		return
	}
	items, err := h.store.ListByTheme(r.Context(), themeID, 0)
	if err != nil {
		h.logger.Error("failed to list theme feedback", "error", err, "theme_id", themeID)
		http.Error(w, "Failed to list feedback", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"feedbacks": items})
}

// ListThemes handles GET /themes.
func (h *Handler) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.store.ListThemes(r.Context())
	if err != nil {
		h.logger.Error("failed to list themes", "error", err)
		http.Error(w, "Failed to list themes", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"themes": themes})
}

// JobStatus handles GET /feedbacks/jobs/{jobID}.
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		http.Error(w, "Job tracking not configured", http.StatusNotImplemented)
		return
	}
	jobID := chi.URLParam(r, "jobID")
	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load job", "error", err, "job_id", jobID)
		http.Error(w, "Failed to load job", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// Reprocess handles POST /feedbacks/{feedbackID}/reprocess. The previous
// classification stays in place until the new run overwrites it.
func (h *Handler) Reprocess(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		http.Error(w, "Async processing not configured", http.StatusNotImplemented)
		return
	}
	id, ok := h.uuidParam(w, r, "feedbackID")
	if !ok {
		return
	}
	if _, err := h.store.Get(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Feedback not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load feedback", "error", err, "feedback_id", id)
		http.Error(w, "Failed to load feedback", http.StatusInternalServerError)
		return
	}

	jobID, err := h.publisher.EnqueueProcessing(r.Context(), id, true)
	if err != nil {
		h.logger.Error("failed to enqueue reprocessing", "error", err, "feedback_id", id)
		http.Error(w, "Failed to queue reprocessing", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// UploadAudio handles PUT /feedbacks/{feedbackID}/audio.
func (h *Handler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil || !h.audio.Enabled() {
		http.Error(w, "Audio storage not configured", http.StatusNotImplemented)
		return
	}
	id, ok := h.uuidParam(w, r, "feedbackID")
	if !ok {
		return
	}
	key, err := h.audio.Put(r.Context(), id, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		h.logger.Error("failed to store feedback audio", "error", err, "feedback_id", id)
		http.Error(w, "Failed to store audio", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"audio_key": key})
}

// DownloadAudio handles GET /feedbacks/{feedbackID}/audio.
func (h *Handler) DownloadAudio(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil || !h.audio.Enabled() {
		http.Error(w, "Audio storage not configured", http.StatusNotImplemented)
		return
	}
	id, ok := h.uuidParam(w, r, "feedbackID")
	if !ok {
		return
	}
	f, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Feedback not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load feedback", "error", err, "feedback_id", id)
		http.Error(w, "Failed to load feedback", http.StatusInternalServerError)
		return
	}
	if f.AudioKey == "" {
		http.Error(w, "Feedback has no audio", http.StatusNotFound)
		return
	}

	body, contentType, err := h.audio.Get(r.Context(), f.AudioKey)
	if err != nil {
		h.logger.Error("failed to fetch feedback audio", "error", err, "feedback_id", id)
		http.Error(w, "Failed to fetch audio", http.StatusInternalServerError)
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("streaming feedback audio interrupted", "error", err, "feedback_id", id)
	}
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

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrInvalidLanguage) ||
		errors.Is(err, ErrInvalidInputType) ||
		errors.Is(err, ErrEmptyDescription)
}
