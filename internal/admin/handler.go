package admin

import (
	"encoding/json"
	"net/http"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Handler serves the admin descriptor table.
type Handler struct {
	logger *logging.Logger
}

func NewHandler(logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{logger: logger}
}

// Descriptors handles GET /admin/descriptors.
func (h *Handler) Descriptors(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{"descriptors": Descriptors()}); err != nil {
		h.logger.Error("failed to write descriptors", "error", err)
	}
}
