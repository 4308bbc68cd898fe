package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dgh-platform/feedback-service/internal/messaging"
	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/internal/reminders"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

const twilioProvider = "twilio"

// deliveryApplier applies provider delivery callbacks to reminders.
type deliveryApplier interface {
	HandleDeliveryCallback(ctx context.Context, providerSID, providerStatus, detail string) error
}

// processedEventStore deduplicates redelivered webhooks.
type processedEventStore interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// TwilioWebhookHandler receives Twilio status callbacks for SMS and voice
// reminders.
type TwilioWebhookHandler struct {
	dispatcher  deliveryApplier
	processed   processedEventStore
	authToken   string
	callbackURL string
	metrics     *metrics.ReminderMetrics
	logger      *logging.Logger
	now         func() time.Time
}

// TwilioWebhookConfig wires a TwilioWebhookHandler.
type TwilioWebhookConfig struct {
	Dispatcher  deliveryApplier
	Processed   processedEventStore
	AuthToken   string
	CallbackURL string
	Metrics     *metrics.ReminderMetrics
	Logger      *logging.Logger
}

func NewTwilioWebhookHandler(cfg TwilioWebhookConfig) *TwilioWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &TwilioWebhookHandler{
		dispatcher:  cfg.Dispatcher,
		processed:   cfg.Processed,
		authToken:   cfg.AuthToken,
		callbackURL: cfg.CallbackURL,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Status handles POST /webhooks/twilio/status. Twilio retries on non-2xx, so
// anything already applied or permanently unusable returns 200 to stop the
// retries; only transient internal failures return 5xx.
func (h *TwilioWebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	defer func() {
		if h.metrics != nil {
			h.metrics.ObserveWebhookLatency("status", h.now().Sub(start).Seconds())
		}
	}()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	if err := messaging.VerifyTwilioSignature(h.authToken, h.callbackURL, r.PostForm,
		r.Header.Get("X-Twilio-Signature")); err != nil {
		h.logger.Warn("rejected twilio callback", "error", err, "remote_ip", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	sid, status, detail := extractTwilioStatus(r)
	if sid == "" || status == "" {
		h.logger.Warn("twilio callback missing sid or status")
		w.WriteHeader(http.StatusOK)
		return
	}

	// One event per sid+status pair: Twilio redelivers on timeouts, and the
	// same sid legitimately reports several successive statuses.
	eventID := sid + ":" + status
	if h.processed != nil {
		seen, err := h.processed.AlreadyProcessed(r.Context(), twilioProvider, eventID)
		if err != nil {
			h.logger.Error("failed to check processed event", "error", err, "event_id", eventID)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if seen {
			h.logger.Debug("duplicate twilio callback", "event_id", eventID)
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	if err := h.dispatcher.HandleDeliveryCallback(r.Context(), sid, status, detail); err != nil {
		if errors.Is(err, reminders.ErrNotFound) {
			// Unknown sid: not ours or already purged. Retrying will not help.
			h.logger.Warn("twilio callback for unknown sid", "provider_sid", sid)
			w.WriteHeader(http.StatusOK)
			return
		}
		h.logger.Error("failed to apply twilio callback", "error", err, "provider_sid", sid)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if h.processed != nil {
		if _, err := h.processed.MarkProcessed(r.Context(), twilioProvider, eventID); err != nil {
			h.logger.Warn("failed to mark event processed", "error", err, "event_id", eventID)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// extractTwilioStatus pulls the correlation id and status from either the SMS
// or the voice callback shape.
func extractTwilioStatus(r *http.Request) (sid, status, detail string) {
	if sid = r.PostFormValue("MessageSid"); sid != "" {
		return sid, r.PostFormValue("MessageStatus"), r.PostFormValue("ErrorMessage")
	}
	if sid = r.PostFormValue("CallSid"); sid != "" {
		return sid, r.PostFormValue("CallStatus"), r.PostFormValue("ErrorMessage")
	}
	return "", "", ""
}
