package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/internal/refs"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Submission is what a channel provider needs to deliver one reminder.
type Submission struct {
	ReminderID uuid.UUID
	To         string
	Message    string
	Language   string
}

// ChannelSubmitter hands a reminder to an external notification channel and
// returns the provider's correlation id.
type ChannelSubmitter interface {
	Submit(ctx context.Context, sub Submission) (providerSID string, err error)
}

// ErrNotDue is returned when a submission is attempted before scheduled_time.
var ErrNotDue = errors.New("reminders: reminder not due yet")

// ErrNoRecipient is returned when the patient reference does not yield a
// phone number to deliver to.
var ErrNoRecipient = errors.New("reminders: no recipient phone")

// Dispatcher submits due reminders to their notification channel and applies
// the resulting status transitions.
type Dispatcher struct {
	store         *Store
	submitters    map[Channel]ChannelSubmitter
	patients      refs.Resolver
	logger        *logging.Logger
	metrics       *metrics.ReminderMetrics
	submitTimeout time.Duration
	now           func() time.Time
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Store         *Store
	SMS           ChannelSubmitter
	Voice         ChannelSubmitter
	Patients      refs.Resolver
	Logger        *logging.Logger
	Metrics       *metrics.ReminderMetrics
	SubmitTimeout time.Duration
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 10 * time.Second
	}
	submitters := make(map[Channel]ChannelSubmitter, 2)
	if cfg.SMS != nil {
		submitters[ChannelSMS] = cfg.SMS
	}
	if cfg.Voice != nil {
		submitters[ChannelVoice] = cfg.Voice
	}
	return &Dispatcher{
		store:         cfg.Store,
		submitters:    submitters,
		patients:      cfg.Patients,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		submitTimeout: cfg.SubmitTimeout,
		now:           time.Now,
	}
}

// Submit pushes one reminder to its channel. The pending → sent claim is a
// compare-and-set in the store, so concurrent submitters for the same
// reminder resolve to exactly one provider call; the losers get
// ErrAlreadySubmitted.
func (d *Dispatcher) Submit(ctx context.Context, id uuid.UUID) error {
	r, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Status != StatusPending {
		return fmt.Errorf("%w: status %s", ErrAlreadySubmitted, r.Status)
	}
	now := d.now()
	if r.ScheduledTime.After(now) {
		return fmt.Errorf("%w: scheduled for %s", ErrNotDue, r.ScheduledTime.Format(time.RFC3339))
	}

	submitter, ok := d.submitters[r.Channel]
	if !ok {
		return d.failBeforeSend(ctx, r, fmt.Sprintf("no submitter for channel %s", r.Channel))
	}

	recipient, err := d.recipientPhone(ctx, r)
	if err != nil {
		return d.failBeforeSend(ctx, r, err.Error())
	}

	// Claim first: whoever wins this CAS owns the provider call.
	if err := d.store.ClaimForSend(ctx, r.ReminderID, now); err != nil {
		return err
	}

	submitCtx, cancel := context.WithTimeout(ctx, d.submitTimeout)
	defer cancel()
	sid, err := submitter.Submit(submitCtx, Submission{
		ReminderID: r.ReminderID,
		To:         recipient,
		Message:    r.MessageContent,
		Language:   r.Language,
	})
	if err != nil {
		d.metrics.ObserveSubmit(string(r.Channel), "failed")
		d.logger.Error("reminder submission failed", "error", err, "reminder_id", r.ReminderID, "channel", r.Channel)
		if markErr := d.store.MarkFailed(ctx, r.ReminderID, StatusSent, err.Error()); markErr != nil {
			d.logger.Error("failed to record submission failure", "error", markErr, "reminder_id", r.ReminderID)
		}
		return fmt.Errorf("reminders: submit %s: %w", r.ReminderID, err)
	}

	if err := d.store.RecordProviderAccepted(ctx, r.ReminderID, sid, "queued"); err != nil {
		// The provider accepted the message but we lost the correlation id;
		// the callback will not match. Surface loudly.
		d.logger.Error("failed to record provider sid", "error", err, "reminder_id", r.ReminderID, "provider_sid", sid)
		return err
	}

	d.metrics.ObserveSubmit(string(r.Channel), "sent")
	d.logger.Info("reminder submitted", "reminder_id", r.ReminderID, "channel", r.Channel, "provider_sid", sid)
	return nil
}

// HandleDeliveryCallback applies an asynchronous delivery-status callback
// from the channel provider, matched by correlation id. A callback for a
// reminder already in a terminal state is an anomaly, logged and swallowed.
func (d *Dispatcher) HandleDeliveryCallback(ctx context.Context, providerSID, providerStatus, detail string) error {
	r, err := d.store.GetByProviderSID(ctx, providerSID)
	if err != nil {
		return err
	}

	to, ok := mapProviderStatus(providerStatus)
	if !ok {
		// Intermediate provider states (queued, sending, ringing) only
		// refresh delivery_status; the state machine does not move.
		if err := d.store.RefreshDeliveryStatus(ctx, r.ReminderID, providerStatus); err != nil {
			if errors.Is(err, ErrAlreadySubmitted) {
				d.logger.Debug("intermediate status for settled reminder",
					"reminder_id", r.ReminderID, "provider_status", providerStatus)
				return nil
			}
			return err
		}
		d.logger.Debug("intermediate delivery status recorded", "reminder_id", r.ReminderID, "provider_status", providerStatus)
		return nil
	}

	if r.Status.Terminal() {
		d.metrics.ObserveStaleCallback(string(r.Channel))
		d.logger.Warn("stale delivery callback for terminal reminder",
			"reminder_id", r.ReminderID, "status", r.Status, "provider_status", providerStatus)
		return nil
	}

	if err := d.store.ApplyDeliveryOutcome(ctx, r.ReminderID, to, providerStatus, detail); err != nil {
		if errors.Is(err, ErrAlreadySubmitted) {
			// Raced with another callback for the same reminder.
			d.metrics.ObserveStaleCallback(string(r.Channel))
			d.logger.Warn("delivery callback lost race", "reminder_id", r.ReminderID, "provider_status", providerStatus)
			return nil
		}
		return err
	}

	d.metrics.ObserveDelivery(string(r.Channel), string(to))
	d.logger.Info("delivery status applied", "reminder_id", r.ReminderID, "status", to, "provider_status", providerStatus)
	return nil
}

func (d *Dispatcher) failBeforeSend(ctx context.Context, r *Reminder, reason string) error {
	d.metrics.ObserveSubmit(string(r.Channel), "failed")
	if err := d.store.MarkFailed(ctx, r.ReminderID, StatusPending, reason); err != nil {
		return err
	}
	return fmt.Errorf("reminders: submit %s: %s", r.ReminderID, reason)
}

func (d *Dispatcher) recipientPhone(ctx context.Context, r *Reminder) (string, error) {
	if d.patients == nil {
		return "", ErrNoRecipient
	}
	resolved, err := d.patients.Resolve(ctx, refs.External{ID: r.PatientID, Service: refs.ServicePatients})
	if err != nil {
		return "", fmt.Errorf("%w: resolve patient: %v", ErrNoRecipient, err)
	}
	if resolved == nil || resolved.Phone == "" {
		return "", ErrNoRecipient
	}
	return resolved.Phone, nil
}

// mapProviderStatus translates the provider's terminal delivery states onto
// state-machine edges. Unknown or intermediate states return ok=false.
func mapProviderStatus(providerStatus string) (Status, bool) {
	switch providerStatus {
	case "delivered", "completed":
		return StatusDelivered, true
	case "failed", "undelivered", "busy", "no-answer", "canceled":
		return StatusFailed, true
	}
	return "", false
}
