package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Alerter emails the on-call inbox about operational anomalies. Alerting is
// best-effort; failures are logged, never propagated to the caller's path.
type Alerter struct {
	sender EmailSender
	to     string
	logger *logging.Logger
}

// NewAlerter creates an Alerter. With an empty recipient all alerts are
// dropped.
func NewAlerter(sender EmailSender, to string, logger *logging.Logger) *Alerter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Alerter{sender: sender, to: to, logger: logger}
}

// Enabled reports whether alerts are configured to go anywhere.
func (a *Alerter) Enabled() bool {
	return a != nil && a.sender != nil && a.to != ""
}

// ReminderDispatchFailed reports a reminder that could not be handed to its
// channel provider.
func (a *Alerter) ReminderDispatchFailed(ctx context.Context, reminderID uuid.UUID, channel string, cause error) {
	if !a.Enabled() {
		return
	}
	msg := EmailMessage{
		To:      a.to,
		Subject: fmt.Sprintf("[feedback-service] reminder dispatch failed (%s)", channel),
		Body: fmt.Sprintf("Reminder %s failed to dispatch over %s at %s.\n\nError: %v\n",
			reminderID, channel, time.Now().UTC().Format(time.RFC3339), cause),
	}
	if err := a.sender.Send(ctx, msg); err != nil {
		a.logger.Warn("failed to send dispatch alert", "error", err, "reminder_id", reminderID)
	}
}
