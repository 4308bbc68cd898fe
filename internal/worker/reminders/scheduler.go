package reminderworker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/internal/notify"
	"github.com/dgh-platform/feedback-service/internal/reminders"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

type dueStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]reminders.Reminder, error)
}

type submitter interface {
	Submit(ctx context.Context, id uuid.UUID) error
}

// Scheduler periodically drains due reminders into the dispatcher. Several
// scheduler replicas can run at once; the store's compare-and-set claim keeps
// each reminder to a single provider call.
type Scheduler struct {
	store      dueStore
	dispatcher submitter
	alerter    *notify.Alerter
	logger     *logging.Logger
	interval   time.Duration
	batchSize  int
	now        func() time.Time
}

func NewScheduler(store dueStore, dispatcher submitter, alerter *notify.Alerter, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		alerter:    alerter,
		logger:     logger,
		interval:   30 * time.Second,
		batchSize:  25,
		now:        time.Now,
	}
}

func (s *Scheduler) WithInterval(d time.Duration) *Scheduler {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Scheduler) WithBatchSize(n int) *Scheduler {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Run polls for due reminders until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

func (s *Scheduler) drain(ctx context.Context) {
	if s.store == nil || s.dispatcher == nil {
		return
	}
	due, err := s.store.ListDue(ctx, s.now(), s.batchSize)
	if err != nil {
		s.logger.Error("listing due reminders failed", "error", err)
		return
	}
	for _, r := range due {
		if ctx.Err() != nil {
			return
		}
		if err := s.dispatcher.Submit(ctx, r.ReminderID); err != nil {
			if errors.Is(err, reminders.ErrAlreadySubmitted) {
				// Another replica won the claim.
				continue
			}
			s.logger.Error("reminder dispatch failed", "error", err, "reminder_id", r.ReminderID, "channel", r.Channel)
			if s.alerter.Enabled() {
				s.alerter.ReminderDispatchFailed(ctx, r.ReminderID, string(r.Channel), err)
			}
		}
	}
}
