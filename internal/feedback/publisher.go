package feedback

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Publisher enqueues processing jobs and records their status so callers can
// poll for the outcome.
type Publisher struct {
	queue  queueClient
	jobs   JobRecorder
	logger *logging.Logger
}

// NewPublisher wires a publisher. jobs may be nil; jobs are then enqueued
// without status tracking.
func NewPublisher(queue queueClient, jobs JobRecorder, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("feedback: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, jobs: jobs, logger: logger}
}

// EnqueueProcessing queues feedbackID for classification and returns the job
// ID callers can poll. The job record is written before the message is sent so
// a worker never races a missing record.
func (p *Publisher) EnqueueProcessing(ctx context.Context, feedbackID uuid.UUID, reprocess bool) (string, error) {
	payload := newQueuePayload(feedbackID, reprocess)

	if p.jobs != nil {
		job := &JobRecord{JobID: payload.JobID, FeedbackID: feedbackID}
		if err := p.jobs.PutQueued(ctx, job); err != nil {
			return "", fmt.Errorf("feedback: record job: %w", err)
		}
	}

	if err := p.queue.Send(ctx, payload); err != nil {
		if p.jobs != nil {
			if updErr, ok := p.jobs.(JobUpdater); ok {
				if ferr := updErr.MarkFailed(ctx, payload.JobID, "enqueue failed"); ferr != nil {
					p.logger.Warn("failed to mark unenqueued job", "error", ferr, "job_id", payload.JobID)
				}
			}
		}
		return "", err
	}

	p.logger.Info("feedback processing queued",
		"job_id", payload.JobID, "feedback_id", feedbackID, "reprocess", reprocess)
	return payload.JobID, nil
}
