package feedback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
)

// processor runs the classification lifecycle for one feedback.
type processor interface {
	Process(ctx context.Context, id uuid.UUID) (*Feedback, error)
}

// Worker consumes processing jobs from the queue and invokes the service.
type Worker struct {
	processor processor
	queue     queueClient
	jobs      JobUpdater
	logger    *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(n int) WorkerOption {
	return func(c *workerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithReceiveWait sets the long-poll wait in seconds.
func WithReceiveWait(seconds int) WorkerOption {
	return func(c *workerConfig) {
		if seconds > 0 && seconds <= maxWaitSeconds {
			c.receiveWaitSecs = seconds
		}
	}
}

// WithReceiveBatchSize sets how many messages one receive call may return.
func WithReceiveBatchSize(n int) WorkerOption {
	return func(c *workerConfig) {
		if n > 0 && n <= maxReceiveBatchSize {
			c.receiveBatchSize = n
		}
	}
}

// NewWorker builds a queue consumer. jobs may be nil when job status tracking
// is disabled.
func NewWorker(proc processor, queue queueClient, jobs JobUpdater, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if proc == nil {
		panic("feedback: processor cannot be nil")
	}
	if queue == nil {
		panic("feedback: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		processor: proc,
		queue:     queue,
		jobs:      jobs,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start launches the consumer goroutines. They stop when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all consumer goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("feedback worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("feedback worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive feedback jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	payload, err := decodePayload(msg.Body)
	if err != nil {
		// A malformed message can never succeed; drop it instead of
		// letting it cycle through the queue forever.
		w.logger.Error("dropping malformed feedback job", "error", err, "message_id", msg.ID)
		w.deleteMessage(ctx, msg.ReceiptHandle)
		return
	}

	w.markProcessing(ctx, payload.JobID)

	f, err := w.processor.Process(ctx, payload.FeedbackID)
	if err != nil {
		w.logger.Error("feedback processing failed",
			"error", err, "job_id", payload.JobID, "feedback_id", payload.FeedbackID)
		w.markFailed(ctx, payload.JobID, err)
		// ErrNotFound is permanent; classifier errors are retried by
		// leaving the message for redelivery.
		if errors.Is(err, ErrNotFound) {
			w.deleteMessage(ctx, msg.ReceiptHandle)
		}
		return
	}

	w.markCompleted(ctx, payload.JobID, f)
	w.deleteMessage(ctx, msg.ReceiptHandle)
}

func (w *Worker) markProcessing(ctx context.Context, jobID string) {
	if w.jobs == nil || jobID == "" {
		return
	}
	if err := w.jobs.MarkProcessing(ctx, jobID); err != nil && !errors.Is(err, ErrJobNotFound) {
		w.logger.Warn("failed to mark job processing", "error", err, "job_id", jobID)
	}
}

func (w *Worker) markCompleted(ctx context.Context, jobID string, f *Feedback) {
	if w.jobs == nil || jobID == "" {
		return
	}
	if err := w.jobs.MarkCompleted(ctx, jobID, f); err != nil && !errors.Is(err, ErrJobNotFound) {
		w.logger.Warn("failed to mark job completed", "error", err, "job_id", jobID)
	}
}

func (w *Worker) markFailed(ctx context.Context, jobID string, cause error) {
	if w.jobs == nil || jobID == "" {
		return
	}
	if err := w.jobs.MarkFailed(ctx, jobID, cause.Error()); err != nil && !errors.Is(err, ErrJobNotFound) {
		w.logger.Warn("failed to mark job failed", "error", err, "job_id", jobID)
	}
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Warn("failed to delete feedback job message", "error", err)
	}
}
