package feedback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// queueClient moves typed processing jobs between the API and the workers.
// Implementations own the wire encoding.
type queueClient interface {
	Send(ctx context.Context, payload queuePayload) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// queuePayload is the wire form of one processing job.
type queuePayload struct {
	JobID      string    `json:"job_id"`
	FeedbackID uuid.UUID `json:"feedback_id"`
	Reprocess  bool      `json:"reprocess,omitempty"`
}

// newQueuePayload assigns the job ID the caller will poll on.
func newQueuePayload(feedbackID uuid.UUID, reprocess bool) queuePayload {
	return queuePayload{
		JobID:      uuid.NewString(),
		FeedbackID: feedbackID,
		Reprocess:  reprocess,
	}
}

func (p queuePayload) encode() (string, error) {
	if p.FeedbackID == uuid.Nil {
		return "", fmt.Errorf("feedback: payload missing feedback_id")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("feedback: failed to encode payload: %w", err)
	}
	return string(body), nil
}

func decodePayload(body string) (queuePayload, error) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return queuePayload{}, fmt.Errorf("feedback: failed to decode payload: %w", err)
	}
	if payload.FeedbackID == uuid.Nil {
		return queuePayload{}, fmt.Errorf("feedback: payload missing feedback_id")
	}
	return payload, nil
}
