package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryQueueSendReceive(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx := context.Background()

	sent := []queuePayload{
		newQueuePayload(uuid.New(), false),
		newQueuePayload(uuid.New(), true),
		newQueuePayload(uuid.New(), false),
	}
	for _, p := range sent {
		if err := q.Send(ctx, p); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	msgs, err := q.Receive(ctx, 2, 0)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	for i, msg := range msgs {
		got, err := decodePayload(msg.Body)
		if err != nil {
			t.Fatalf("decodePayload: %v", err)
		}
		if got != sent[i] {
			t.Errorf("payload %d = %+v, want %+v", i, got, sent[i])
		}
	}
	if msgs[0].ReceiptHandle == "" {
		t.Error("expected receipt handle")
	}
	if err := q.Delete(ctx, msgs[0].ReceiptHandle); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestMemoryQueueSendRejectsMissingFeedbackID(t *testing.T) {
	q := NewMemoryQueue(1)

	if err := q.Send(context.Background(), queuePayload{JobID: "j1"}); err == nil {
		t.Error("expected error for payload without feedback_id")
	}
}

func TestMemoryQueueReceiveTimeout(t *testing.T) {
	q := NewMemoryQueue(1)

	start := time.Now()
	msgs, err := q.Receive(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if msgs != nil {
		t.Errorf("expected nil batch on timeout, got %v", msgs)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("returned after %v, want ~1s wait", elapsed)
	}
}

func TestMemoryQueueReceiveCancelled(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Receive(ctx, 1, 0); err == nil {
		t.Error("expected context error")
	}
}
