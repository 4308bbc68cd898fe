package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

type fakeDynamo struct {
	putInput    *dynamodb.PutItemInput
	updateInput *dynamodb.UpdateItemInput
	getItem     map[string]types.AttributeValue
	err         error
}

func (d *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	d.putInput = in
	return &dynamodb.PutItemOutput{}, d.err
}

func (d *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	d.updateInput = in
	return &dynamodb.UpdateItemOutput{}, d.err
}

func (d *fakeDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: d.getItem}, d.err
}

func TestJobStorePutQueued(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewJobStore(fake, "feedback-jobs", logging.Default())

	job := &JobRecord{JobID: "job-1", FeedbackID: uuid.New()}
	if err := store.PutQueued(context.Background(), job); err != nil {
		t.Fatalf("PutQueued: %v", err)
	}

	if job.Status != JobStatusQueued {
		t.Errorf("status = %s, want queued", job.Status)
	}
	if job.ExpiresAt == 0 {
		t.Error("expected TTL set")
	}
	if fake.putInput == nil {
		t.Fatal("expected PutItem call")
	}
	if got := aws.ToString(fake.putInput.TableName); got != "feedback-jobs" {
		t.Errorf("table = %q", got)
	}
	if got := aws.ToString(fake.putInput.ConditionExpression); got != "attribute_not_exists(jobId)" {
		t.Errorf("condition = %q", got)
	}

	var stored JobRecord
	if err := attributevalue.UnmarshalMap(fake.putInput.Item, &stored); err != nil {
		t.Fatalf("unmarshal stored item: %v", err)
	}
	if stored.FeedbackID != job.FeedbackID {
		t.Errorf("stored feedback_id = %s, want %s", stored.FeedbackID, job.FeedbackID)
	}
}

func TestJobStoreMarkCompleted(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewJobStore(fake, "feedback-jobs", logging.Default())

	themeID := uuid.New()
	label := positiveResult().Label
	f := &Feedback{FeedbackID: uuid.New(), Sentiment: &label, ThemeID: &themeID}

	if err := store.MarkCompleted(context.Background(), "job-1", f); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if fake.updateInput == nil {
		t.Fatal("expected UpdateItem call")
	}
	status, ok := fake.updateInput.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS)
	if !ok || status.Value != string(JobStatusCompleted) {
		t.Errorf("status value = %#v", fake.updateInput.ExpressionAttributeValues[":status"])
	}
	sent, ok := fake.updateInput.ExpressionAttributeValues[":sentiment"].(*types.AttributeValueMemberS)
	if !ok || sent.Value != string(label) {
		t.Errorf("sentiment value = %#v", fake.updateInput.ExpressionAttributeValues[":sentiment"])
	}
}

func TestJobStoreMarkFailedMissingJob(t *testing.T) {
	fake := &fakeDynamo{err: &types.ConditionalCheckFailedException{}}
	store := NewJobStore(fake, "feedback-jobs", logging.Default())

	if err := store.MarkFailed(context.Background(), "missing", "boom"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestJobStoreGetJob(t *testing.T) {
	feedbackID := uuid.New()
	item, err := attributevalue.MarshalMap(&JobRecord{
		JobID:      "job-9",
		FeedbackID: feedbackID,
		Status:     JobStatusCompleted,
	})
	if err != nil {
		t.Fatal(err)
	}
	store := NewJobStore(&fakeDynamo{getItem: item}, "feedback-jobs", logging.Default())

	job, err := store.GetJob(context.Background(), "job-9")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != JobStatusCompleted || job.FeedbackID != feedbackID {
		t.Errorf("job = %+v", job)
	}
}

func TestJobStoreGetJobNotFound(t *testing.T) {
	store := NewJobStore(&fakeDynamo{}, "feedback-jobs", logging.Default())
	if _, err := store.GetJob(context.Background(), "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}
