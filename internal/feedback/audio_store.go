package feedback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// S3API is the subset of the S3 client used by AudioStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ErrAudioDisabled indicates no audio bucket is configured.
var ErrAudioDisabled = errors.New("feedback: audio storage not configured")

const maxAudioBytes = 10 << 20

// AudioStore keeps raw voice-note uploads in S3. The database only carries the
// object key; the blob itself never touches Postgres.
type AudioStore struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewAudioStore creates an AudioStore. If bucket is empty, all operations
// return ErrAudioDisabled.
func NewAudioStore(s3Client S3API, bucket string, logger *logging.Logger) *AudioStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &AudioStore{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if audio storage is configured.
func (s *AudioStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Put uploads one audio blob and returns its object key.
func (s *AudioStore) Put(ctx context.Context, feedbackID uuid.UUID, contentType string, r io.Reader) (string, error) {
	if !s.Enabled() {
		return "", ErrAudioDisabled
	}
	data, err := io.ReadAll(io.LimitReader(r, maxAudioBytes+1))
	if err != nil {
		return "", fmt.Errorf("feedback: read audio: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("feedback: empty audio upload")
	}
	if len(data) > maxAudioBytes {
		return "", fmt.Errorf("feedback: audio exceeds %d bytes", maxAudioBytes)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("feedback-audio/v1/%d/%02d/%s", now.Year(), now.Month(), feedbackID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("feedback: s3 put %s: %w", key, err)
	}

	s.logger.Info("stored feedback audio", "feedback_id", feedbackID, "s3_key", key, "bytes", len(data))
	return key, nil
}

// Get streams one stored audio blob. Callers must close the reader.
func (s *AudioStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !s.Enabled() {
		return nil, "", ErrAudioDisabled
	}
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("feedback: s3 get %s: %w", key, err)
	}
	return out.Body, aws.ToString(out.ContentType), nil
}
