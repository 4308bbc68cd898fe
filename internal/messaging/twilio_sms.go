package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dgh-platform/feedback-service/internal/reminders"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

var twilioSMSTracer = otel.Tracer("dgh.internal.messaging.twilio_sms")

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSMSSender submits reminder SMS using Twilio's REST API.
type TwilioSMSSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSMSSender builds a sender with sane defaults.
func NewTwilioSMSSender(accountSID, authToken, from string, logger *logging.Logger) *TwilioSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSMSSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioAPIBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ reminders.ChannelSubmitter = (*TwilioSMSSender)(nil)

// Submit dispatches a single SMS, retrying transient failures. The returned
// SID is the provider correlation id that later delivery callbacks carry.
func (s *TwilioSMSSender) Submit(ctx context.Context, sub reminders.Submission) (string, error) {
	if s.accountSID == "" || s.authToken == "" {
		return "", errors.New("messaging: twilio credentials missing")
	}
	if sub.To == "" {
		return "", errors.New("messaging: to required")
	}
	if strings.TrimSpace(sub.Message) == "" {
		return "", errors.New("messaging: message required")
	}

	ctx, span := twilioSMSTracer.Start(ctx, "messaging.twilio.sms")
	defer span.End()
	span.SetAttributes(
		attribute.String("dgh.reminder_id", sub.ReminderID.String()),
		attribute.String("dgh.to", sub.To),
	)

	payload := url.Values{}
	payload.Set("To", sub.To)
	payload.Set("From", s.from)
	payload.Set("Body", sub.Message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	sid, err := s.postWithRetry(ctx, endpoint, payload)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to send reminder sms", "error", err, "reminder_id", sub.ReminderID, "to", sub.To)
		return "", err
	}
	s.logger.Info("reminder sms submitted", "reminder_id", sub.ReminderID, "to", sub.To, "provider_sid", sid)
	return sid, nil
}

func (s *TwilioSMSSender) postWithRetry(ctx context.Context, endpoint string, payload url.Values) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		sid, retryable, err := s.post(ctx, endpoint, payload)
		if err == nil {
			return sid, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		if attempt < 3 {
			sleep := time.Duration(200+rand.Intn(300)) * time.Millisecond
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}

func (s *TwilioSMSSender) post(ctx context.Context, endpoint string, payload url.Values) (sid string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", false, err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var parsed struct {
			SID    string `json:"sid"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil || parsed.SID == "" {
			return "", false, fmt.Errorf("messaging: twilio response missing sid")
		}
		return parsed.SID, false, nil
	}

	var errorBody struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if len(body) > 0 && json.Unmarshal(body, &errorBody) == nil && errorBody.Message != "" {
		err = fmt.Errorf("twilio send failed: status %d, code %d: %s", resp.StatusCode, errorBody.Code, errorBody.Message)
	} else {
		err = fmt.Errorf("twilio send failed: status %d", resp.StatusCode)
	}
	// 5xx and 429 are worth retrying; 4xx means the request itself is bad.
	return "", resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
}
