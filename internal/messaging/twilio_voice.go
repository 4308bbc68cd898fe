package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dgh-platform/feedback-service/internal/reminders"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

var twilioVoiceTracer = otel.Tracer("dgh.internal.messaging.twilio_voice")

// TwilioVoiceCaller places reminder voice calls via Twilio. The spoken
// message is rendered by a TwiML endpoint that receives the text as a query
// parameter.
type TwilioVoiceCaller struct {
	accountSID string
	authToken  string
	from       string
	twimlURL   string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewTwilioVoiceCaller(accountSID, authToken, from, twimlURL string, logger *logging.Logger) *TwilioVoiceCaller {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioVoiceCaller{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		twimlURL:   twimlURL,
		baseURL:    twilioAPIBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ reminders.ChannelSubmitter = (*TwilioVoiceCaller)(nil)

// Submit places one voice call and returns the call SID.
func (c *TwilioVoiceCaller) Submit(ctx context.Context, sub reminders.Submission) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", errors.New("messaging: twilio credentials missing")
	}
	if sub.To == "" {
		return "", errors.New("messaging: to required")
	}
	if strings.TrimSpace(sub.Message) == "" {
		return "", errors.New("messaging: message required")
	}

	ctx, span := twilioVoiceTracer.Start(ctx, "messaging.twilio.voice")
	defer span.End()
	span.SetAttributes(
		attribute.String("dgh.reminder_id", sub.ReminderID.String()),
		attribute.String("dgh.to", sub.To),
	)

	twiml := fmt.Sprintf("%s?Message=%s", c.twimlURL, url.QueryEscape(sub.Message))

	payload := url.Values{}
	payload.Set("To", sub.To)
	payload.Set("From", c.from)
	payload.Set("Url", twiml)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("messaging: twilio call: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("twilio call failed: status %d", resp.StatusCode)
		span.RecordError(err)
		return "", err
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.SID == "" {
		return "", fmt.Errorf("messaging: twilio call response missing sid")
	}

	c.logger.Info("reminder voice call submitted", "reminder_id", sub.ReminderID, "to", sub.To, "provider_sid", parsed.SID)
	return parsed.SID, nil
}
