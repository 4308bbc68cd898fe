package refs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// GatewayResolver resolves external references through the platform gateway's
// internal REST surface (GET /internal/{service}/{id}).
type GatewayResolver struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

func NewGatewayResolver(baseURL string, timeout time.Duration, logger *logging.Logger) *GatewayResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GatewayResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.WithComponent("gateway_resolver"),
	}
}

type gatewayRecord struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone"`
	Language    string    `json:"preferred_language"`
}

// Resolve fetches the referenced record from its owning service. A 404 from
// the gateway maps to ErrUnresolvable.
func (g *GatewayResolver) Resolve(ctx context.Context, ref External) (*Resolved, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("refs: %w: zero reference", ErrUnresolvable)
	}

	url := fmt.Sprintf("%s/internal/%s/%s", g.baseURL, ref.Service, ref.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("refs: build gateway request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refs: gateway request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUnresolvable, ref)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("refs: gateway returned %d for %s", resp.StatusCode, ref)
	}

	var rec gatewayRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("refs: decode gateway response: %w", err)
	}

	return &Resolved{
		ID:          rec.ID,
		DisplayName: rec.DisplayName,
		Phone:       rec.Phone,
		Language:    rec.Language,
	}, nil
}
