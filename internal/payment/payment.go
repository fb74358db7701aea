// Package payment talks to the external payment authorization service
// (mobile-money push). The engine only needs a yes or no for an amount.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no authorization service is configured.
var ErrUnavailable = errors.New("payment authorization is not configured")

type authorizeRequest struct {
	Phone  string          `json:"phone"`
	Amount decimal.Decimal `json:"amount"`
}

type authorizeResponse struct {
	Approved  bool   `json:"approved"`
	Reference string `json:"reference,omitempty"`
}

// Client calls POST {baseURL}/authorize.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Authorize asks the service to approve amount for phone. A timeout or a
// non-2xx answer is an error; the caller treats both like a decline.
func (c *Client) Authorize(ctx context.Context, phone string, amount decimal.Decimal) (bool, error) {
	body, err := json.Marshal(authorizeRequest{Phone: phone, Amount: amount})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authorize", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("authorize request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return false, fmt.Errorf("read authorize response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return false, fmt.Errorf("authorize returned %d", resp.StatusCode)
	}

	var out authorizeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("decode authorize response: %w", err)
	}

	c.logger.Info("Payment authorization answered",
		zap.Bool("approved", out.Approved),
		zap.String("reference", out.Reference))
	return out.Approved, nil
}

// Unavailable declines every request with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Authorize(context.Context, string, decimal.Decimal) (bool, error) {
	return false, ErrUnavailable
}
