// Package gateway wraps the external payment gateway. The core only ever
// creates orders and queries payment status; settlement happens on the
// gateway's side and is reported back through the confirm flow.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vastralabs/photoshoot/internal/config"
)

// Payment is the gateway's view of a settled (or not) payment.
type Payment struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
}

// StatusCaptured is the only gateway payment status treated as success.
const StatusCaptured = "captured"

type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		keyID:     cfg.RazorpayKeyID,
		keySecret: cfg.RazorpayKeySecret,
		baseURL:   strings.TrimRight(cfg.RazorpayBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateOrder registers a gateway-side order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int, currency, receipt string, notes map[string]string) (string, error) {
	payload := map[string]any{
		"amount":   amountMinorUnits,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/orders", payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("gateway order response missing id")
	}
	return resp.ID, nil
}

// FetchPayment queries the gateway for a payment's current status and the
// order it belongs to.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("gateway payment response missing id")
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal gateway payload: %w", err)
		}
		body = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}
	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
