// Package synthesis wraps the external image synthesis service: prompt in,
// image bytes out. Calls may fail or time out independently; the service
// gives no ordering guarantee between them.
package synthesis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vastralabs/photoshoot/internal/config"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.SynthesisTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:  cfg.SynthesisAPIKey,
		baseURL: strings.TrimRight(cfg.SynthesisBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Generate requests one image for the given prompt and size (e.g.
// "1024x1024") and returns the decoded image bytes.
func (c *Client) Generate(ctx context.Context, prompt, size string) ([]byte, error) {
	payload := map[string]any{
		"prompt": prompt,
		"size":   size,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post synthesis: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("synthesis request failed", "status", resp.StatusCode, "body", truncateBody(rawBody))
		}
		return nil, fmt.Errorf("synthesis error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var genResp struct {
		Data []struct {
			Base64 string `json:"base64"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &genResp); err != nil {
		return nil, fmt.Errorf("decode synthesis response: %w (body=%s)", err, truncateBody(rawBody))
	}
	if len(genResp.Data) == 0 || genResp.Data[0].Base64 == "" {
		return nil, fmt.Errorf("empty image in synthesis response")
	}

	img, err := base64.StdEncoding.DecodeString(genResp.Data[0].Base64)
	if err != nil {
		return nil, fmt.Errorf("decode image base64: %w", err)
	}
	return img, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
