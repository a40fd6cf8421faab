// Package upstream holds the HTTP client for the model inference endpoint.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"guardrelay/internal/config"
	"guardrelay/internal/models"
)

// maxFailureBody bounds how much of a failure response is retained for
// classification.
const maxFailureBody = 1 << 20

// Payload is the model invocation body. Streaming is always requested; the
// relay forwards whatever the endpoint emits per step without parsing it.
type Payload struct {
	Messages    []models.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
	TopP        float64          `json:"top_p,omitempty"`
	Stream      bool             `json:"stream"`
}

// CallError carries the upstream failure status and body so the caller can
// classify the rejection and pass the status through unchanged.
type CallError struct {
	Status int
	Body   []byte
}

func (e *CallError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// Client invokes the remote inference endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewClient builds a client from upstream config. A configured gateway URL
// takes precedence over the direct base URL.
func NewClient(cfg config.UpstreamConfig) *Client {
	base := cfg.BaseURL
	if cfg.GatewayURL != "" {
		base = cfg.GatewayURL
	}
	// The timeout covers connecting and waiting for response headers only.
	// The streamed body is bounded by the request context, not a deadline,
	// so long generations are not cut off mid-stream.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout()
	return &Client{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimRight(base, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
	}
}

// Stream POSTs the payload to the inference endpoint and returns the response
// body for streaming. Non-2xx responses are drained into a *CallError; there
// is no retry, failure is terminal for the turn.
func (c *Client) Stream(ctx context.Context, payload Payload) (io.ReadCloser, error) {
	payload.Stream = true
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/run/%s", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call model endpoint: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure, _ := io.ReadAll(io.LimitReader(resp.Body, maxFailureBody))
		resp.Body.Close()
		return nil, &CallError{Status: resp.StatusCode, Body: failure}
	}
	return resp.Body, nil
}
