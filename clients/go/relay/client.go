// Package relay provides a client for the relay message bus.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultURL is used when no base URL is given.
const DefaultURL = "http://localhost:80"

// ErrRejected is returned when the server answers a send with false.
var ErrRejected = errors.New("relay rejected message")

// Client is a relay API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new relay client. The HTTP timeout leaves room for the
// server's long-poll wait.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("relay error %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	return respBody, nil
}

// Message is a relayed JSON object.
type Message map[string]any

// Send delivers fields to recipient. The "recipient" key of fields, if any,
// is overwritten.
func (c *Client) Send(ctx context.Context, recipient string, fields Message) error {
	msg := make(Message, len(fields)+1)
	for k, v := range fields {
		msg[k] = v
	}
	msg["recipient"] = recipient

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/", body)
	if err != nil {
		return err
	}

	var ok bool
	if err := json.Unmarshal(respBody, &ok); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if !ok {
		return ErrRejected
	}
	return nil
}

// Receive drains the inbox of name. When the server long-polls, the call
// blocks until a message arrives or the server's wait timeout elapses.
func (c *Client) Receive(ctx context.Context, name string) ([]Message, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/?name="+url.QueryEscape(name), nil)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := json.Unmarshal(respBody, &msgs); err != nil {
		return nil, fmt.Errorf("decode receive response: %w", err)
	}
	return msgs, nil
}

// StoreStats mirrors the store section of the health response.
type StoreStats struct {
	Inboxes        int   `json:"inboxes"`
	Pending        int   `json:"pending"`
	Signals        int   `json:"signals"`
	Waiters        int64 `json:"waiters"`
	EstimatedBytes int64 `json:"estimated_bytes"`
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Region    string                 `json:"region,omitempty"`
	Instance  string                 `json:"instance"`
	Checks    map[string]interface{} `json:"checks"`
	Store     StoreStats             `json:"store"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
