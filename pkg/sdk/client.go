// Package sdk provides a Go client for the malscan HTTP service.
//
//	client := sdk.New("http://localhost:8080")
//	label, err := client.ClassifyFile(ctx, "sample.exe")
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a running malscan service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Classify submits raw binary contents and returns the label (0 benign,
// 1 malicious). The service fails open, so error responses still carry a
// verdict; a non-nil error here means the verdict could not be obtained
// at all.
func (c *Client) Classify(ctx context.Context, data []byte) (int, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(data),
	)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("classify request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var verdict struct {
		Result int `json:"result"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&verdict); err != nil {
		return 0, fmt.Errorf("decode verdict (status %d): %w", resp.StatusCode, err)
	}
	return verdict.Result, nil
}

// ClassifyFile reads the file at path and submits it.
func (c *Client) ClassifyFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return c.Classify(ctx, data)
}

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health checks the health of the service.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var status HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&status); err != nil {
		return HealthStatus{}, fmt.Errorf("decode health (status %d): %w", resp.StatusCode, err)
	}
	return status, nil
}
