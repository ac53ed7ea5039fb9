package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client wraps http.Client with the routes the seeder calls.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) do(ctx context.Context, method, path string, body any, headers map[string]string) (int, []byte, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func (c *client) health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned HTTP %d", status)
	}
	return nil
}

// submit posts one registration; the boolean reports a replay.
func (c *client) submit(ctx context.Context, r Registration) (bool, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/registrations", r,
		map[string]string{"Idempotency-Key": r.Key})
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusCreated:
		return false, nil
	case http.StatusOK:
		return true, nil
	default:
		return false, fmt.Errorf("HTTP %d: %s", status, bytes.TrimSpace(body))
	}
}

func (c *client) selectWinners(ctx context.Context, target int64) (int, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/winners", map[string]int64{"target": target}, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", status, bytes.TrimSpace(body))
	}
	var out struct {
		Winners int `json:"winners"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	return out.Winners, nil
}

func (c *client) table(ctx context.Context, target int64) ([]Row, error) {
	status, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/table?target=%d", target), nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", status, bytes.TrimSpace(body))
	}
	var out struct {
		Rows []Row `json:"rows"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return out.Rows, nil
}
