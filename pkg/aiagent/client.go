package aiagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client invokes the conversational AI backend.
type Client interface {
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) Client {
	return &client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Invoke posts one batched user turn to the backend. The configured timeout
// is generous because an LLM round trip sits behind this call.
func (c *client) Invoke(ctx context.Context, invokeReq *InvokeRequest) (*InvokeResponse, error) {
	body, err := json.Marshal(invokeReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoke request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call AI backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("AI backend returned status %d", resp.StatusCode)
	}

	var result InvokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode AI response: %w", err)
	}

	if result.Status == "error" {
		return nil, fmt.Errorf("AI backend error: %s", result.Message)
	}

	return &result, nil
}
