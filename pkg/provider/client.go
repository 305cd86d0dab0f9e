package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client sends outbound messages through the WhatsApp Business Platform
// provider's HTTP API.
type Client interface {
	SendText(ctx context.Context, req *SendRequest) (*SendResponse, error)
}

type ClientConfig struct {
	SendURL string
	Channel string
	Timeout time.Duration
}

type client struct {
	sendURL    string
	channel    string
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) Client {
	channel := cfg.Channel
	if channel == "" {
		channel = "whatsapp"
	}
	return &client{
		sendURL:    cfg.SendURL,
		channel:    channel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// SendText posts a form-encoded send request with the tenant's API key. The
// timeout here is short compared to the AI call; the provider is expected to
// answer quickly.
func (c *client) SendText(ctx context.Context, sendReq *SendRequest) (*SendResponse, error) {
	form := url.Values{}
	form.Set("channel", c.channel)
	form.Set("source", sendReq.Source)
	form.Set("destination", sendReq.Destination)
	form.Set("message", sendReq.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", sendReq.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send provider message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("provider send failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	return &result, nil
}
