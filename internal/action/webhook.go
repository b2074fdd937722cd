package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookConfig configures the webhook action — a fire-and-report HTTP call
// carrying the node's payload as a JSON body.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Timeout float64           `json:"timeout_seconds"`
}

type webhookAction struct {
	cfg    WebhookConfig
	client *http.Client
}

func newWebhookAction(config map[string]any) (Action, error) {
	cfg, err := parseConfig[WebhookConfig](config)
	if err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook action requires a url")
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	timeout := time.Duration(cfg.Timeout * float64(time.Second))
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhookAction{cfg: *cfg, client: &http.Client{Timeout: timeout}}, nil
}

func (a *webhookAction) Invoke(ctx context.Context, nodeName string, payload any, actx *Context) error {
	body, err := json.Marshal(map[string]any{
		"node":    nodeName,
		"task":    actx.Task,
		"payload": payload,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, a.cfg.Method, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: remote returned status %d", resp.StatusCode)
	}
	return nil
}
