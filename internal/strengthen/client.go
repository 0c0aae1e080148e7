// Package strengthen forwards the resume-strengthening flow to its backend:
// bullet-audit question generation and answer application. Request and
// response bodies are opaque JSON bags owned by the backend; the gateway
// passes them through without interpretation.
package strengthen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"henry-gateway/internal/common/logger"
)

var ErrStrengthenFailed = errors.New("STRENGTHEN_FAILED")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.With(map[string]interface{}{
			"component": "strengthen-client",
		}),
	}
}

// Questions calls POST /api/strengthen/questions with the audit payload.
func (c *Client) Questions(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return c.post(ctx, "/api/strengthen/questions", payload)
}

// Apply calls POST /api/strengthen/apply with the collected answers.
func (c *Client) Apply(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return c.post(ctx, "/api/strengthen/apply", payload)
}

func (c *Client) post(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStrengthenFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStrengthenFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrStrengthenFailed, resp.StatusCode)
	}

	var out json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrStrengthenFailed, err)
	}

	c.logger.Debug("strengthen call completed", map[string]interface{}{
		"path": path,
	})

	return out, nil
}
