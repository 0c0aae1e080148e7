// Package assistant talks to the remote coaching backend that generates chat
// completions. Any failure here is mapped to the fixed apology message by the
// session manager; callers never see a raw transport error in the UI.
package assistant

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

// ApologyMessage is appended to the conversation whenever the backend fails
// to answer. Fixed copy, rendered verbatim.
const ApologyMessage = "Sorry, I'm having trouble responding right now. Give me a moment and try again."

var (
	ErrAssistantFailed  = errors.New("ASSISTANT_FAILED")
	ErrAssistantTimeout = errors.New("ASSISTANT_TIMEOUT")
)

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
			"component": "assistant-client",
		}),
	}
}

// Chat sends one turn to the backend and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, _ := json.Marshal(req)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrAssistantTimeout
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+c.config.ChatPath, bytes.NewBuffer(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAssistantFailed, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(httpReq)

		// If the context expired during the request, report timeout directly.
		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return "", ErrAssistantTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrAssistantTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrAssistantFailed, lastErr)
	}

	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrAssistantFailed)
	}
	defer resp.Body.Close()

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrAssistantFailed, err)
	}

	if chatResp.Response == "" {
		return "", fmt.Errorf("%w: empty response", ErrAssistantFailed)
	}

	c.logger.Debug("chat turn completed", map[string]interface{}{
		"page":          req.Context.CurrentPage,
		"historyLength": len(req.ConversationHistory),
	})

	return chatResp.Response, nil
}
