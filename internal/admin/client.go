// Package admin is the client for the admin feedback panel backend: listing
// a user's notifications and marking them read, resolved, or replied.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/models"
)

var ErrAdminAPIFailed = errors.New("ADMIN_API_FAILED")

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
			"component": "admin-client",
		}),
	}
}

// Notifications calls GET /api/admin/notifications?user_email=.
func (c *Client) Notifications(ctx context.Context, userEmail string) ([]models.AdminNotification, error) {
	endpoint := fmt.Sprintf("%s/api/admin/notifications?user_email=%s",
		c.config.BaseURL, url.QueryEscape(userEmail))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdminAPIFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdminAPIFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAdminAPIFailed, resp.StatusCode)
	}

	// The payload shape is {"notifications": [...]} but older deployments
	// return a bare array. Accept both, defensively.
	var envelope struct {
		Notifications []models.AdminNotification `json:"notifications"`
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrAdminAPIFailed, err)
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Notifications != nil {
		return envelope.Notifications, nil
	}
	var list []models.AdminNotification
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	return []models.AdminNotification{}, nil
}

// MarkRead calls POST /api/admin/notifications/{id}/read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.post(ctx, id, "read", nil)
}

// Resolve calls POST /api/admin/notifications/{id}/resolve.
func (c *Client) Resolve(ctx context.Context, id string) error {
	return c.post(ctx, id, "resolve", nil)
}

// Reply calls POST /api/admin/notifications/{id}/reply.
func (c *Client) Reply(ctx context.Context, id, message string) error {
	body, _ := json.Marshal(map[string]string{"message": message})
	return c.post(ctx, id, "reply", body)
}

func (c *Client) post(ctx context.Context, id, action string, body []byte) error {
	endpoint := fmt.Sprintf("%s/api/admin/notifications/%s/%s",
		c.config.BaseURL, url.PathEscape(id), action)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAdminAPIFailed, err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAdminAPIFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: status %d", ErrAdminAPIFailed, resp.StatusCode)
	}

	c.logger.Info("notification updated", map[string]interface{}{
		"id":     id,
		"action": action,
	})

	return nil
}

// SubmitFeedback forwards a confirmed feedback item to the admin backend so
// it appears in the panel. Failure is non-fatal to the chat flow.
func (c *Client) SubmitFeedback(ctx context.Context, userEmail string, fb *models.PendingFeedback) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_email": userEmail,
		"type":       fb.Type,
		"message":    fb.Text,
		"details":    fb.Details,
	})

	endpoint := c.config.BaseURL + "/api/admin/notifications"

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAdminAPIFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAdminAPIFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: status %d", ErrAdminAPIFailed, resp.StatusCode)
	}

	c.logger.Info("feedback submitted", map[string]interface{}{
		"type": fb.Type,
	})

	return nil
}
