package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/models"
)

var ErrRefineFailed = errors.New("REFINE_FAILED")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Request is the envelope for POST /api/documents/refine. The document and
// analysis bags are passed through untouched.
type Request struct {
	ChatCommand         string                       `json:"chat_command"`
	TargetDocument      string                       `json:"target_document"` // "resume" or "cover-letter"
	CurrentDocumentData json.RawMessage              `json:"current_document_data,omitempty"`
	OriginalJDAnalysis  json.RawMessage              `json:"original_jd_analysis,omitempty"`
	OriginalResumeData  json.RawMessage              `json:"original_resume_data,omitempty"`
	ConversationHistory []models.ConversationMessage `json:"conversation_history"`
	Version             int                          `json:"version"`
}

type Response struct {
	UpdatedDocument        json.RawMessage `json:"updated_document"`
	ChangesSummary         string          `json:"changes_summary"`
	ConversationalResponse string          `json:"conversational_response"`
	Validation             json.RawMessage `json:"validation,omitempty"`
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
			"component": "refine-client",
		}),
	}
}

// Refine applies a chat command to the current document. No retries: a
// refinement is not idempotent from the user's point of view, so failures
// surface as an inline error message instead.
func (c *Client) Refine(ctx context.Context, req *Request) (*Response, error) {
	body, _ := json.Marshal(req)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/documents/refine", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefineFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefineFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRefineFailed, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrRefineFailed, err)
	}

	c.logger.Info("document refined", map[string]interface{}{
		"target":  req.TargetDocument,
		"version": req.Version,
	})

	return &out, nil
}
