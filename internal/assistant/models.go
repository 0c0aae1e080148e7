// internal/assistant/models.go
package assistant

import (
	"encoding/json"

	"henry-gateway/internal/models"
)

// ChatContext is the page and user context sent with every chat turn.
type ChatContext struct {
	CurrentPage     string `json:"current_page"`
	PageDescription string `json:"page_description"`
	Company         string `json:"company,omitempty"`
	Role            string `json:"role,omitempty"`
	HasAnalysis     bool   `json:"has_analysis"`
	HasResume       bool   `json:"has_resume"`
	HasPipeline     bool   `json:"has_pipeline"`
	UserName        string `json:"user_name,omitempty"`
	EmotionalState  string `json:"emotional_state,omitempty"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
	Timeline        string `json:"timeline,omitempty"`
	ToneGuidance    string `json:"tone_guidance,omitempty"`
}

// ChatRequest is the envelope for POST /api/hey-henry and /api/ask-henry.
// The data bags are passed through untouched.
type ChatRequest struct {
	Message             string                       `json:"message"`
	ConversationHistory []models.ConversationMessage `json:"conversation_history"`
	Context             ChatContext                  `json:"context"`
	AnalysisData        json.RawMessage              `json:"analysis_data,omitempty"`
	ResumeData          json.RawMessage              `json:"resume_data,omitempty"`
	UserProfile         json.RawMessage              `json:"user_profile,omitempty"`
	PipelineData        interface{}                  `json:"pipeline_data,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}
