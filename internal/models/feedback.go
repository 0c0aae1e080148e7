package models

// FeedbackType categorizes a user feedback message. Derived deterministically
// from keyword membership; first matching category wins in this priority
// order.
type FeedbackType string

const (
	FeedbackBug            FeedbackType = "bug"
	FeedbackFeatureRequest FeedbackType = "feature_request"
	FeedbackUXIssue        FeedbackType = "ux_issue"
	FeedbackPraise         FeedbackType = "praise"
	FeedbackGeneral        FeedbackType = "general"
)

// PendingFeedback exists only while a feedback sub-flow is active. Created
// when a keyword trigger fires, destroyed on confirm or decline.
type PendingFeedback struct {
	Text       string       `json:"text"`
	Type       FeedbackType `json:"type"`
	Details    string       `json:"details,omitempty"`
	Screenshot []byte       `json:"screenshot,omitempty"`
}
