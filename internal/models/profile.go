package models

// EmotionalState holds the check-in answers collected during onboarding.
// Each field is mapped independently through its own guidance table when
// composing assistant tone.
type EmotionalState struct {
	HoldingUp  string `json:"holding_up,omitempty"` // struggling, hanging_in, managing, doing_okay, great
	Timeline   string `json:"timeline,omitempty"`   // urgent, soon, exploring, no_rush
	Confidence string `json:"confidence,omitempty"` // low, shaky, moderate, high
}

// UserProfile is the stored profile snapshot. Its mere presence under the
// profile storage key is what "has a profile" means to the welcome-flow
// selector.
type UserProfile struct {
	Name           string         `json:"name,omitempty"`
	Email          string         `json:"email,omitempty"`
	TargetRole     string         `json:"targetRole,omitempty"`
	SignupAt       string         `json:"signupAt,omitempty"` // RFC3339
	EmotionalState EmotionalState `json:"emotionalState,omitempty"`
}

// WelcomeFlowState selects which modal content variant renders, decided once
// per applicable page load.
type WelcomeFlowState string

const (
	WelcomeProactive   WelcomeFlowState = "proactive_welcome"
	WelcomeFirstAction WelcomeFlowState = "first_action_prompt"
	WelcomeBack        WelcomeFlowState = "welcome_back"
	WelcomeNone        WelcomeFlowState = "none"
)
