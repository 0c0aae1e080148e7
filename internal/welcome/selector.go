// Package welcome decides which one-time welcome modal, if any, a session
// shows, and composes its content variant with tone guidance from the user's
// emotional check-in.
package welcome

import "henry-gateway/internal/models"

// Inputs is the flag snapshot the selector evaluates, collected once at
// session creation.
type Inputs struct {
	EntryPage            bool
	HasProfile           bool
	WelcomeSeen          bool
	CameFromProfileSetup bool
	NewSession           bool
	WelcomeBackSeen      bool
	MinutesSinceSignup   int // -1 when signup time is unknown
}

// Select evaluates the decision table exactly once per session. The order of
// the rules is the behavior; do not reorder.
func Select(in Inputs, welcomeBackMinMinutes int) models.WelcomeFlowState {
	if !in.EntryPage {
		return models.WelcomeNone
	}

	if !in.HasProfile {
		if !in.WelcomeSeen {
			return models.WelcomeProactive
		}
		return models.WelcomeNone
	}

	if in.CameFromProfileSetup {
		return models.WelcomeFirstAction
	}

	if in.NewSession && !in.WelcomeBackSeen &&
		in.MinutesSinceSignup >= welcomeBackMinMinutes {
		return models.WelcomeBack
	}

	return models.WelcomeNone
}

// Content is one rendered modal variant.
type Content struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	PrimaryCTA   string `json:"primaryCta"`
	SecondaryCTA string `json:"secondaryCta"`
	ToneGuidance string `json:"toneGuidance,omitempty"`
}

// The three literal content variants. Copy is fixed; only the tone guidance
// line is parameterized.
var contentVariants = map[models.WelcomeFlowState]Content{
	models.WelcomeProactive: {
		Title:        "Hey, I'm Henry 👋",
		Body:         "I'm your job search coach. Tell me a bit about yourself and I'll help you figure out where to focus first.",
		PrimaryCTA:   "Set up my profile",
		SecondaryCTA: "Maybe later",
	},
	models.WelcomeFirstAction: {
		Title:        "Nice, your profile is ready",
		Body:         "A good first step is analyzing a job posting you care about. Paste one in and I'll show you how you stack up.",
		PrimaryCTA:   "Analyze a job",
		SecondaryCTA: "I'll explore on my own",
	},
	models.WelcomeBack: {
		Title:        "Welcome back",
		Body:         "Want a quick recap of where your pipeline stands, or should we pick up where you left off?",
		PrimaryCTA:   "Show me my pipeline",
		SecondaryCTA: "Just browsing",
	},
}

// ContentFor returns the modal content for a selected state, with tone
// guidance composed from the emotional check-in. Returns false for
// WelcomeNone.
func ContentFor(state models.WelcomeFlowState, es models.EmotionalState) (Content, bool) {
	content, ok := contentVariants[state]
	if !ok {
		return Content{}, false
	}
	content.ToneGuidance = ToneGuidance(es)
	return content, true
}
