package session

import "henry-gateway/internal/pagecontext"

// Per-page greeting and suggestion chips shown when the drawer opens.
// Suggestions are hidden after the first user message of the session.

var pageGreetings = map[string]string{
	"dashboard":      "Hey! I'm Henry. What's on your mind today?",
	"pipeline":       "Want to go over your applications together?",
	"analysis":       "Questions about how you match this role? Fire away.",
	"resume":         "I can tweak this resume for you. Just tell me what to change.",
	"cover-letter":   "I can rework this cover letter for you. What should we adjust?",
	"strengthen":     "Let's make those bullets undeniable. Ask me anything.",
	"interview-prep": "Big interview energy. What do you want to practice?",
	"profile":        "Setting things up? I can explain any of these questions.",
}

const defaultGreeting = "Hi, I'm Henry, your job search coach. How can I help?"

var pageSuggestions = map[string][]string{
	"dashboard": {
		"What should I focus on today?",
		"How is my pipeline looking?",
		"Help me find roles worth applying to",
	},
	"pipeline": {
		"Who should I follow up with?",
		"Why am I getting ghosted?",
		"Draft a follow-up message",
	},
	"analysis": {
		"What are my biggest gaps for this role?",
		"Is this role worth applying to?",
		"How do I address the missing skills?",
	},
	"resume": {
		"Make it more concise",
		"Emphasize my leadership experience",
		"Rewrite the summary",
	},
	"cover-letter": {
		"Make it less formal",
		"Shorten the opening paragraph",
		"Emphasize why I want this company",
	},
	"strengthen": {
		"Why do these questions matter?",
		"Which bullet needs the most work?",
	},
	"interview-prep": {
		"Ask me a practice question",
		"What should I know about this company?",
	},
}

var defaultSuggestions = []string{
	"What should I do next?",
	"How does this tool work?",
}

func greetingFor(page string) string {
	if g, ok := pageGreetings[pagecontext.Normalize(page)]; ok {
		return g
	}
	return defaultGreeting
}

func suggestionsFor(page string) []string {
	if s, ok := pageSuggestions[pagecontext.Normalize(page)]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), defaultSuggestions...)
}

// Fixed acknowledgment copy for the feedback flow.
const (
	feedbackConfirmedAck = "Thank you! I've passed that along to the team. It genuinely helps."
	feedbackDeclinedAck  = "No problem, I've scrapped it. What else can I help with?"
	refineErrorMessage   = "I couldn't apply that change just now. Mind trying again, or rephrasing it?"
)

func feedbackConfirmPrompt(text string) string {
	return "Here's what I'll send to the team: \"" + text + "\". Want me to send it?"
}
