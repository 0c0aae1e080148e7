package welcome

import (
	"strings"

	"henry-gateway/internal/models"
)

// Each emotional-state field maps independently through its own guidance
// table. Unknown values contribute nothing.

var holdingUpGuidance = map[string]string{
	"struggling": "Be extra gentle and validating. Lead with encouragement before any advice.",
	"hanging_in": "Acknowledge the grind. Keep suggestions small and immediately doable.",
	"managing":   "Supportive and steady. Balance empathy with concrete next steps.",
	"doing_okay": "Friendly and forward-looking. Focus on momentum.",
	"great":      "Match their energy. Be direct and ambitious with suggestions.",
}

var timelineGuidance = map[string]string{
	"urgent":    "They need income soon. Prioritize fast wins over long-shot applications.",
	"soon":      "Aim for steady weekly progress with a clear plan.",
	"exploring": "No pressure framing. Emphasize discovery and fit over volume.",
	"no_rush":   "Keep it light. Optimize for quality applications, not speed.",
}

var confidenceGuidance = map[string]string{
	"low":      "Build them up. Point out concrete strengths from their own materials.",
	"shaky":    "Reassure with evidence. Celebrate small wins explicitly.",
	"moderate": "Encourage without overdoing it.",
	"high":     "Be straightforward. They can handle direct critique.",
}

// ToneGuidance composes the per-field guidance lines into a single string
// passed to the assistant backend as tone_guidance.
func ToneGuidance(es models.EmotionalState) string {
	var parts []string
	if g, ok := holdingUpGuidance[es.HoldingUp]; ok {
		parts = append(parts, g)
	}
	if g, ok := timelineGuidance[es.Timeline]; ok {
		parts = append(parts, g)
	}
	if g, ok := confidenceGuidance[es.Confidence]; ok {
		parts = append(parts, g)
	}
	return strings.Join(parts, " ")
}

// IsNegative reports whether the check-in reads as a rough patch; used by
// the tooltip scheduler's priority order.
func IsNegative(es models.EmotionalState) bool {
	return es.HoldingUp == "struggling" || es.HoldingUp == "hanging_in" ||
		es.Confidence == "low" || es.Confidence == "shaky"
}
