// Package feedback detects feedback intent in chat messages and categorizes
// it. Detection is a prioritized list of keyword predicates evaluated in
// order; the literal trigger-word sets are part of the shipped behavior and
// must not be "improved" casually.
package feedback

import (
	"strings"

	"henry-gateway/internal/models"
)

// detailThreshold is the message length at which feedback is assumed to be
// self-contained and the details stage is skipped.
const detailThreshold = 60

// feedbackTriggers decide whether a message is feedback at all.
var feedbackTriggers = []string{
	"feedback",
	"suggestion",
	"report a bug",
	"bug report",
	"found a bug",
	"broken",
	"not working",
	"doesn't work",
	"i wish",
	"it would be nice",
	"it would be great",
	"can you add",
	"love this",
	"confusing",
	"hard to use",
}

// categoryRule pairs a FeedbackType with its trigger set. Evaluated in order;
// first match wins.
type categoryRule struct {
	category models.FeedbackType
	keywords []string
}

var categoryRules = []categoryRule{
	{models.FeedbackBug, []string{
		"bug", "broken", "error", "crash", "not working", "doesn't work", "glitch",
	}},
	{models.FeedbackFeatureRequest, []string{
		"feature", "can you add", "i wish", "it would be nice", "it would be great", "suggestion",
	}},
	{models.FeedbackUXIssue, []string{
		"confusing", "hard to use", "can't find", "difficult to", "annoying", "slow",
	}},
	{models.FeedbackPraise, []string{
		"love", "great", "awesome", "amazing", "thank", "helpful",
	}},
}

// explanatoryPhrases indicate the message already carries enough context for
// its category.
var explanatoryPhrases = []string{
	"because",
	"when i",
	"after i",
	"every time",
	"steps to",
	"expected",
	"instead of",
}

// Detect reports whether the message is feedback and, if so, its category.
// Matching is case-insensitive substring membership.
func Detect(message string) (models.FeedbackType, bool) {
	lower := strings.ToLower(message)

	triggered := false
	for _, trigger := range feedbackTriggers {
		if strings.Contains(lower, trigger) {
			triggered = true
			break
		}
	}
	if !triggered {
		return "", false
	}

	return Classify(lower), true
}

// Classify derives the FeedbackType from lower-cased text. First matching
// category in priority order wins; anything else is general.
func Classify(lower string) models.FeedbackType {
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return models.FeedbackGeneral
}

// HasSufficientDetail reports whether the message can go straight to
// confirmation without a follow-up details prompt. Praise never needs
// elaboration.
func HasSufficientDetail(message string, category models.FeedbackType) bool {
	if category == models.FeedbackPraise {
		return true
	}
	if len(strings.TrimSpace(message)) >= detailThreshold {
		return true
	}

	lower := strings.ToLower(message)
	for _, phrase := range explanatoryPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// DetailPrompt is the follow-up question asked per category when a feedback
// message lacks detail.
func DetailPrompt(category models.FeedbackType) string {
	switch category {
	case models.FeedbackBug:
		return "Thanks for flagging that. What were you doing when it happened, and what did you expect instead?"
	case models.FeedbackFeatureRequest:
		return "Good idea. Can you tell me a bit more about what you'd want it to do?"
	case models.FeedbackUXIssue:
		return "Sorry it's been awkward. Which part tripped you up?"
	default:
		return "Got it. Anything else you'd like to add before I pass this along?"
	}
}
