package feedback

import (
	"strings"
	"testing"

	"henry-gateway/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		detected bool
		category models.FeedbackType
	}{
		{
			name:     "bug trigger",
			message:  "the pipeline page is broken",
			detected: true,
			category: models.FeedbackBug,
		},
		{
			name:     "feature request",
			message:  "I wish there was a calendar view",
			detected: true,
			category: models.FeedbackFeatureRequest,
		},
		{
			name:     "ux issue",
			message:  "the strengthen flow is confusing",
			detected: true,
			category: models.FeedbackUXIssue,
		},
		{
			name:     "praise",
			message:  "love this tool!",
			detected: true,
			category: models.FeedbackPraise,
		},
		{
			name:     "generic feedback word",
			message:  "I have some feedback for the team",
			detected: true,
			category: models.FeedbackGeneral,
		},
		{
			name:     "case insensitive",
			message:  "This is BROKEN",
			detected: true,
			category: models.FeedbackBug,
		},
		{
			name:     "ordinary chat message",
			message:  "how should I follow up with Acme?",
			detected: false,
		},
		{
			name:     "empty message",
			message:  "",
			detected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, ok := Detect(tt.message)
			assert.Equal(t, tt.detected, ok)
			if tt.detected {
				assert.Equal(t, tt.category, category)
			}
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// "broken" (bug) outranks "i wish" (feature request) when both appear.
	got := Classify("i wish the export wasn't broken")
	assert.Equal(t, models.FeedbackBug, got)

	// Feature request outranks praise.
	got = Classify("great tool, can you add dark mode")
	assert.Equal(t, models.FeedbackFeatureRequest, got)
}

func TestHasSufficientDetail(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		category   models.FeedbackType
		sufficient bool
	}{
		{
			name:       "short bug report needs details",
			message:    "found a bug",
			category:   models.FeedbackBug,
			sufficient: false,
		},
		{
			name:       "long message is self-contained",
			message:    strings.Repeat("the save button on the resume editor does nothing ", 2),
			category:   models.FeedbackBug,
			sufficient: true,
		},
		{
			name:       "explanatory phrase counts as detail",
			message:    "it crashes when i click save",
			category:   models.FeedbackBug,
			sufficient: true,
		},
		{
			name:       "praise never needs elaboration",
			message:    "love this",
			category:   models.FeedbackPraise,
			sufficient: true,
		},
		{
			name:       "short feature request needs details",
			message:    "can you add reminders",
			category:   models.FeedbackFeatureRequest,
			sufficient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sufficient, HasSufficientDetail(tt.message, tt.category))
		})
	}
}

func TestDetailPrompt_PerCategory(t *testing.T) {
	categories := []models.FeedbackType{
		models.FeedbackBug,
		models.FeedbackFeatureRequest,
		models.FeedbackUXIssue,
		models.FeedbackGeneral,
	}
	seen := map[string]bool{}
	for _, c := range categories {
		prompt := DetailPrompt(c)
		assert.NotEmpty(t, prompt)
		seen[prompt] = true
	}
	// Bug, feature and ux prompts are distinct.
	assert.GreaterOrEqual(t, len(seen), 3)
}
