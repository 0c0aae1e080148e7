// Package refine detects document-refinement commands in chat messages and
// forwards them to the document refinement backend. Only applies on the
// resume and cover-letter pages; everywhere else messages fall through to
// normal chat dispatch.
package refine

import "strings"

// refineTriggers is the literal command vocabulary. Checked before generic
// chat dispatch; first match wins nothing, any match fires.
var refineTriggers = []string{
	"make it",
	"make the",
	"change the",
	"rewrite",
	"reword",
	"shorten",
	"expand",
	"add a bullet",
	"remove the",
	"emphasize",
	"tone down",
	"more formal",
	"less formal",
	"more concise",
	"tweak",
	"update the summary",
}

// IsRefineCommand reports whether the message reads as a document edit
// command rather than a question.
func IsRefineCommand(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range refineTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
