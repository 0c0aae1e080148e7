// Package pagecontext maps a normalized path segment to the display context
// sent with every assistant request. Pure lookup, no side effects.
package pagecontext

import "strings"

type PageContext struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// Enumerated page table. Unmapped paths resolve to the default entry.
var pages = map[string]PageContext{
	"dashboard": {
		DisplayName: "Dashboard",
		Description: "overview of the user's job search with pipeline summary and next actions",
	},
	"pipeline": {
		DisplayName: "Application Pipeline",
		Description: "tracked job applications with statuses, fit scores and follow-up dates",
	},
	"analysis": {
		DisplayName: "Job Fit Analysis",
		Description: "breakdown of how the user's background matches a specific job description",
	},
	"resume": {
		DisplayName: "Resume Editor",
		Description: "tailored resume the user is editing and can refine with chat commands",
	},
	"cover-letter": {
		DisplayName: "Cover Letter Editor",
		Description: "generated cover letter the user is editing and can refine with chat commands",
	},
	"strengthen": {
		DisplayName: "Resume Strengthening",
		Description: "bullet-audit questions that strengthen weak resume bullets with real details",
	},
	"interview-prep": {
		DisplayName: "Interview Prep",
		Description: "company research and practice questions for upcoming interviews",
	},
	"profile": {
		DisplayName: "Profile Setup",
		Description: "career profile, emotional check-in and job search preferences",
	},
}

var defaultPage = PageContext{
	DisplayName: "JobSearch Coach",
	Description: "job search coaching workspace",
}

// Resolve returns the context for a path like "/resume/" or "resume".
func Resolve(path string) PageContext {
	if ctx, ok := pages[Normalize(path)]; ok {
		return ctx
	}
	return defaultPage
}

// Normalize reduces a URL path to its first meaningful segment.
func Normalize(path string) string {
	p := strings.ToLower(strings.Trim(path, "/"))
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// IsDocumentPage reports whether chat-command document refinement applies on
// this page.
func IsDocumentPage(path string) bool {
	switch Normalize(path) {
	case "resume", "cover-letter":
		return true
	}
	return false
}

// IsEntryPage reports whether the welcome flow is evaluated on this page.
func IsEntryPage(path string) bool {
	return Normalize(path) == "dashboard"
}
