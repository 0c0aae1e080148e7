package models

// TrackedApplication is one job application as stored by the pipeline page.
// Read-only for this service; malformed entries simply fail to match any
// status bucket.
type TrackedApplication struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	FitScore    *int   `json:"fitScore,omitempty"`
	DateApplied string `json:"dateApplied,omitempty"` // RFC3339
	LastUpdated string `json:"lastUpdated,omitempty"` // RFC3339
	DateAdded   string `json:"dateAdded,omitempty"`   // RFC3339
}

// PipelineSummary is the derived dashboard view over tracked applications.
type PipelineSummary struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Interviewing  int `json:"interviewing"`
	Applied       int `json:"applied"`
	Responded     int `json:"responded"`
	Rejected      int `json:"rejected"`
	Ghosted       int `json:"ghosted"`
	Hot           int `json:"hot"`
	AvgFitScore   int `json:"avgFitScore"`
	InterviewRate int `json:"interviewRate"` // percent
	StalledDays   int `json:"stalledDays"`   // days since last pipeline activity
}
