// Package pipeline reduces the stored list of tracked applications into the
// summary counts shown on the dashboard and fed into assistant context.
package pipeline

import (
	"math"
	"time"

	"henry-gateway/internal/models"
)

const (
	dayMillis       = 86400000
	hotFitThreshold = 85
)

// Status bucket membership. These are the exact status strings the pipeline
// page writes; anything else falls out of every bucket instead of erroring.
var (
	respondedStatuses = map[string]bool{
		"Phone Screen":        true,
		"Technical Round":     true,
		"Interview Scheduled": true,
		"Onsite":              true,
		"Final Round":         true,
		"Offer":               true,
	}

	interviewingStatuses = map[string]bool{
		"Phone Screen":        true,
		"Technical Round":     true,
		"Interview Scheduled": true,
		"Onsite":              true,
		"Final Round":         true,
	}

	rejectedStatuses = map[string]bool{
		"Rejected":  true,
		"Withdrawn": true,
	}
)

const (
	statusApplied    = "Applied"
	statusNoResponse = "No Response"
)

// Aggregator computes PipelineSummary values. The ghosted threshold comes
// from configuration; never tune it here.
type Aggregator struct {
	ghostedAfterDays int
	now              func() time.Time
}

func NewAggregator(ghostedAfterDays int) *Aggregator {
	return &Aggregator{
		ghostedAfterDays: ghostedAfterDays,
		now:              time.Now,
	}
}

// Summarize partitions applications into status buckets and derives the
// averages. Input is treated as already valid; entries with an unrecognized
// status are excluded by non-match.
func (a *Aggregator) Summarize(apps []models.TrackedApplication) models.PipelineSummary {
	now := a.now()
	summary := models.PipelineSummary{}

	var fitSum, fitCount int
	var latestActivity time.Time

	for _, app := range apps {
		recognized := app.Status == statusApplied ||
			app.Status == statusNoResponse ||
			respondedStatuses[app.Status] ||
			rejectedStatuses[app.Status]
		if !recognized {
			continue
		}
		summary.Total++

		ghosted := a.isGhosted(app, now)
		if ghosted {
			summary.Ghosted++
		}

		switch {
		case rejectedStatuses[app.Status]:
			summary.Rejected++
		case app.Status == statusApplied:
			summary.Applied++
		}
		if respondedStatuses[app.Status] {
			summary.Responded++
		}
		if interviewingStatuses[app.Status] {
			summary.Interviewing++
		}
		active := !rejectedStatuses[app.Status] && app.Status != statusNoResponse && !ghosted
		if active {
			summary.Active++

			score := 50
			if app.FitScore != nil {
				score = *app.FitScore
			}
			fitSum += score
			fitCount++

			if score >= hotFitThreshold {
				summary.Hot++
			}

			if ts, ok := latestTimestamp(app); ok && ts.After(latestActivity) {
				latestActivity = ts
			}
		}
	}

	if fitCount > 0 {
		summary.AvgFitScore = int(math.Round(float64(fitSum) / float64(fitCount)))
	}
	// Interview rate is responded over everything ever applied to, which is
	// the full recognized set.
	if summary.Total > 0 {
		summary.InterviewRate = int(math.Round(float64(summary.Responded) / float64(summary.Total) * 100))
	}
	if !latestActivity.IsZero() {
		summary.StalledDays = daysBetween(latestActivity, now)
	}

	return summary
}

// isGhosted reports the ghosted rule: explicitly flagged No Response, or
// Applied with no movement past the configured day threshold. A missing or
// unparseable dateApplied never ghosts an application.
func (a *Aggregator) isGhosted(app models.TrackedApplication, now time.Time) bool {
	if app.Status == statusNoResponse {
		return true
	}
	if app.Status != statusApplied {
		return false
	}
	applied, ok := parseTime(app.DateApplied)
	if !ok {
		return false
	}
	return daysBetween(applied, now) > a.ghostedAfterDays
}

// latestTimestamp prefers lastUpdated, falling back to dateAdded.
func latestTimestamp(app models.TrackedApplication) (time.Time, bool) {
	if ts, ok := parseTime(app.LastUpdated); ok {
		return ts, true
	}
	return parseTime(app.DateAdded)
}

// daysBetween is calendar-day truncation of the elapsed milliseconds.
func daysBetween(from, to time.Time) int {
	ms := to.UnixMilli() - from.UnixMilli()
	if ms < 0 {
		return 0
	}
	return int(ms / dayMillis)
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
