// Package tooltip runs the per-session nudge scheduler: a single cooperative
// timer that surfaces a one-line contextual message, hides it after a few
// seconds, then sleeps a randomized interval before the next one. The whole
// scheduler is paused while the chat drawer is open.
package tooltip

import (
	"math/rand"
	"sync"
	"time"

	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/common/metrics"
	"henry-gateway/internal/models"
)

// Selection reasons, in priority order.
const (
	ReasonStalledPipeline   = "stalled_pipeline"
	ReasonUpcomingInterview = "upcoming_interview"
	ReasonEmotionalSupport  = "emotional_support"
	ReasonRejectionPattern  = "rejection_pattern"
	ReasonNoApplications    = "no_applications"
	ReasonDefault           = "default"
)

var defaultMessages = []string{
	"Need a hand with anything? I'm right here.",
	"Want me to look over your pipeline?",
	"Stuck on what to do next? Ask me.",
	"I can help you tailor your resume to any posting.",
	"Curious how you stack up for a role? Paste the posting in.",
}

// Tip is one scheduled tooltip.
type Tip struct {
	Message string    `json:"message"`
	Reason  string    `json:"reason"`
	ShownAt time.Time `json:"shownAt"`
}

// Snapshot is the session state the selector reads each cycle.
type Snapshot struct {
	Summary       models.PipelineSummary
	Emotional     models.EmotionalState
	NegativeState bool
	StalledAfter  int // days, from configuration
}

// Timings holds the scheduler windows, all in seconds.
type Timings struct {
	InitialDelayMin int
	InitialDelayMax int
	DisplaySeconds  int
	IntervalMin     int
	IntervalMax     int
}

// Scheduler drives the tooltip loop for one session.
type Scheduler struct {
	timings  Timings
	snapshot func() Snapshot
	logger   logger.Logger
	rng      *rand.Rand

	mu      sync.Mutex
	paused  bool
	current *Tip
	stop    chan struct{}
	stopped bool
}

func NewScheduler(timings Timings, snapshot func() Snapshot, log logger.Logger) *Scheduler {
	return &Scheduler{
		timings:  timings,
		snapshot: snapshot,
		logger: log.With(map[string]interface{}{
			"component": "tooltip-scheduler",
		}),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		stop: make(chan struct{}),
	}
}

// Start launches the timer loop. Call once.
func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) run() {
	if !s.sleep(s.randSeconds(s.timings.InitialDelayMin, s.timings.InitialDelayMax)) {
		return
	}

	for {
		s.showOnce()

		if !s.sleep(time.Duration(s.timings.DisplaySeconds) * time.Second) {
			return
		}
		s.hide()

		if !s.sleep(s.randSeconds(s.timings.IntervalMin, s.timings.IntervalMax)) {
			return
		}
	}
}

func (s *Scheduler) showOnce() {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	if paused {
		return
	}

	snap := s.snapshot()
	message, reason := SelectMessage(snap, s.rng)

	s.mu.Lock()
	s.current = &Tip{Message: message, Reason: reason, ShownAt: time.Now()}
	s.mu.Unlock()

	metrics.TooltipsShown.WithLabelValues(reason).Inc()
	s.logger.Debug("tooltip shown", map[string]interface{}{
		"reason": reason,
	})
}

func (s *Scheduler) hide() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// sleep waits for d or until Stop. Returns false when stopping.
func (s *Scheduler) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.stop:
		return false
	}
}

func (s *Scheduler) randSeconds(min, max int) time.Duration {
	if max <= min {
		return time.Duration(min) * time.Second
	}
	return time.Duration(min+s.rng.Intn(max-min+1)) * time.Second
}

// Pause suspends tooltips while the chat drawer is open. The currently
// visible tip is dismissed immediately.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.paused = true
	s.current = nil
	s.mu.Unlock()
}

// Resume re-enables tooltips after the drawer closes.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// Current returns the tip visible right now, or nil.
func (s *Scheduler) Current() *Tip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	tip := *s.current
	return &tip
}

// Stop tears the scheduler down. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stop)
}

// SelectMessage picks the message for one cycle. Priority order is part of
// the shipped behavior: stalled pipeline, upcoming interview, negative
// emotional state, rejection pattern, empty pipeline, then a uniform-random
// default.
func SelectMessage(snap Snapshot, rng *rand.Rand) (string, string) {
	summary := snap.Summary

	if summary.Active > 0 && snap.StalledAfter > 0 && summary.StalledDays >= snap.StalledAfter {
		return "Your pipeline has been quiet for a few days. Want help picking who to nudge?", ReasonStalledPipeline
	}
	if summary.Interviewing > 0 {
		return "Interview coming up? I can help you prep for it.", ReasonUpcomingInterview
	}
	if snap.NegativeState {
		return "Job searching is rough. Want to talk through where things stand?", ReasonEmotionalSupport
	}
	if summary.Rejected >= 2 {
		return "A few rejections in a row says nothing about you. Want to look at what we can adjust?", ReasonRejectionPattern
	}
	if summary.Active == 0 {
		return "No active applications yet. Want help finding a posting worth your time?", ReasonNoApplications
	}
	return defaultMessages[rng.Intn(len(defaultMessages))], ReasonDefault
}
