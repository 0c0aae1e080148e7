// Package session owns the conversational widget's dialogue state machine:
// drawer open/close, chat turns against the coaching backend, the feedback
// sub-flow, document refinement short-circuits, the one-time welcome flow and
// the tooltip scheduler. One Session lives for one page load.
package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"henry-gateway/internal/assistant"
	commonerrors "henry-gateway/internal/common/errors"
	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/common/metrics"
	"henry-gateway/internal/common/observability"
	"henry-gateway/internal/feedback"
	"henry-gateway/internal/models"
	"henry-gateway/internal/pagecontext"
	"henry-gateway/internal/pipeline"
	"henry-gateway/internal/refine"
	"henry-gateway/internal/storage"
	"henry-gateway/internal/tooltip"
	"henry-gateway/internal/welcome"
)

// State is the externally visible session state.
type State string

const (
	StateClosed           State = "closed"
	StateOpenIdle         State = "open-idle"
	StateAwaitingResponse State = "open-awaiting-response"
	StateFeedbackDetails  State = "feedback-awaiting-details"
	StateFeedbackConfirm  State = "feedback-awaiting-confirmation"
	StateWelcomeActive    State = "welcome-flow-active"
)

// chatState is the drawer-internal flow position; the drawer being open or
// closed is tracked separately so an in-flight request can outlive a close.
type chatState int

const (
	chatIdle chatState = iota
	chatAwaiting
	chatFeedbackDetails
	chatFeedbackConfirm
)

// ChatBackend generates assistant replies.
type ChatBackend interface {
	Chat(ctx context.Context, req *assistant.ChatRequest) (string, error)
}

// DocumentRefiner applies chat commands to the current document.
type DocumentRefiner interface {
	Refine(ctx context.Context, req *refine.Request) (*refine.Response, error)
}

// FeedbackSink receives confirmed feedback.
type FeedbackSink interface {
	SubmitFeedback(ctx context.Context, userEmail string, fb *models.PendingFeedback) error
}

// Settings are the fixed behavioral constants, sourced from configuration.
type Settings struct {
	HistoryCap            int
	StalledAfterDays      int
	WelcomeBackMinMinutes int
	Tooltip               tooltip.Timings
}

// Params describe one page load.
type Params struct {
	Page        string
	InstanceKey string
	NewSession  bool // fresh browser session, reported by the client
}

// Deps are the session's collaborators.
type Deps struct {
	Mirror     *storage.Mirror
	Chat       ChatBackend
	Refiner    DocumentRefiner
	Feedback   FeedbackSink
	Aggregator *pipeline.Aggregator
	Obs        *observability.Observability
	Logger     logger.Logger
}

// Reply is what one session event hands back to the transport layer.
type Reply struct {
	State       State                        `json:"state"`
	Message     string                       `json:"message,omitempty"`
	History     []models.ConversationMessage `json:"history"`
	Suggestions []string                     `json:"suggestions,omitempty"`
}

// Session is the dialogue manager for one widget instance on one page.
type Session struct {
	ID   string
	page string

	deps     Deps
	settings Settings

	mu          sync.Mutex
	open        bool
	chat        chatState
	inFlight    bool
	history     []models.ConversationMessage
	pending     *models.PendingFeedback
	suggestions []string
	greeting    string

	welcomeActive  bool
	welcomeState   models.WelcomeFlowState
	welcomeContent *welcome.Content

	profile       models.UserProfile
	hasProfile    bool
	refineVersion int
	lastActive    time.Time

	scheduler *tooltip.Scheduler
	logger    logger.Logger
}

// New builds a session for one page load: reconciles the storage tiers,
// restores conversation history, evaluates the welcome-flow decision table
// once, and starts the tooltip scheduler.
func New(ctx context.Context, params Params, deps Deps, settings Settings) *Session {
	s := &Session{
		ID:         uuid.New().String(),
		page:       params.Page,
		deps:       deps,
		settings:   settings,
		greeting:   greetingFor(params.Page),
		lastActive: time.Now(),
	}
	s.logger = deps.Logger.With(map[string]interface{}{
		"component": "session",
		"sessionId": s.ID,
		"page":      pagecontext.Normalize(params.Page),
	})

	deps.Mirror.EnsureBackups(ctx)

	var stored []models.ConversationMessage
	if deps.Mirror.Get(ctx, storage.KeyConversationHistory, &stored) {
		s.history = models.CapHistory(stored, settings.HistoryCap)
	}
	if len(s.history) == 0 {
		s.suggestions = suggestionsFor(params.Page)
	}

	s.hasProfile = deps.Mirror.Get(ctx, storage.KeyUserProfile, &s.profile)

	s.decideWelcome(ctx, params)

	s.scheduler = tooltip.NewScheduler(settings.Tooltip, s.tooltipSnapshot, deps.Logger)
	if s.welcomeActive {
		s.scheduler.Pause()
	}
	s.scheduler.Start()

	s.logger.Info("session created", map[string]interface{}{
		"restoredMessages": len(s.history),
		"welcomeFlow":      string(s.welcomeState),
	})

	return s
}

func (s *Session) decideWelcome(ctx context.Context, params Params) {
	var welcomeSeen, welcomeBackSeen, cameFromSetup bool
	s.deps.Mirror.Get(ctx, storage.KeyWelcomeSeen, &welcomeSeen)
	s.deps.Mirror.Get(ctx, storage.KeyWelcomeBackSeen, &welcomeBackSeen)
	s.deps.Mirror.Get(ctx, storage.KeyCameFromProfileSetup, &cameFromSetup)

	minutesSinceSignup := -1
	if s.hasProfile && s.profile.SignupAt != "" {
		if ts, err := time.Parse(time.RFC3339, s.profile.SignupAt); err == nil {
			minutesSinceSignup = int(time.Since(ts).Minutes())
		}
	}

	s.welcomeState = welcome.Select(welcome.Inputs{
		EntryPage:            pagecontext.IsEntryPage(params.Page),
		HasProfile:           s.hasProfile,
		WelcomeSeen:          welcomeSeen,
		CameFromProfileSetup: cameFromSetup,
		NewSession:           params.NewSession,
		WelcomeBackSeen:      welcomeBackSeen,
		MinutesSinceSignup:   minutesSinceSignup,
	}, s.settings.WelcomeBackMinMinutes)

	if content, ok := welcome.ContentFor(s.welcomeState, s.profile.EmotionalState); ok {
		s.welcomeActive = true
		s.welcomeContent = &content
	}
}

// State reports the externally visible state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.welcomeActive {
		return StateWelcomeActive
	}
	if !s.open {
		return StateClosed
	}
	switch s.chat {
	case chatAwaiting:
		return StateAwaitingResponse
	case chatFeedbackDetails:
		return StateFeedbackDetails
	case chatFeedbackConfirm:
		return StateFeedbackConfirm
	default:
		return StateOpenIdle
	}
}

// Open activates the drawer and suspends tooltips. A no-op while the welcome
// flow is showing; the modal supersedes normal open handling.
func (s *Session) Open() *Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if !s.welcomeActive && !s.open {
		s.open = true
		s.scheduler.Pause()
	}
	return s.replyLocked("")
}

// Close hides the drawer and resumes tooltips. An in-flight chat request is
// not cancelled; its resolution still lands in history.
func (s *Session) Close() *Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if !s.welcomeActive && s.open {
		s.open = false
		s.scheduler.Resume()
	}
	return s.replyLocked("")
}

// SubmitMessage runs one user message through the state machine: feedback
// details collection, feedback intent detection, document refinement
// short-circuit, or a normal chat turn, in that order.
func (s *Session) SubmitMessage(ctx context.Context, text string) (*Reply, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, commonerrors.New(commonerrors.ErrCodeInvalidRequest, "message must not be empty")
	}

	s.mu.Lock()
	s.lastActive = time.Now()

	if s.welcomeActive {
		s.mu.Unlock()
		return nil, commonerrors.New(commonerrors.ErrCodeInvalidTransition, "welcome flow is active")
	}
	if !s.open {
		s.mu.Unlock()
		return nil, commonerrors.New(commonerrors.ErrCodeInvalidTransition, "drawer is not open")
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, commonerrors.New(commonerrors.ErrCodeRequestInFlight, "a message is already being processed")
	}

	s.appendLocked(models.ConversationMessage{Role: models.RoleUser, Content: trimmed})
	s.suggestions = nil

	// Feedback details stage: the next submission is the elaboration.
	if s.chat == chatFeedbackDetails && s.pending != nil {
		s.pending.Details = trimmed
		s.chat = chatFeedbackConfirm
		reply := s.assistantReplyLocked(feedbackConfirmPrompt(s.pending.Text + " " + trimmed))
		s.mu.Unlock()
		return reply, nil
	}

	// Typing past the confirmation buttons abandons the pending feedback.
	if s.chat == chatFeedbackConfirm && s.pending != nil {
		metrics.FeedbackFlows.WithLabelValues(string(s.pending.Type), "abandoned").Inc()
		s.pending = nil
		s.chat = chatIdle
	}

	// Feedback intent, only when no flow is already active.
	if s.chat == chatIdle && s.pending == nil {
		if category, ok := feedback.Detect(trimmed); ok {
			s.pending = &models.PendingFeedback{Text: trimmed, Type: category}
			metrics.ChatTurnsCompleted.WithLabelValues("feedback").Inc()

			if feedback.HasSufficientDetail(trimmed, category) {
				s.chat = chatFeedbackConfirm
				reply := s.assistantReplyLocked(feedbackConfirmPrompt(trimmed))
				s.mu.Unlock()
				return reply, nil
			}
			s.chat = chatFeedbackDetails
			reply := s.assistantReplyLocked(feedback.DetailPrompt(category))
			s.mu.Unlock()
			return reply, nil
		}
	}

	// Document refinement short-circuit on document pages.
	if s.chat == chatIdle && pagecontext.IsDocumentPage(s.page) && refine.IsRefineCommand(trimmed) {
		return s.refineTurnLocked(ctx, trimmed)
	}

	return s.chatTurnLocked(ctx, trimmed)
}

// refineTurnLocked forwards an edit command to the refinement backend.
// Called with the lock held; releases it around the network call.
func (s *Session) refineTurnLocked(ctx context.Context, command string) (*Reply, error) {
	target := pagecontext.Normalize(s.page)
	docKey := storage.KeyResumeData
	if target == "cover-letter" {
		docKey = storage.KeyCoverLetterData
	}

	s.inFlight = true
	s.chat = chatAwaiting
	s.refineVersion++
	version := s.refineVersion
	history := append([]models.ConversationMessage(nil), s.history...)
	s.mu.Unlock()

	docData, _ := s.deps.Mirror.Raw(ctx, docKey)
	analysisData, _ := s.deps.Mirror.Raw(ctx, storage.KeyAnalysisData)
	resumeData, _ := s.deps.Mirror.Raw(ctx, storage.KeyResumeData)

	start := time.Now()
	resp, err := s.deps.Refiner.Refine(ctx, &refine.Request{
		ChatCommand:         command,
		TargetDocument:      target,
		CurrentDocumentData: docData,
		OriginalJDAnalysis:  analysisData,
		OriginalResumeData:  resumeData,
		ConversationHistory: history,
		Version:             version,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.chat = chatIdle

	if err != nil {
		s.logger.Warn("refinement failed", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.ChatTurnsCompleted.WithLabelValues("refine_error").Inc()
		return s.assistantReplyLocked(refineErrorMessage), nil
	}

	if len(resp.UpdatedDocument) > 0 {
		s.deps.Mirror.Set(ctx, docKey, json.RawMessage(resp.UpdatedDocument))
	}

	message := resp.ConversationalResponse
	if message == "" {
		message = resp.ChangesSummary
	}
	if message == "" {
		message = "Done! Take a look."
	}

	metrics.ChatTurnsCompleted.WithLabelValues("refine").Inc()
	metrics.ChatTurnDuration.WithLabelValues("refine").Observe(time.Since(start).Seconds())
	s.recordTurn(ctx, start, "refine")

	return s.assistantReplyLocked(message), nil
}

// chatTurnLocked runs a normal turn against the coaching backend. Called
// with the lock held; releases it for the duration of the upstream call so
// the drawer can be closed while the request is outstanding.
func (s *Session) chatTurnLocked(ctx context.Context, message string) (*Reply, error) {
	s.inFlight = true
	s.chat = chatAwaiting
	history := append([]models.ConversationMessage(nil), s.history...)
	s.mu.Unlock()

	req := s.buildChatRequest(ctx, message, history)

	start := time.Now()
	answer, err := s.deps.Chat.Chat(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.chat = chatIdle

	outcome := "answered"
	if err != nil {
		// Failure renders the fixed apology instead of an error.
		s.logger.Warn("assistant backend failed", map[string]interface{}{
			"error": err.Error(),
		})
		answer = assistant.ApologyMessage
		outcome = "apology"
	}

	metrics.ChatTurnsCompleted.WithLabelValues(outcome).Inc()
	metrics.ChatTurnDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	s.recordTurn(ctx, start, outcome)

	return s.assistantReplyLocked(answer), nil
}

// buildChatRequest assembles the full context envelope for one turn. All
// stored data is optional; missing pieces are simply omitted.
func (s *Session) buildChatRequest(ctx context.Context, message string, history []models.ConversationMessage) *assistant.ChatRequest {
	pageCtx := pagecontext.Resolve(s.page)

	analysisData, hasAnalysis := s.deps.Mirror.Raw(ctx, storage.KeyAnalysisData)
	resumeData, hasResume := s.deps.Mirror.Raw(ctx, storage.KeyResumeData)
	profileData, _ := s.deps.Mirror.Raw(ctx, storage.KeyUserProfile)

	var apps []models.TrackedApplication
	hasPipeline := s.deps.Mirror.Get(ctx, storage.KeyTrackedApplications, &apps)

	var company, role string
	if hasAnalysis {
		var meta struct {
			Company string `json:"company"`
			Role    string `json:"role"`
		}
		// Best effort; the analysis bag is otherwise opaque.
		_ = json.Unmarshal(analysisData, &meta)
		company, role = meta.Company, meta.Role
	}

	req := &assistant.ChatRequest{
		Message:             message,
		ConversationHistory: history,
		Context: assistant.ChatContext{
			CurrentPage:     pageCtx.DisplayName,
			PageDescription: pageCtx.Description,
			Company:         company,
			Role:            role,
			HasAnalysis:     hasAnalysis,
			HasResume:       hasResume,
			HasPipeline:     hasPipeline,
			UserName:        s.profile.Name,
			EmotionalState:  s.profile.EmotionalState.HoldingUp,
			ConfidenceLevel: s.profile.EmotionalState.Confidence,
			Timeline:        s.profile.EmotionalState.Timeline,
			ToneGuidance:    welcome.ToneGuidance(s.profile.EmotionalState),
		},
		AnalysisData: analysisData,
		ResumeData:   resumeData,
		UserProfile:  profileData,
	}

	if hasPipeline {
		req.PipelineData = s.deps.Aggregator.Summarize(apps)
	}

	return req
}

// ConfirmFeedback submits the pending feedback and acknowledges. Submission
// failure is logged and swallowed; the user still gets the acknowledgment.
func (s *Session) ConfirmFeedback(ctx context.Context) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.pending == nil || s.chat != chatFeedbackConfirm {
		return nil, commonerrors.New(commonerrors.ErrCodeNoPendingFeedback, "no feedback awaiting confirmation")
	}

	pending := s.pending
	s.pending = nil
	s.chat = chatIdle

	if err := s.deps.Feedback.SubmitFeedback(ctx, s.profile.Email, pending); err != nil {
		s.logger.Error("feedback submission failed", map[string]interface{}{
			"type":  string(pending.Type),
			"error": err.Error(),
		})
	}
	metrics.FeedbackFlows.WithLabelValues(string(pending.Type), "confirmed").Inc()

	return s.assistantReplyLocked(feedbackConfirmedAck), nil
}

// DeclineFeedback discards the pending feedback and acknowledges.
func (s *Session) DeclineFeedback() (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.pending == nil {
		return nil, commonerrors.New(commonerrors.ErrCodeNoPendingFeedback, "no feedback flow is active")
	}

	metrics.FeedbackFlows.WithLabelValues(string(s.pending.Type), "declined").Inc()
	s.pending = nil
	s.chat = chatIdle

	return s.assistantReplyLocked(feedbackDeclinedAck), nil
}

// AcknowledgeWelcome handles the modal CTA. The "seen" flag is persisted so
// the same variant is not re-entered this session or device. The primary CTA
// opens the drawer; the secondary closes the widget.
func (s *Session) AcknowledgeWelcome(ctx context.Context, primary bool) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if !s.welcomeActive {
		return nil, commonerrors.New(commonerrors.ErrCodeWelcomeNotActive, "no welcome flow is active")
	}

	switch s.welcomeState {
	case models.WelcomeProactive:
		s.deps.Mirror.Set(ctx, storage.KeyWelcomeSeen, true)
	case models.WelcomeBack:
		s.deps.Mirror.Set(ctx, storage.KeyWelcomeBackSeen, true)
	case models.WelcomeFirstAction:
		s.deps.Mirror.Set(ctx, storage.KeyWelcomeSeen, true)
		s.deps.Mirror.Remove(ctx, storage.KeyCameFromProfileSetup)
	}

	s.welcomeActive = false

	if primary {
		s.open = true
		// Scheduler stays paused while the drawer is open.
	} else {
		s.scheduler.Resume()
	}

	return s.replyLocked(""), nil
}

// PipelineSummary recomputes the dashboard summary from stored applications.
func (s *Session) PipelineSummary(ctx context.Context) models.PipelineSummary {
	var apps []models.TrackedApplication
	s.deps.Mirror.Get(ctx, storage.KeyTrackedApplications, &apps)
	return s.deps.Aggregator.Summarize(apps)
}

// CurrentTooltip returns the tip visible right now, or nil.
func (s *Session) CurrentTooltip() *tooltip.Tip {
	return s.scheduler.Current()
}

// Greeting is the contextual opening line for this page.
func (s *Session) Greeting() string {
	return s.greeting
}

// WelcomeContent returns the modal content while the welcome flow is active.
func (s *Session) WelcomeContent() *welcome.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.welcomeActive {
		return nil
	}
	content := *s.welcomeContent
	return &content
}

// WelcomeState reports the decision made at initialization.
func (s *Session) WelcomeState() models.WelcomeFlowState {
	return s.welcomeState
}

// PendingFeedback returns a copy of the feedback item awaiting details or
// confirmation, or nil.
func (s *Session) PendingFeedback() *models.PendingFeedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	pending := *s.pending
	return &pending
}

// Snapshot returns the current state for GET requests.
func (s *Session) Snapshot() *Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replyLocked("")
}

// LastActive reports when this session last handled an event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Teardown stops the tooltip scheduler. Conversation history survives in the
// storage mirror; everything else is page-lifetime state.
func (s *Session) Teardown() {
	s.scheduler.Stop()
}

// ==========================
// Internal helpers
// ==========================

// appendLocked adds a message and persists the capped history.
func (s *Session) appendLocked(msg models.ConversationMessage) {
	s.history = append(s.history, msg)
	persisted := models.CapHistory(s.history, s.settings.HistoryCap)
	s.deps.Mirror.Set(context.Background(), storage.KeyConversationHistory, persisted)
}

// assistantReplyLocked appends an assistant message and builds the reply.
func (s *Session) assistantReplyLocked(message string) *Reply {
	s.appendLocked(models.ConversationMessage{Role: models.RoleAssistant, Content: message})
	return s.replyLocked(message)
}

func (s *Session) replyLocked(message string) *Reply {
	return &Reply{
		State:       s.stateLocked(),
		Message:     message,
		History:     append([]models.ConversationMessage(nil), s.history...),
		Suggestions: append([]string(nil), s.suggestions...),
	}
}

func (s *Session) recordTurn(ctx context.Context, start time.Time, outcome string) {
	if s.deps.Obs != nil {
		s.deps.Obs.RecordTurn(ctx, outcome)
		s.deps.Obs.RecordTurnDuration(ctx, time.Since(start), outcome)
	}
}

// tooltipSnapshot feeds the scheduler's selection each cycle.
func (s *Session) tooltipSnapshot() tooltip.Snapshot {
	ctx := context.Background()
	var apps []models.TrackedApplication
	s.deps.Mirror.Get(ctx, storage.KeyTrackedApplications, &apps)

	return tooltip.Snapshot{
		Summary:       s.deps.Aggregator.Summarize(apps),
		Emotional:     s.profile.EmotionalState,
		NegativeState: welcome.IsNegative(s.profile.EmotionalState),
		StalledAfter:  s.settings.StalledAfterDays,
	}
}
