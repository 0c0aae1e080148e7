package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"henry-gateway/internal/assistant"
	commonerrors "henry-gateway/internal/common/errors"
	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/models"
	"henry-gateway/internal/pipeline"
	"henry-gateway/internal/refine"
	"henry-gateway/internal/storage"
	"henry-gateway/internal/tooltip"
)

type fakeChat struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []*assistant.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req *assistant.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeChat) lastRequest() *assistant.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

type fakeRefiner struct {
	resp     *refine.Response
	err      error
	requests []*refine.Request
}

func (f *fakeRefiner) Refine(_ context.Context, req *refine.Request) (*refine.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeFeedbackSink struct {
	submitted []*models.PendingFeedback
	err       error
}

func (f *fakeFeedbackSink) SubmitFeedback(_ context.Context, _ string, fb *models.PendingFeedback) error {
	f.submitted = append(f.submitted, fb)
	return f.err
}

type harness struct {
	session  *Session
	mirror   *storage.Mirror
	chat     *fakeChat
	refiner  *fakeRefiner
	feedback *fakeFeedbackSink
}

// slowTimings keeps the tooltip loop far away from test assertions.
var slowTimings = tooltip.Timings{
	InitialDelayMin: 3600,
	InitialDelayMax: 3600,
	DisplaySeconds:  3600,
	IntervalMin:     3600,
	IntervalMax:     3600,
}

func newHarness(t *testing.T, params Params, seed func(m *storage.Mirror)) *harness {
	t.Helper()

	primary := miniredis.RunT(t)
	backup := miniredis.RunT(t)
	log := logger.NewTestLogger(t)

	mirror := storage.NewMirror("test-user",
		storage.NewRedisTier(redis.NewClient(&redis.Options{Addr: primary.Addr()})),
		storage.NewRedisTier(redis.NewClient(&redis.Options{Addr: backup.Addr()})),
		log,
	)
	if seed != nil {
		seed(mirror)
	}

	chat := &fakeChat{reply: "Here's my advice."}
	refiner := &fakeRefiner{resp: &refine.Response{
		UpdatedDocument:        json.RawMessage(`{"summary":"updated"}`),
		ConversationalResponse: "Tightened it up for you.",
	}}
	sink := &fakeFeedbackSink{}

	s := New(context.Background(), params, Deps{
		Mirror:     mirror,
		Chat:       chat,
		Refiner:    refiner,
		Feedback:   sink,
		Aggregator: pipeline.NewAggregator(14),
		Logger:     log,
	}, Settings{
		HistoryCap:            20,
		StalledAfterDays:      3,
		WelcomeBackMinMinutes: 60,
		Tooltip:               slowTimings,
	})
	t.Cleanup(s.Teardown)

	return &harness{session: s, mirror: mirror, chat: chat, refiner: refiner, feedback: sink}
}

func seedProfile(m *storage.Mirror) {
	m.Set(context.Background(), storage.KeyUserProfile, models.UserProfile{
		Name:     "Dana",
		Email:    "dana@example.com",
		SignupAt: time.Now().Add(-48 * time.Hour).Format(time.RFC3339),
	})
	m.Set(context.Background(), storage.KeyWelcomeSeen, true)
	m.Set(context.Background(), storage.KeyWelcomeBackSeen, true)
}

func TestSessionStartsClosed(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	assert.Equal(t, StateClosed, h.session.State())
	assert.NotEmpty(t, h.session.ID)
}

func TestOpenCloseTransitions(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)

	reply := h.session.Open()
	assert.Equal(t, StateOpenIdle, reply.State)

	reply = h.session.Close()
	assert.Equal(t, StateClosed, reply.State)
}

func TestSubmitMessageRequiresOpenDrawer(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)

	_, err := h.session.SubmitMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidTransition, commonerrors.CodeOf(err))
}

func TestSubmitMessageRejectsEmpty(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidRequest, commonerrors.CodeOf(err))
}

func TestChatTurnAppendsBothMessages(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	reply, err := h.session.SubmitMessage(context.Background(), "How is my pipeline?")
	require.NoError(t, err)

	assert.Equal(t, StateOpenIdle, reply.State)
	assert.Equal(t, "Here's my advice.", reply.Message)
	require.Len(t, reply.History, 2)
	assert.Equal(t, models.RoleUser, reply.History[0].Role)
	assert.Equal(t, "How is my pipeline?", reply.History[0].Content)
	assert.Equal(t, models.RoleAssistant, reply.History[1].Role)
}

func TestChatTurnPersistsHistory(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "hello there")
	require.NoError(t, err)

	var stored []models.ConversationMessage
	require.True(t, h.mirror.Get(context.Background(), storage.KeyConversationHistory, &stored))
	assert.Len(t, stored, 2)
}

func TestHistoryRoundTripKeepsLastTwenty(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	// 15 turns produce 30 messages; the persisted window holds the last 20.
	for i := 0; i < 15; i++ {
		_, err := h.session.SubmitMessage(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	var stored []models.ConversationMessage
	require.True(t, h.mirror.Get(context.Background(), storage.KeyConversationHistory, &stored))
	require.Len(t, stored, 20)
	assert.Equal(t, "question 5", stored[0].Content)

	// A fresh session restores exactly that window.
	h2 := newHarness(t, Params{Page: "/dashboard"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyConversationHistory, stored)
	})
	snap := h2.session.Snapshot()
	assert.Len(t, snap.History, 20)
	assert.Equal(t, "question 5", snap.History[0].Content)
}

func TestChatFailureRendersApology(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.chat.err = errors.New("upstream down")
	h.session.Open()

	reply, err := h.session.SubmitMessage(context.Background(), "help me out")
	require.NoError(t, err)

	assert.Equal(t, assistant.ApologyMessage, reply.Message)
	require.Len(t, reply.History, 2)
	assert.Equal(t, assistant.ApologyMessage, reply.History[1].Content)
}

func TestChatRequestCarriesContext(t *testing.T) {
	h := newHarness(t, Params{Page: "/analysis"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyAnalysisData,
			json.RawMessage(`{"company":"Initech","role":"Staff Engineer","fitScore":82}`))
		m.Set(context.Background(), storage.KeyTrackedApplications, []models.TrackedApplication{
			{Company: "Initech", Status: "Applied"},
		})
	})
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "what are my gaps?")
	require.NoError(t, err)

	req := h.chat.lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "Job Fit Analysis", req.Context.CurrentPage)
	assert.Equal(t, "Initech", req.Context.Company)
	assert.Equal(t, "Staff Engineer", req.Context.Role)
	assert.True(t, req.Context.HasAnalysis)
	assert.False(t, req.Context.HasResume)
	assert.True(t, req.Context.HasPipeline)
	assert.Equal(t, "Dana", req.Context.UserName)
	require.NotNil(t, req.PipelineData)
	summary, ok := req.PipelineData.(models.PipelineSummary)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Total)
}

func TestSuggestionsShownOnlyBeforeFirstMessage(t *testing.T) {
	h := newHarness(t, Params{Page: "/pipeline"}, seedProfile)

	reply := h.session.Open()
	assert.NotEmpty(t, reply.Suggestions)

	reply2, err := h.session.SubmitMessage(context.Background(), "who should I follow up with?")
	require.NoError(t, err)
	assert.Empty(t, reply2.Suggestions)
}

func TestRestoredHistorySuppressesSuggestions(t *testing.T) {
	h := newHarness(t, Params{Page: "/pipeline"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyConversationHistory, []models.ConversationMessage{
			{Role: models.RoleUser, Content: "earlier question"},
		})
	})

	reply := h.session.Open()
	assert.Empty(t, reply.Suggestions)
}

func TestRefineShortCircuitOnResumePage(t *testing.T) {
	h := newHarness(t, Params{Page: "/resume"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyResumeData, json.RawMessage(`{"summary":"original"}`))
		m.Set(context.Background(), storage.KeyAnalysisData, json.RawMessage(`{"company":"Initech"}`))
	})
	h.session.Open()

	reply, err := h.session.SubmitMessage(context.Background(), "make it more concise")
	require.NoError(t, err)

	assert.Equal(t, "Tightened it up for you.", reply.Message)
	assert.Empty(t, h.chat.requests, "refine commands must not reach the chat backend")

	require.Len(t, h.refiner.requests, 1)
	req := h.refiner.requests[0]
	assert.Equal(t, "make it more concise", req.ChatCommand)
	assert.Equal(t, "resume", req.TargetDocument)
	assert.JSONEq(t, `{"summary":"original"}`, string(req.CurrentDocumentData))
	assert.Equal(t, 1, req.Version)

	// The updated document replaces the stored one.
	var doc map[string]string
	require.True(t, h.mirror.Get(context.Background(), storage.KeyResumeData, &doc))
	assert.Equal(t, "updated", doc["summary"])
}

func TestRefineTriggersIgnoredOffDocumentPages(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "make it more concise")
	require.NoError(t, err)

	assert.Empty(t, h.refiner.requests)
	assert.Len(t, h.chat.requests, 1)
}

func TestRefineFailureKeepsDocumentAndApologizes(t *testing.T) {
	h := newHarness(t, Params{Page: "/resume"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyResumeData, json.RawMessage(`{"summary":"original"}`))
	})
	h.refiner.err = errors.New("refinement backend down")
	h.session.Open()

	reply, err := h.session.SubmitMessage(context.Background(), "rewrite the summary")
	require.NoError(t, err)
	assert.Equal(t, refineErrorMessage, reply.Message)

	var doc map[string]string
	require.True(t, h.mirror.Get(context.Background(), storage.KeyResumeData, &doc))
	assert.Equal(t, "original", doc["summary"])
}

func TestRefineVersionIncrements(t *testing.T) {
	h := newHarness(t, Params{Page: "/cover-letter"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyCoverLetterData, json.RawMessage(`{"body":"draft"}`))
	})
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "make it less formal")
	require.NoError(t, err)
	_, err = h.session.SubmitMessage(context.Background(), "shorten the opening paragraph")
	require.NoError(t, err)

	require.Len(t, h.refiner.requests, 2)
	assert.Equal(t, 1, h.refiner.requests[0].Version)
	assert.Equal(t, 2, h.refiner.requests[1].Version)
	assert.Equal(t, "cover-letter", h.refiner.requests[0].TargetDocument)
}

func TestFeedbackWithDetailGoesStraightToConfirm(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	long := "I found a bug: the pipeline table crashes every time I sort by fit score descending"
	reply, err := h.session.SubmitMessage(context.Background(), long)
	require.NoError(t, err)

	assert.Equal(t, StateFeedbackConfirm, reply.State)
	assert.Contains(t, reply.Message, "Want me to send it?")
	assert.Empty(t, h.chat.requests, "feedback must not reach the chat backend")
}

func TestFeedbackShortMessageAsksForDetails(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	reply, err := h.session.SubmitMessage(context.Background(), "this page is broken")
	require.NoError(t, err)
	assert.Equal(t, StateFeedbackDetails, reply.State)

	reply, err = h.session.SubmitMessage(context.Background(), "sorting the table by status throws everything into one column")
	require.NoError(t, err)
	assert.Equal(t, StateFeedbackConfirm, reply.State)
}

func TestConfirmFeedbackSubmitsAndAcknowledges(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "this page is broken")
	require.NoError(t, err)
	_, err = h.session.SubmitMessage(context.Background(), "the status dropdown resets itself whenever I tab away and back")
	require.NoError(t, err)

	reply, err := h.session.ConfirmFeedback(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateOpenIdle, reply.State)
	assert.Equal(t, feedbackConfirmedAck, reply.Message)
	require.Len(t, h.feedback.submitted, 1)
	fb := h.feedback.submitted[0]
	assert.Equal(t, models.FeedbackBug, fb.Type)
	assert.Equal(t, "this page is broken", fb.Text)
	assert.NotEmpty(t, fb.Details)
}

func TestConfirmFeedbackSwallowsSubmissionError(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.feedback.err = errors.New("admin backend down")
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "I love this tool, landing two interviews already, thank you so much")
	require.NoError(t, err)

	reply, err := h.session.ConfirmFeedback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, feedbackConfirmedAck, reply.Message)
}

func TestDeclineFeedbackDiscards(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	_, err := h.session.SubmitMessage(context.Background(), "it would be nice to export my pipeline to a spreadsheet somehow")
	require.NoError(t, err)

	reply, err := h.session.DeclineFeedback()
	require.NoError(t, err)
	assert.Equal(t, StateOpenIdle, reply.State)
	assert.Equal(t, feedbackDeclinedAck, reply.Message)
	assert.Empty(t, h.feedback.submitted)

	// The flow is fully reset: a regular question now reaches the backend.
	_, err = h.session.SubmitMessage(context.Background(), "what should I do next?")
	require.NoError(t, err)
	assert.Len(t, h.chat.requests, 1)
}

func TestConfirmWithoutPendingFeedbackFails(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, seedProfile)
	h.session.Open()

	_, err := h.session.ConfirmFeedback(context.Background())
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeNoPendingFeedback, commonerrors.CodeOf(err))

	_, err = h.session.DeclineFeedback()
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeNoPendingFeedback, commonerrors.CodeOf(err))
}

func TestWelcomeFlowForNewVisitor(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, nil)

	assert.Equal(t, StateWelcomeActive, h.session.State())
	assert.Equal(t, models.WelcomeProactive, h.session.WelcomeState())

	content := h.session.WelcomeContent()
	require.NotNil(t, content)
	assert.NotEmpty(t, content.Title)

	// Messages are rejected while the modal is up.
	_, err := h.session.SubmitMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidTransition, commonerrors.CodeOf(err))
}

func TestWelcomeAckPrimaryOpensDrawerAndPersistsSeen(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, nil)

	reply, err := h.session.AcknowledgeWelcome(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, StateOpenIdle, reply.State)

	var seen bool
	require.True(t, h.mirror.Get(context.Background(), storage.KeyWelcomeSeen, &seen))
	assert.True(t, seen)

	// A second ack is invalid; the flow only runs once.
	_, err = h.session.AcknowledgeWelcome(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeWelcomeNotActive, commonerrors.CodeOf(err))
}

func TestWelcomeAckSecondaryLeavesDrawerClosed(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, nil)

	reply, err := h.session.AcknowledgeWelcome(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, reply.State)
}

func TestWelcomeBackRequiresElapsedTime(t *testing.T) {
	fresh := func(m *storage.Mirror) {
		m.Set(context.Background(), storage.KeyUserProfile, models.UserProfile{
			Name:     "Dana",
			SignupAt: time.Now().Add(-30 * time.Minute).Format(time.RFC3339),
		})
		m.Set(context.Background(), storage.KeyWelcomeSeen, true)
	}
	h := newHarness(t, Params{Page: "/dashboard", NewSession: true}, fresh)
	assert.NotEqual(t, models.WelcomeBack, h.session.WelcomeState())

	aged := func(m *storage.Mirror) {
		m.Set(context.Background(), storage.KeyUserProfile, models.UserProfile{
			Name:     "Dana",
			SignupAt: time.Now().Add(-3 * time.Hour).Format(time.RFC3339),
		})
		m.Set(context.Background(), storage.KeyWelcomeSeen, true)
	}
	h2 := newHarness(t, Params{Page: "/dashboard", NewSession: true}, aged)
	assert.Equal(t, models.WelcomeBack, h2.session.WelcomeState())
}

func TestFirstActionPromptClearsSetupFlag(t *testing.T) {
	h := newHarness(t, Params{Page: "/dashboard"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyCameFromProfileSetup, true)
		m.Remove(context.Background(), storage.KeyWelcomeSeen)
	})

	assert.Equal(t, models.WelcomeFirstAction, h.session.WelcomeState())

	_, err := h.session.AcknowledgeWelcome(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, h.mirror.Has(context.Background(), storage.KeyCameFromProfileSetup))
}

func TestPipelineSummaryReadsStoredApplications(t *testing.T) {
	h := newHarness(t, Params{Page: "/pipeline"}, func(m *storage.Mirror) {
		seedProfile(m)
		m.Set(context.Background(), storage.KeyTrackedApplications, []models.TrackedApplication{
			{Company: "Initech", Status: "Technical Round"},
			{Company: "Globex", Status: "Rejected"},
		})
	})

	summary := h.session.PipelineSummary(context.Background())
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Interviewing)
	assert.Equal(t, 1, summary.Rejected)
}

func TestGreetingMatchesPage(t *testing.T) {
	h := newHarness(t, Params{Page: "/resume"}, seedProfile)
	assert.Equal(t, pageGreetings["resume"], h.session.Greeting())

	h2 := newHarness(t, Params{Page: "/some-unknown-page"}, seedProfile)
	assert.Equal(t, defaultGreeting, h2.session.Greeting())
}
