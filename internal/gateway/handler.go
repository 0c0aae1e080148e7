// Package gateway exposes the widget session engine over HTTP. Routes are
// the gateway's own surface and therefore schema-validated; everything beyond
// them talks to upstream services through the clients in internal/assistant,
// internal/refine, internal/strengthen and internal/admin.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	commonerrors "henry-gateway/internal/common/errors"
	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/common/observability"
	"henry-gateway/internal/models"
	"henry-gateway/internal/pipeline"
	"henry-gateway/internal/session"
	"henry-gateway/internal/storage"
)

// StrengthenBackend proxies the bullet-audit endpoints.
type StrengthenBackend interface {
	Questions(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
	Apply(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// AdminBackend proxies the feedback panel endpoints.
type AdminBackend interface {
	Notifications(ctx context.Context, userEmail string) ([]models.AdminNotification, error)
	MarkRead(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) error
	Reply(ctx context.Context, id, message string) error
}

// Handler owns the widget routes.
type Handler struct {
	registry   *session.Registry
	primary    storage.Tier
	backup     storage.Tier
	chat       session.ChatBackend
	refiner    session.DocumentRefiner
	feedback   session.FeedbackSink
	strengthen StrengthenBackend
	admin      AdminBackend
	aggregator *pipeline.Aggregator
	obs        *observability.Observability
	settings   session.Settings
	logger     logger.Logger
}

// Deps wires the handler's collaborators.
type Deps struct {
	Registry   *session.Registry
	Primary    storage.Tier
	Backup     storage.Tier
	Chat       session.ChatBackend
	Refiner    session.DocumentRefiner
	Feedback   session.FeedbackSink
	Strengthen StrengthenBackend
	Admin      AdminBackend
	Aggregator *pipeline.Aggregator
	Obs        *observability.Observability
	Settings   session.Settings
	Logger     logger.Logger
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		registry:   deps.Registry,
		primary:    deps.Primary,
		backup:     deps.Backup,
		chat:       deps.Chat,
		refiner:    deps.Refiner,
		feedback:   deps.Feedback,
		strengthen: deps.Strengthen,
		admin:      deps.Admin,
		aggregator: deps.Aggregator,
		obs:        deps.Obs,
		settings:   deps.Settings,
		logger: deps.Logger.With(map[string]interface{}{
			"component": "gateway",
		}),
	}
}

// RegisterRoutes mounts the widget API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/widget", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/open", h.OpenDrawer)
			r.Post("/close", h.CloseDrawer)
			r.Post("/messages", h.SubmitMessage)
			r.Post("/feedback/confirm", h.ConfirmFeedback)
			r.Post("/feedback/decline", h.DeclineFeedback)
			r.Post("/welcome/ack", h.AcknowledgeWelcome)
			r.Get("/tooltip", h.GetTooltip)
		})
		r.Get("/pipeline/summary", h.PipelineSummary)
		r.Post("/strengthen/questions", h.StrengthenQuestions)
		r.Post("/strengthen/apply", h.StrengthenApply)
	})

	r.Route("/api/admin/notifications", func(r chi.Router) {
		r.Get("/", h.AdminNotifications)
		r.Post("/{id}/read", h.AdminMarkRead)
		r.Post("/{id}/resolve", h.AdminResolve)
		r.Post("/{id}/reply", h.AdminReply)
	})
}

// mirrorFor builds the two-tier mirror scoped to one widget instance.
func (h *Handler) mirrorFor(instanceKey string) *storage.Mirror {
	return storage.NewMirror(instanceKey, h.primary, h.backup, h.logger)
}

// sessionResponse is the envelope shared by every session-scoped route.
type sessionResponse struct {
	SessionID       string                  `json:"sessionId"`
	Reply           *session.Reply          `json:"reply"`
	Greeting        string                  `json:"greeting,omitempty"`
	WelcomeState    string                  `json:"welcomeState,omitempty"`
	WelcomeContent  interface{}             `json:"welcomeContent,omitempty"`
	PendingFeedback *models.PendingFeedback `json:"pendingFeedback,omitempty"`
}

func (h *Handler) respondSession(w http.ResponseWriter, status int, s *session.Session, reply *session.Reply) {
	resp := sessionResponse{
		SessionID:       s.ID,
		Reply:           reply,
		Greeting:        s.Greeting(),
		PendingFeedback: s.PendingFeedback(),
	}
	if content := s.WelcomeContent(); content != nil {
		resp.WelcomeState = string(s.WelcomeState())
		resp.WelcomeContent = content
	}
	JSON(w, status, resp)
}

// CreateSession starts a session for one page load.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "unreadable body")
		return
	}
	if result := createSessionSchema.ValidateBytes(body); !result.Valid {
		ValidationFailure(w, result)
		return
	}

	var req struct {
		Page        string `json:"page"`
		InstanceKey string `json:"instanceKey"`
		NewSession  bool   `json:"newSession"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "malformed JSON")
		return
	}

	s := session.New(r.Context(), session.Params{
		Page:        req.Page,
		InstanceKey: req.InstanceKey,
		NewSession:  req.NewSession,
	}, session.Deps{
		Mirror:     h.mirrorFor(req.InstanceKey),
		Chat:       h.chat,
		Refiner:    h.refiner,
		Feedback:   h.feedback,
		Aggregator: h.aggregator,
		Obs:        h.obs,
		Logger:     h.logger,
	}, h.settings)

	h.registry.Add(s)
	h.respondSession(w, http.StatusCreated, s, s.Snapshot())
}

func (h *Handler) withSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		ErrorFrom(w, err)
		return nil, false
	}
	return s, true
}

// GetSession returns the current snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	h.respondSession(w, http.StatusOK, s, s.Snapshot())
}

// DeleteSession tears a session down eagerly, ahead of the idle sweep.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.registry.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OpenDrawer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	h.respondSession(w, http.StatusOK, s, s.Open())
}

func (h *Handler) CloseDrawer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	h.respondSession(w, http.StatusOK, s, s.Close())
}

// SubmitMessage drives the dialogue state machine.
func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "unreadable body")
		return
	}
	if result := messageSchema.ValidateBytes(body); !result.Valid {
		ValidationFailure(w, result)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "malformed JSON")
		return
	}

	reply, err := s.SubmitMessage(r.Context(), req.Message)
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, s, reply)
}

func (h *Handler) ConfirmFeedback(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	reply, err := s.ConfirmFeedback(r.Context())
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, s, reply)
}

func (h *Handler) DeclineFeedback(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	reply, err := s.DeclineFeedback()
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, s, reply)
}

// AcknowledgeWelcome handles the modal CTA buttons.
func (h *Handler) AcknowledgeWelcome(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "unreadable body")
		return
	}
	if result := welcomeAckSchema.ValidateBytes(body); !result.Valid {
		ValidationFailure(w, result)
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "malformed JSON")
		return
	}

	reply, err := s.AcknowledgeWelcome(r.Context(), req.Action == "primary")
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, s, reply)
}

// GetTooltip returns the currently visible tip, if any. Polled by the client.
func (h *Handler) GetTooltip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	tip := s.CurrentTooltip()
	JSON(w, http.StatusOK, map[string]interface{}{
		"tooltip": tip,
	})
}

// PipelineSummary recomputes the dashboard metrics for one instance, straight
// from the storage mirror; no session required.
func (h *Handler) PipelineSummary(w http.ResponseWriter, r *http.Request) {
	instanceKey := r.URL.Query().Get("instanceKey")
	if instanceKey == "" {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "instanceKey query parameter is required")
		return
	}

	mirror := h.mirrorFor(instanceKey)
	var apps []models.TrackedApplication
	mirror.Get(r.Context(), storage.KeyTrackedApplications, &apps)

	JSON(w, http.StatusOK, h.aggregator.Summarize(apps))
}

func (h *Handler) StrengthenQuestions(w http.ResponseWriter, r *http.Request) {
	h.strengthenProxy(w, r, h.strengthen.Questions)
}

func (h *Handler) StrengthenApply(w http.ResponseWriter, r *http.Request) {
	h.strengthenProxy(w, r, h.strengthen.Apply)
}

func (h *Handler) strengthenProxy(w http.ResponseWriter, r *http.Request, call func(context.Context, json.RawMessage) (json.RawMessage, error)) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "unreadable body")
		return
	}
	if result := strengthenSchema.ValidateBytes(body); !result.Valid {
		ValidationFailure(w, result)
		return
	}

	resp, err := call(r.Context(), body)
	if err != nil {
		ErrorFrom(w, commonerrors.Wrap(commonerrors.ErrCodeStrengthenFailed, "strengthen backend failed", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

// AdminNotifications lists a user's feedback notifications. Backend failure
// degrades to an empty list; the panel renders, it just shows nothing.
func (h *Handler) AdminNotifications(w http.ResponseWriter, r *http.Request) {
	userEmail := r.URL.Query().Get("user_email")
	if userEmail == "" {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "user_email query parameter is required")
		return
	}

	notifications, err := h.admin.Notifications(r.Context(), userEmail)
	if err != nil {
		h.logger.Warn("admin notifications fetch failed", map[string]interface{}{
			"error": err.Error(),
		})
		notifications = nil
	}
	if notifications == nil {
		notifications = []models.AdminNotification{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

func (h *Handler) AdminMarkRead(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.admin.MarkRead)
}

func (h *Handler) AdminResolve(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.admin.Resolve)
}

func (h *Handler) adminAction(w http.ResponseWriter, r *http.Request, call func(context.Context, string) error) {
	if err := call(r.Context(), chi.URLParam(r, "id")); err != nil {
		ErrorFrom(w, commonerrors.Wrap(commonerrors.ErrCodeAdminAPIFailed, "admin backend failed", err))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (h *Handler) AdminReply(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "unreadable body")
		return
	}
	if result := adminReplySchema.ValidateBytes(body); !result.Valid {
		ValidationFailure(w, result)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, commonerrors.ErrCodeInvalidRequest, "malformed JSON")
		return
	}

	if err := h.admin.Reply(r.Context(), chi.URLParam(r, "id"), req.Message); err != nil {
		ErrorFrom(w, commonerrors.Wrap(commonerrors.ErrCodeAdminAPIFailed, "admin backend failed", err))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
