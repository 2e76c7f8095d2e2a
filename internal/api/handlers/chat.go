package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tripmind/assistant/internal/api/dto"
	"github.com/tripmind/assistant/internal/api/middleware"
	"github.com/tripmind/assistant/internal/api/sse"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
	"github.com/tripmind/assistant/internal/services/demo"
	"github.com/tripmind/assistant/internal/services/session"
)

// ChatConfig holds the dependencies of a ChatHandler.
type ChatConfig struct {
	Sessions session.Service
	// Catalog defaults to the built-in destinations.
	Catalog *demo.Catalog
	// Pacing scales the scripted delays; zero streams instantly.
	Pacing demo.Pacing
	// Now defaults to time.Now.
	Now func() time.Time
}

// ChatHandler streams assistant replies. Replies come from the scripted trip
// planner, one flow per backend session, with the flow state kept in the
// session between requests.
type ChatHandler struct {
	sessions  session.Service
	catalog   *demo.Catalog
	now       func() time.Time
	simulator *demo.Simulator
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(cfg *ChatConfig) *ChatHandler {
	h := &ChatHandler{
		sessions:  cfg.Sessions,
		catalog:   cfg.Catalog,
		now:       cfg.Now,
		simulator: demo.NewSimulator(cfg.Pacing),
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Stream handles POST /chat/stream.
// @Summary Stream a reply
// @Description Answers a message as data-prefixed JSON events: token, thinking, plan, task_start, task_complete and a final done or error
// @Tags Chat
// @Accept json
// @Produce text/event-stream
// @Param request body dto.ChatStreamRequest true "Message and optional session id"
// @Success 200 {string} string "Event stream"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /chat/stream [post]
func (h *ChatHandler) Stream(c *gin.Context) {
	var req dto.ChatStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	logger := middleware.GetRequestLogger(c)

	sess, err := h.loadSession(ctx, logger, middleware.GetUserID(c), req.SessionID)
	if err != nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("session store", err))
		return
	}

	flow := demo.NewFlow(&demo.FlowConfig{Catalog: h.catalog, Now: h.now, State: sess.Demo})
	res := flow.Process(req.Message)
	if !res.Handled {
		res = flow.Fallback()
		flow.Reset()
	}
	if res.Title != "" {
		sess.Title = res.Title
	}

	w, err := sse.NewWriter(c.Writer)
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("streaming not supported", err))
		return
	}
	c.Status(http.StatusOK)

	sink := &eventSink{writer: w}
	if err := h.simulator.Play(ctx, &res, sink); err != nil {
		logger.Info().Err(err).Str("session_id", sess.SessionID).Msg("client left before the reply finished")
		return
	}
	if sink.err != nil {
		logger.Warn().Err(sink.err).Str("session_id", sess.SessionID).Msg("failed to stream reply")
		return
	}

	done, err := doneEvent(sess, res.Text, sink.components)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build done event")
		_ = w.WriteError("failed to build the reply")
		return
	}

	// The state is saved before the turn ends so the next message sees it.
	sess.Demo = flow.State()
	if err := h.sessions.Save(ctx, sess); err != nil {
		logger.Error().Err(err).Str("session_id", sess.SessionID).Msg("failed to save session")
		_ = w.WriteError("failed to save the conversation")
		return
	}

	if err := w.WriteDone(done); err != nil {
		logger.Warn().Err(err).Msg("failed to write done event")
	}
}

// loadSession returns the caller's session, or a new one when sessionID is
// empty, unknown or expired.
func (h *ChatHandler) loadSession(ctx context.Context, logger *zerolog.Logger, userID, sessionID string) (*session.SessionData, error) {
	if sessionID != "" {
		sess, err := h.sessions.Get(ctx, userID, sessionID)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
		logger.Debug().Str("session_id", sessionID).Msg("session not found, starting a new one")
	}
	return h.sessions.Create(ctx, userID)
}

// doneEvent carries a single widget as ui and several as ui_components.
func doneEvent(sess *session.SessionData, text string, components []sdui.Component) (*sse.Event, error) {
	evt := &sse.Event{
		SessionID: sess.SessionID,
		ChatTitle: sess.Title,
		Response:  text,
	}

	switch len(components) {
	case 0:
	case 1:
		raw, err := json.Marshal(components[0])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ui: %w", err)
		}
		evt.UI = raw
	default:
		evt.UIComponents = make([]json.RawMessage, 0, len(components))
		for i := range components {
			raw, err := json.Marshal(components[i])
			if err != nil {
				return nil, fmt.Errorf("failed to marshal ui component %d: %w", i, err)
			}
			evt.UIComponents = append(evt.UIComponents, raw)
		}
	}
	return evt, nil
}

// eventSink writes a playback as stream events. Components are held back
// for the done event. After a failed write everything is dropped.
type eventSink struct {
	writer     *sse.Writer
	components []sdui.Component
	err        error
}

func (s *eventSink) write(fn func() error) {
	if s.err == nil {
		s.err = fn()
	}
}

func (s *eventSink) Thinking(message, tool string) {
	s.write(func() error { return s.writer.WriteThinking(message, tool) })
}

func (s *eventSink) Token(text string) {
	s.write(func() error { return s.writer.WriteToken(text) })
}

func (s *eventSink) Plan(tasks []models.TaskItem) {
	s.write(func() error { return s.writer.WritePlan(tasks) })
}

func (s *eventSink) TaskStart(taskID, label string) {
	s.write(func() error { return s.writer.WriteTaskStart(taskID, label) })
}

func (s *eventSink) TaskComplete(taskID string) {
	s.write(func() error { return s.writer.WriteTaskComplete(taskID) })
}

func (s *eventSink) Component(c sdui.Component) {
	s.components = append(s.components, c)
}
