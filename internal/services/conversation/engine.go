package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripmind/assistant/internal/api/sse"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
	"github.com/tripmind/assistant/internal/services/chatapi"
	"github.com/tripmind/assistant/internal/services/demo"
)

var (
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrTurnInFlight is returned while a turn is running.
	ErrTurnInFlight = errors.New("a reply is still in progress")
	// ErrWidgetHandled is returned when submitting to an inert widget.
	ErrWidgetHandled = errors.New("widget was already answered")
	// ErrTurnFailed wraps the message of a turn that ended with an error event.
	ErrTurnFailed = errors.New("turn failed")
)

// ChatAPI streams replies from the chat backend.
type ChatAPI interface {
	StreamChat(ctx context.Context, req *chatapi.ChatRequest, token string, h sse.Handlers) error
}

// SessionCreator completes the session of a conversation: the chat record and,
// when live is set, the backend session.
type SessionCreator interface {
	EnsureSession(ctx context.Context, current models.Session, live bool) (models.Session, error)
}

// History persists the transcript. Writes are fire and forget.
type History interface {
	AppendMessage(chatID string, msg models.Message)
	UpdateTitle(chatID, title string)
	UpdateSessionID(chatID, sessionID string)
	Load(ctx context.Context, chatID string) (*models.Chat, []models.Message, error)
}

// Config holds the configuration for an Engine.
type Config struct {
	// ChatAPI serves live replies. Without it every message goes to the demo.
	ChatAPI  ChatAPI
	Sessions SessionCreator
	History  History

	// Demo is the engine's demo flow; a fresh one is created when nil.
	Demo *demo.Flow
	// DemoMode sends every message to the demo flow.
	DemoMode bool
	// Pacing scales demo playback delays. Zero plays instantly.
	Pacing demo.Pacing

	AuthToken string
	// StreamTimeout bounds a live reply; zero means no bound.
	StreamTimeout time.Duration

	Logger *zerolog.Logger
	// OnChange receives a copy of the state after every change. It is called
	// from the engine's goroutines and must not call back into the engine.
	OnChange func(State)
}

// Engine runs a conversation, one turn at a time.
type Engine struct {
	chatAPI       ChatAPI
	sessions      SessionCreator
	history       History
	flow          *demo.Flow
	simulator     *demo.Simulator
	demoMode      bool
	authToken     string
	streamTimeout time.Duration
	logger        zerolog.Logger
	onChange      func(State)

	mu     sync.Mutex
	state  State
	turn   *Turn
	turnID uint64

	notifyMu sync.Mutex
}

// NewEngine creates an engine.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	flow := cfg.Demo
	if flow == nil {
		flow = demo.NewFlow(nil)
	}

	return &Engine{
		chatAPI:       cfg.ChatAPI,
		sessions:      cfg.Sessions,
		history:       cfg.History,
		flow:          flow,
		simulator:     demo.NewSimulator(cfg.Pacing),
		demoMode:      cfg.DemoMode,
		authToken:     cfg.AuthToken,
		streamTimeout: cfg.StreamTimeout,
		logger:        logger.With().Str("component", "conversation").Logger(),
		onChange:      cfg.OnChange,
		state:         State{Title: models.DefaultChatTitle},
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Busy reports whether a turn is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turn != nil
}

// Send starts a turn answering content. The loading flag is set before Send
// returns. The session is ensured synchronously; if that fails nothing is
// added to the transcript and the error is returned. The reply itself runs in
// the background and is observed through the returned Turn and OnChange.
func (e *Engine) Send(ctx context.Context, content string) (*Turn, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	e.mu.Lock()
	if e.turn != nil {
		e.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	e.turnID++
	turnCtx, cancel := context.WithCancel(ctx)
	t := newTurn(turnCtx, cancel, e.turnID)
	e.turn = t
	Reduce(&e.state, SetLoading{Loading: true})
	Reduce(&e.state, MarkUIHandled{})
	current := models.Session{ChatID: e.state.ChatID, BackendSessionID: e.state.SessionID}
	e.mu.Unlock()
	e.notify()

	live := e.routeLive(content)

	session, err := e.ensureSession(turnCtx, current, live)
	if err == nil {
		err = turnCtx.Err()
	}
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to start conversation session")
		e.abort(t, err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	user := models.NewUserMessage(content)
	placeholder := models.NewAssistantPlaceholder()
	t.MessageID = placeholder.ID

	e.mu.Lock()
	e.state.ChatID = session.ChatID
	e.state.SessionID = session.BackendSessionID
	Reduce(&e.state, AppendMessage{Message: *user})
	Reduce(&e.state, AppendMessage{Message: *placeholder})
	e.mu.Unlock()
	e.notify()

	if e.history != nil {
		e.history.AppendMessage(session.ChatID, *user)
	}

	if live {
		go e.runLive(t, content, session)
	} else {
		go e.runDemo(t, content)
	}
	return t, nil
}

// SubmitWidget answers the open widget of message messageID with value and
// sends the synthesized message.
func (e *Engine) SubmitWidget(ctx context.Context, messageID string, value interface{}) (*Turn, error) {
	e.mu.Lock()
	msg := e.state.Message(messageID)
	if msg == nil {
		e.mu.Unlock()
		return nil, domainerrors.NewNotFoundError("message", messageID)
	}
	if msg.UIHandled {
		e.mu.Unlock()
		return nil, ErrWidgetHandled
	}
	component := msg.InteractiveComponent().Clone()
	e.mu.Unlock()

	if component == nil {
		return nil, sdui.ErrNotInteractive
	}

	text, err := sdui.FormatSubmission(component, value)
	if err != nil {
		return nil, err
	}
	return e.Send(ctx, text)
}

// MarkUIHandled makes every widget inert. Calling it again changes nothing.
func (e *Engine) MarkUIHandled() {
	e.mu.Lock()
	open := false
	for i := range e.state.Messages {
		if e.state.Messages[i].HasOpenUI() {
			open = true
			break
		}
	}
	if open {
		Reduce(&e.state, MarkUIHandled{})
	}
	e.mu.Unlock()

	if open {
		e.notify()
	}
}

// Cancel stops the turn in flight, if any.
func (e *Engine) Cancel() {
	e.mu.Lock()
	t := e.turn
	e.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

// LoadChat replaces the transcript with a stored chat. It refuses while a
// turn is in flight so a running reply is never overwritten.
func (e *Engine) LoadChat(ctx context.Context, chatID string) error {
	if e.history == nil {
		return domainerrors.NewServiceUnavailableError("chat history", nil)
	}
	if e.Busy() {
		return ErrTurnInFlight
	}

	chat, messages, err := e.history.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}

	// The newest assistant widget can still be answered.
	if n := len(messages); n > 0 && messages[n-1].Role == models.RoleAssistant {
		messages[n-1].UIHandled = false
	}

	e.mu.Lock()
	if e.turn != nil {
		e.mu.Unlock()
		return ErrTurnInFlight
	}
	Reduce(&e.state, ReplaceMessages{Messages: messages})
	Reduce(&e.state, SetTasks{})
	Reduce(&e.state, SetThinking{})
	e.state.ChatID = chat.ID
	e.state.SessionID = chat.SessionID
	e.state.Title = chat.Title
	e.mu.Unlock()

	e.flow.Reset()
	e.notify()
	return nil
}

// NewChat clears the conversation, its session and the demo flow.
func (e *Engine) NewChat() error {
	e.mu.Lock()
	if e.turn != nil {
		e.mu.Unlock()
		return ErrTurnInFlight
	}
	e.state = State{Title: models.DefaultChatTitle}
	e.mu.Unlock()

	e.flow.Reset()
	e.notify()
	return nil
}

func (e *Engine) routeLive(content string) bool {
	if e.chatAPI == nil || e.demoMode {
		return false
	}
	return !e.flow.MatchesDestination(content) && !e.flow.InFlow()
}

func (e *Engine) ensureSession(ctx context.Context, current models.Session, live bool) (models.Session, error) {
	if e.sessions != nil && (current.ChatID == "" || (live && current.BackendSessionID == "")) {
		return e.sessions.EnsureSession(ctx, current, live)
	}
	if current.ChatID == "" {
		current.ChatID = uuid.New().String()
	}
	return current, nil
}

// dispatch applies actions for turn t. It does nothing once t is no longer
// the current turn or has been cancelled, so late callbacks are dropped.
func (e *Engine) dispatch(t *Turn, actions ...Action) bool {
	e.mu.Lock()
	if e.turn != t || t.ctx.Err() != nil {
		e.mu.Unlock()
		return false
	}
	for _, a := range actions {
		Reduce(&e.state, a)
	}
	e.mu.Unlock()

	e.notify()
	return true
}

// outcome is how a turn ended.
type outcome struct {
	actions   []Action
	sessionID string
	title     string
	err       error
}

// finish ends turn t: applies the outcome unless t was cancelled, finalizes
// the placeholder with whatever it holds, clears the plan and the thinking
// line, releases the in-flight marker and persists the reply.
func (e *Engine) finish(t *Turn, out outcome) {
	cancelled := t.ctx.Err() != nil

	e.mu.Lock()
	if e.turn != t {
		e.mu.Unlock()
		return
	}
	if !cancelled {
		for _, a := range out.actions {
			Reduce(&e.state, a)
		}
	}
	Reduce(&e.state, Finalize{MessageID: t.MessageID})
	Reduce(&e.state, SetThinking{})
	Reduce(&e.state, SetTasks{})
	Reduce(&e.state, SetLoading{Loading: false})

	chatID := e.state.ChatID
	var sessionChanged, titleChanged bool
	if !cancelled && out.sessionID != "" && out.sessionID != e.state.SessionID {
		e.state.SessionID = out.sessionID
		sessionChanged = true
	}
	if !cancelled && out.title != "" && out.title != e.state.Title {
		e.state.Title = out.title
		titleChanged = true
	}

	var reply *models.Message
	if m := e.state.Message(t.MessageID); m != nil {
		clone := m.Clone()
		reply = &clone
	}
	e.turn = nil
	e.mu.Unlock()

	t.cancel()

	if e.history != nil {
		if reply != nil {
			e.history.AppendMessage(chatID, *reply)
		}
		if sessionChanged {
			e.history.UpdateSessionID(chatID, out.sessionID)
		}
		if titleChanged {
			e.history.UpdateTitle(chatID, out.title)
		}
	}

	e.notify()

	err := out.err
	if cancelled && err == nil {
		err = context.Canceled
	}
	t.complete(err)
}

// abort releases a turn that failed before anything was appended.
func (e *Engine) abort(t *Turn, err error) {
	e.mu.Lock()
	if e.turn == t {
		e.turn = nil
		Reduce(&e.state, SetLoading{Loading: false})
	}
	e.mu.Unlock()

	t.cancel()
	e.notify()
	t.complete(err)
}

func (e *Engine) notify() {
	if e.onChange == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.onChange(e.Snapshot())
}
