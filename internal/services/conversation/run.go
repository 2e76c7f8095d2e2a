package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tripmind/assistant/internal/api/sse"
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
	"github.com/tripmind/assistant/internal/services/chatapi"
	"github.com/tripmind/assistant/internal/services/demo"
)

// runLive streams the reply from the chat backend into t's placeholder.
func (e *Engine) runLive(t *Turn, content string, session models.Session) {
	ctx := t.ctx
	if e.streamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.streamTimeout)
		defer cancel()
	}

	var text strings.Builder
	var done *sse.Event
	var failure *string

	h := sse.Handlers{
		OnToken: func(s string) {
			text.WriteString(s)
			e.dispatch(t, SetThinking{}, UpdateContent{MessageID: t.MessageID, Content: text.String()})
		},
		OnThinking: func(message, tool string) {
			e.dispatch(t, SetThinking{Thinking: &models.ThinkingState{Message: message, Tool: tool}})
		},
		OnPlan: func(tasks []models.TaskItem) {
			e.dispatch(t, SetTasks{Tasks: tasks})
		},
		OnTaskStart: func(taskID, label string) {
			e.dispatch(t, SetTaskStatus{TaskID: taskID, Status: models.TaskStatusInProgress})
		},
		OnTaskComplete: func(taskID string) {
			e.dispatch(t, SetTaskStatus{TaskID: taskID, Status: models.TaskStatusCompleted})
		},
		OnDone: func(evt *sse.Event) {
			done = evt
		},
		OnError: func(message string) {
			failure = &message
		},
	}

	err := e.chatAPI.StreamChat(ctx, &chatapi.ChatRequest{
		Message:   content,
		SessionID: session.BackendSessionID,
	}, e.authToken, h)

	switch {
	case done != nil:
		r := resolveDone(text.String(), done)
		actions := []Action{UpdateContent{MessageID: t.MessageID, Content: r.Text}}
		if r.UI != nil {
			actions = append(actions, AttachUI{MessageID: t.MessageID, UI: r.UI})
		}
		for _, c := range r.Components {
			actions = append(actions, AppendUIComponent{MessageID: t.MessageID, Component: c})
		}
		e.finish(t, outcome{
			actions:   actions,
			sessionID: done.SessionID,
			title:     done.ChatTitle,
		})

	case failure != nil:
		e.logger.Warn().Str("message", *failure).Uint64("turn", t.ID).Msg("reply failed")
		e.finish(t, outcome{
			actions: []Action{UpdateContent{MessageID: t.MessageID, Content: apology(*failure)}},
			err:     fmt.Errorf("%w: %s", ErrTurnFailed, *failure),
		})

	default:
		// Only cancellation ends a stream without a terminal callback.
		if err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn().Err(err).Uint64("turn", t.ID).Msg("reply ended without a result")
		}
		e.finish(t, outcome{err: err})
	}
}

// runDemo plays the demo flow's answer into t's placeholder. Outside the flow
// the demo offers its destinations and starts over.
func (e *Engine) runDemo(t *Turn, content string) {
	res := e.flow.Process(content)
	if !res.Handled {
		res = e.flow.Fallback()
		e.flow.Reset()
	}

	sink := &demoSink{engine: e, turn: t, progressive: len(res.Reveal) > 0}
	if err := e.simulator.Play(t.ctx, &res, sink); err != nil {
		e.finish(t, outcome{err: err})
		return
	}

	e.finish(t, outcome{
		actions: []Action{UpdateContent{MessageID: t.MessageID, Content: res.Text}},
		title:   res.Title,
	})
}

// demoSink applies demo playback events to a turn.
type demoSink struct {
	engine      *Engine
	turn        *Turn
	progressive bool
	text        strings.Builder
}

func (s *demoSink) Thinking(message, tool string) {
	s.engine.dispatch(s.turn, SetThinking{Thinking: &models.ThinkingState{Message: message, Tool: tool}})
}

func (s *demoSink) Token(text string) {
	s.text.WriteString(text)
	s.engine.dispatch(s.turn, SetThinking{}, UpdateContent{MessageID: s.turn.MessageID, Content: s.text.String()})
}

func (s *demoSink) Plan(tasks []models.TaskItem) {
	s.engine.dispatch(s.turn, SetTasks{Tasks: tasks})
}

func (s *demoSink) TaskStart(taskID, label string) {
	s.engine.dispatch(s.turn, SetTaskStatus{TaskID: taskID, Status: models.TaskStatusInProgress})
}

func (s *demoSink) TaskComplete(taskID string) {
	s.engine.dispatch(s.turn, SetTaskStatus{TaskID: taskID, Status: models.TaskStatusCompleted})
}

func (s *demoSink) Component(c sdui.Component) {
	if s.progressive {
		s.engine.dispatch(s.turn, AppendUIComponent{MessageID: s.turn.MessageID, Component: c})
		return
	}
	s.engine.dispatch(s.turn, AttachUI{MessageID: s.turn.MessageID, UI: &c})
}

var _ demo.Sink = (*demoSink)(nil)
