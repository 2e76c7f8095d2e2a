// Package conversation implements the chat engine: it owns the transcript,
// runs one turn at a time against the chat backend or the demo flow, and
// publishes every state change.
package conversation

import (
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
)

// State is everything a view needs to draw the conversation.
type State struct {
	Messages  []models.Message
	Tasks     []models.TaskItem
	Thinking  *models.ThinkingState
	IsLoading bool

	ChatID    string
	SessionID string
	Title     string
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	if s.Messages != nil {
		out.Messages = make([]models.Message, len(s.Messages))
		for i := range s.Messages {
			out.Messages[i] = s.Messages[i].Clone()
		}
	}
	if s.Tasks != nil {
		out.Tasks = append([]models.TaskItem(nil), s.Tasks...)
	}
	if s.Thinking != nil {
		thinking := *s.Thinking
		out.Thinking = &thinking
	}
	return out
}

// Message returns the message with id.
func (s *State) Message(id string) *models.Message {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return &s.Messages[i]
		}
	}
	return nil
}

// LastMessage returns the newest message, or nil.
func (s *State) LastMessage() *models.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Action is a transcript mutation. The set is closed: every change to State
// goes through Reduce with one of the types below.
type Action interface {
	isAction()
}

// AppendMessage adds a message at the end of the transcript.
type AppendMessage struct{ Message models.Message }

// UpdateContent replaces the text of a message.
type UpdateContent struct {
	MessageID string
	Content   string
}

// AttachUI sets the single widget of a message.
type AttachUI struct {
	MessageID string
	UI        *sdui.Component
}

// AppendUIComponent reveals one more widget on a message.
type AppendUIComponent struct {
	MessageID string
	Component sdui.Component
}

// Finalize ends streaming of a message.
type Finalize struct{ MessageID string }

// MarkUIHandled makes every widget in the transcript inert.
type MarkUIHandled struct{}

// SetTasks replaces the plan. Tasks without a status become pending.
type SetTasks struct{ Tasks []models.TaskItem }

// SetTaskStatus moves one task of the plan.
type SetTaskStatus struct {
	TaskID string
	Status models.TaskStatus
}

// SetThinking sets or, with nil, clears the thinking line.
type SetThinking struct{ Thinking *models.ThinkingState }

// SetLoading sets the loading flag.
type SetLoading struct{ Loading bool }

// ReplaceMessages swaps the whole transcript.
type ReplaceMessages struct{ Messages []models.Message }

func (AppendMessage) isAction()     {}
func (UpdateContent) isAction()     {}
func (AttachUI) isAction()          {}
func (AppendUIComponent) isAction() {}
func (Finalize) isAction()          {}
func (MarkUIHandled) isAction()     {}
func (SetTasks) isAction()          {}
func (SetTaskStatus) isAction()     {}
func (SetThinking) isAction()       {}
func (SetLoading) isAction()        {}
func (ReplaceMessages) isAction()   {}

// Reduce applies action to state. Actions naming an unknown message or task
// are ignored. Components are copied on the way in so callers keep no alias
// into the state.
func Reduce(state *State, action Action) {
	switch a := action.(type) {
	case AppendMessage:
		state.Messages = append(state.Messages, a.Message.Clone())

	case UpdateContent:
		if m := state.Message(a.MessageID); m != nil {
			m.Content = a.Content
		}

	case AttachUI:
		if m := state.Message(a.MessageID); m != nil {
			m.UI = a.UI.Clone()
		}

	case AppendUIComponent:
		if m := state.Message(a.MessageID); m != nil {
			m.UIComponents = append(m.UIComponents, *a.Component.Clone())
		}

	case Finalize:
		if m := state.Message(a.MessageID); m != nil {
			m.IsStreaming = false
		}

	case MarkUIHandled:
		for i := range state.Messages {
			if state.Messages[i].HasUI() {
				state.Messages[i].UIHandled = true
			}
		}

	case SetTasks:
		if len(a.Tasks) == 0 {
			state.Tasks = nil
			return
		}
		tasks := make([]models.TaskItem, len(a.Tasks))
		for i, t := range a.Tasks {
			if t.Status == "" {
				t.Status = models.TaskStatusPending
			}
			tasks[i] = t
		}
		state.Tasks = tasks

	case SetTaskStatus:
		for i := range state.Tasks {
			if state.Tasks[i].ID == a.TaskID {
				state.Tasks[i].Status = a.Status
			}
		}

	case SetThinking:
		if a.Thinking == nil {
			state.Thinking = nil
			return
		}
		thinking := *a.Thinking
		state.Thinking = &thinking

	case SetLoading:
		state.IsLoading = a.Loading

	case ReplaceMessages:
		messages := make([]models.Message, len(a.Messages))
		for i := range a.Messages {
			messages[i] = a.Messages[i].Clone()
		}
		state.Messages = messages
	}
}
