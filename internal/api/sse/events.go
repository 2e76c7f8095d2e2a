// Package sse implements the chat streaming protocol: newline-delimited,
// "data: " prefixed JSON events over a chunked HTTP response body.
package sse

import (
	"encoding/json"

	"github.com/tripmind/assistant/internal/domain/models"
)

// DataPrefix tags every event line.
const DataPrefix = "data: "

// EventType discriminates stream events.
type EventType string

const (
	// EventToken appends text to the reply.
	EventToken EventType = "token"
	// EventThinking reports what the agent is doing.
	EventThinking EventType = "thinking"
	// EventPlan announces the task list of the turn.
	EventPlan EventType = "plan"
	// EventTaskStart marks a task in progress.
	EventTaskStart EventType = "task_start"
	// EventTaskComplete marks a task completed.
	EventTaskComplete EventType = "task_complete"
	// EventDone ends the turn successfully.
	EventDone EventType = "done"
	// EventError ends the turn with a failure.
	EventError EventType = "error"
)

// Terminal reports whether the event ends a turn.
func (t EventType) Terminal() bool {
	return t == EventDone || t == EventError
}

func (t EventType) known() bool {
	switch t {
	case EventToken, EventThinking, EventPlan, EventTaskStart, EventTaskComplete, EventDone, EventError:
		return true
	}
	return false
}

// Event is a decoded stream event. Only the fields of its type are set.
type Event struct {
	Type EventType `json:"type"`

	// token
	Text string `json:"text,omitempty"`

	// thinking, error
	Message string `json:"message,omitempty"`
	Tool    string `json:"tool,omitempty"`

	// plan
	Tasks []models.TaskItem `json:"tasks,omitempty"`

	// task_start, task_complete
	TaskID string `json:"taskId,omitempty"`
	Label  string `json:"label,omitempty"`

	// done
	SessionID                   string            `json:"session_id,omitempty"`
	ChatTitle                   string            `json:"chat_title,omitempty"`
	UI                          json.RawMessage   `json:"ui,omitempty"`
	UIComponents                []json.RawMessage `json:"ui_components,omitempty"`
	Response                    string            `json:"response,omitempty"`
	UserPreferencesIntroduction string            `json:"user_preferences_introduction,omitempty"`
}

// Handlers receives dispatched events. Nil callbacks are skipped.
type Handlers struct {
	OnToken        func(text string)
	OnThinking     func(message, tool string)
	OnPlan         func(tasks []models.TaskItem)
	OnTaskStart    func(taskID, label string)
	OnTaskComplete func(taskID string)
	OnDone         func(evt *Event)
	OnError        func(message string)
}

// Dispatch routes evt to its callback.
func (h Handlers) Dispatch(evt *Event) {
	switch evt.Type {
	case EventToken:
		if h.OnToken != nil {
			h.OnToken(evt.Text)
		}
	case EventThinking:
		if h.OnThinking != nil {
			h.OnThinking(evt.Message, evt.Tool)
		}
	case EventPlan:
		if h.OnPlan != nil {
			h.OnPlan(evt.Tasks)
		}
	case EventTaskStart:
		if h.OnTaskStart != nil {
			h.OnTaskStart(evt.TaskID, evt.Label)
		}
	case EventTaskComplete:
		if h.OnTaskComplete != nil {
			h.OnTaskComplete(evt.TaskID)
		}
	case EventDone:
		if h.OnDone != nil {
			h.OnDone(evt)
		}
	case EventError:
		if h.OnError != nil {
			h.OnError(evt.Message)
		}
	}
}
