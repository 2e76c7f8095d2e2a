// Package models contains domain models for the trip assistant.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripmind/assistant/internal/sdui"
)

// MessageRole represents the author of a message.
type MessageRole string

const (
	// RoleUser represents a message typed or synthesized on behalf of the user.
	RoleUser MessageRole = "user"
	// RoleAssistant represents a reply from the assistant.
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry of the visible transcript.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// UI is a single attached widget.
	UI *sdui.Component `json:"ui,omitempty"`
	// UIComponents are revealed progressively, in order.
	UIComponents []sdui.Component `json:"ui_components,omitempty"`

	// IsStreaming is true while content is still being appended.
	IsStreaming bool `json:"isStreaming"`
	// UIHandled is true once the attached widgets were answered or superseded.
	UIHandled bool `json:"uiHandled"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssistantPlaceholder creates the empty streaming message a reply fills in.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:          uuid.New().String(),
		Role:        RoleAssistant,
		Timestamp:   time.Now().UTC(),
		IsStreaming: true,
	}
}

// HasUI reports whether any widget is attached.
func (m *Message) HasUI() bool {
	return m.UI != nil || len(m.UIComponents) > 0
}

// HasOpenUI reports whether the message still offers an interactive widget.
func (m *Message) HasOpenUI() bool {
	return m.HasUI() && !m.UIHandled
}

// InteractiveComponent returns the widget a submission answers: the single UI
// if it is interactive, otherwise the last interactive progressive component.
func (m *Message) InteractiveComponent() *sdui.Component {
	if m.UI != nil && m.UI.Type.Interactive() {
		return m.UI
	}
	for i := len(m.UIComponents) - 1; i >= 0; i-- {
		if m.UIComponents[i].Type.Interactive() {
			return &m.UIComponents[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	out.UI = m.UI.Clone()
	out.UIComponents = sdui.CloneComponents(m.UIComponents)
	return out
}

// ToStored converts the message into its persisted shape.
func (m *Message) ToStored(chatID string) *StoredMessage {
	return &StoredMessage{
		ID:           m.ID,
		ChatID:       chatID,
		Role:         m.Role,
		Content:      m.Content,
		UI:           m.UI.Clone(),
		UIComponents: sdui.CloneComponents(m.UIComponents),
		Timestamp:    m.Timestamp,
	}
}
