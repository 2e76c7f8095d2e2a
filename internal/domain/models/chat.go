package models

import (
	"time"

	"github.com/tripmind/assistant/internal/sdui"
)

// DefaultChatTitle is used until the backend names the chat.
const DefaultChatTitle = "New trip"

// Chat is a persisted conversation.
type Chat struct {
	ID          string    `json:"id" bson:"_id" firestore:"-"`
	UserID      string    `json:"userId" bson:"userId" firestore:"userId"`
	SessionID   string    `json:"sessionId,omitempty" bson:"sessionId,omitempty" firestore:"sessionId"`
	Title       string    `json:"title" bson:"title" firestore:"title"`
	LastMessage string    `json:"lastMessage,omitempty" bson:"lastMessage,omitempty" firestore:"lastMessage"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt" firestore:"updatedAt"`
}

// StoredMessage is a persisted transcript entry. Streaming and handled flags
// are view state and are not stored.
type StoredMessage struct {
	ID           string           `json:"id" bson:"_id" firestore:"-"`
	ChatID       string           `json:"chatId" bson:"chatId" firestore:"chatId"`
	Role         MessageRole      `json:"role" bson:"role" firestore:"role"`
	Content      string           `json:"content" bson:"content" firestore:"content"`
	UI           *sdui.Component  `json:"ui,omitempty" bson:"ui,omitempty" firestore:"ui,omitempty"`
	UIComponents []sdui.Component `json:"ui_components,omitempty" bson:"ui_components,omitempty" firestore:"ui_components,omitempty"`
	Timestamp    time.Time        `json:"timestamp" bson:"timestamp" firestore:"timestamp"`
	// Seq orders messages of a chat that share a timestamp.
	Seq int64 `json:"seq,omitempty" bson:"seq" firestore:"-"`
}

// ToMessage restores a transcript message. Restored widgets are inert: only
// a live turn can offer an open widget.
func (s *StoredMessage) ToMessage() Message {
	msg := Message{
		ID:           s.ID,
		Role:         s.Role,
		Content:      s.Content,
		Timestamp:    s.Timestamp,
		UI:           s.UI.Clone(),
		UIComponents: sdui.CloneComponents(s.UIComponents),
	}
	msg.UIHandled = msg.HasUI()
	return msg
}

// Session links the client-side chat record to the backend agent session.
type Session struct {
	ChatID           string `json:"chatId"`
	BackendSessionID string `json:"backendSessionId,omitempty"`
}
