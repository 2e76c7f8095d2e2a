// Package chatstore defines the persistence boundary for chats and their
// transcripts.
package chatstore

import (
	"context"

	"github.com/tripmind/assistant/internal/domain/models"
)

// DefaultListLimit caps ListChats when no limit is given.
const DefaultListLimit = 50

// ListChatsOptions contains options for listing chats.
type ListChatsOptions struct {
	UserID string
	Limit  int64
}

// Store persists chats and their messages.
//
// Lookups of a missing chat return a domain NotFound error. Writes to a
// missing chat are not errors for AppendMessage, which creates the message
// regardless, but are for UpdateTitle and UpdateSessionID.
type Store interface {
	// CreateChat inserts a new chat. ID, CreatedAt and UpdatedAt are filled
	// in when empty.
	CreateChat(ctx context.Context, chat *models.Chat) error

	// GetChat retrieves a chat by ID.
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)

	// AppendMessage stores a message, replacing one with the same ID, and
	// moves the chat's preview and updatedAt forward.
	AppendMessage(ctx context.Context, msg *models.StoredMessage) error

	// UpdateTitle renames a chat.
	UpdateTitle(ctx context.Context, chatID, title string) error

	// UpdateSessionID records the backend session of a chat.
	UpdateSessionID(ctx context.Context, chatID, sessionID string) error

	// LoadMessages returns the transcript of a chat, oldest first.
	LoadMessages(ctx context.Context, chatID string) ([]*models.StoredMessage, error)

	// DeleteChat removes a chat and its messages.
	DeleteChat(ctx context.Context, chatID string) error

	// ListChats returns a user's chats, most recently updated first.
	ListChats(ctx context.Context, opts *ListChatsOptions) ([]*models.Chat, error)

	// Ping verifies the store connection.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close(ctx context.Context) error
}

// EffectiveLimit returns the list limit of o, defaulting when unset.
func (o *ListChatsOptions) EffectiveLimit() int64 {
	if o == nil || o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Preview is the chat list preview of a message's content.
func Preview(content string) string {
	const max = 120
	r := []rune(content)
	if len(r) <= max {
		return content
	}
	return string(r[:max-1]) + "…"
}
