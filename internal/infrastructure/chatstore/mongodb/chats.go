package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tripmind/assistant/internal/core/chatstore"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
	"github.com/tripmind/assistant/internal/domain/models"
)

// CreateChat inserts a new chat.
func (c *Client) CreateChat(ctx context.Context, chat *models.Chat) error {
	if chat == nil {
		return fmt.Errorf("chat is required")
	}
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.Title == "" {
		chat.Title = models.DefaultChatTitle
	}
	now := time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = chat.CreatedAt

	if _, err := c.chats.InsertOne(ctx, chat); err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetChat retrieves a chat by ID.
func (c *Client) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var chat models.Chat
	err := c.chats.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainerrors.NewNotFoundError("chat", chatID)
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

// UpdateTitle renames a chat.
func (c *Client) UpdateTitle(ctx context.Context, chatID, title string) error {
	return c.updateChat(ctx, chatID, bson.M{"title": title})
}

// UpdateSessionID records the backend session of a chat.
func (c *Client) UpdateSessionID(ctx context.Context, chatID, sessionID string) error {
	return c.updateChat(ctx, chatID, bson.M{"sessionId": sessionID})
}

func (c *Client) updateChat(ctx context.Context, chatID string, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()

	result, err := c.chats.UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	if result.MatchedCount == 0 {
		return domainerrors.NewNotFoundError("chat", chatID)
	}
	return nil
}

// DeleteChat removes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	if _, err := c.messages.DeleteMany(ctx, bson.M{"chatId": chatID}); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}

	result, err := c.chats.DeleteOne(ctx, bson.M{"_id": chatID})
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if result.DeletedCount == 0 {
		return domainerrors.NewNotFoundError("chat", chatID)
	}
	return nil
}

// ListChats returns a user's chats, most recently updated first.
func (c *Client) ListChats(ctx context.Context, opts *chatstore.ListChatsOptions) ([]*models.Chat, error) {
	filter := bson.M{}
	if opts != nil && opts.UserID != "" {
		filter["userId"] = opts.UserID
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(opts.EffectiveLimit())

	cursor, err := c.chats.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := []*models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}
