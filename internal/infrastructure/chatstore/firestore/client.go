// Package firestore provides the Cloud Firestore chat store implementation.
//
// Layout: /chats/{chatId} holds the chat, /chats/{chatId}/messages/{messageId}
// its transcript.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tripmind/assistant/internal/core/chatstore"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
	"github.com/tripmind/assistant/internal/domain/models"
)

const (
	// ChatsCollection is the top-level chats collection.
	ChatsCollection = "chats"
	// MessagesCollection is the per-chat messages subcollection.
	MessagesCollection = "messages"
)

// ClientConfig holds Firestore connection configuration.
type ClientConfig struct {
	ProjectID string
	// CredentialsFile is a service account JSON file. When empty the
	// application default credentials are used.
	CredentialsFile string
}

// Client implements the chatstore.Store interface for Cloud Firestore.
type Client struct {
	client *firestore.Client
}

// NewClient initializes a Firebase app and returns a chat store on its
// Firestore database.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.ProjectID == "" {
		return nil, fmt.Errorf("firestore project ID is required")
	}

	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: config.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	return NewClientFromFirestore(fs), nil
}

// NewClientFromFirestore returns a chat store on an existing Firestore client.
func NewClientFromFirestore(client *firestore.Client) *Client {
	return &Client{client: client}
}

func (c *Client) chat(chatID string) *firestore.DocumentRef {
	return c.client.Collection(ChatsCollection).Doc(chatID)
}

func (c *Client) messages(chatID string) *firestore.CollectionRef {
	return c.chat(chatID).Collection(MessagesCollection)
}

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
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}
	chat.UpdatedAt = chat.CreatedAt

	if _, err := c.chat(chat.ID).Create(ctx, chat); err != nil {
		return fmt.Errorf("failed to create chat %s: %w", chat.ID, err)
	}
	return nil
}

// GetChat retrieves a chat by ID.
func (c *Client) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	doc, err := c.chat(chatID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domainerrors.NewNotFoundError("chat", chatID)
		}
		return nil, fmt.Errorf("failed to get chat %s: %w", chatID, err)
	}

	var chat models.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, fmt.Errorf("failed to parse chat %s: %w", chatID, err)
	}
	chat.ID = doc.Ref.ID
	return &chat, nil
}

// AppendMessage stores a message, replacing one with the same ID, and moves
// the chat's preview forward.
func (c *Client) AppendMessage(ctx context.Context, msg *models.StoredMessage) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("chat ID is required")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	if _, err := c.messages(msg.ChatID).Doc(msg.ID).Set(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message chat=%s id=%s: %w", msg.ChatID, msg.ID, err)
	}

	_, err := c.chat(msg.ChatID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: chatstore.Preview(msg.Content)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to update chat preview %s: %w", msg.ChatID, err)
	}
	return nil
}

// UpdateTitle renames a chat.
func (c *Client) UpdateTitle(ctx context.Context, chatID, title string) error {
	return c.updateChat(ctx, chatID, firestore.Update{Path: "title", Value: title})
}

// UpdateSessionID records the backend session of a chat.
func (c *Client) UpdateSessionID(ctx context.Context, chatID, sessionID string) error {
	return c.updateChat(ctx, chatID, firestore.Update{Path: "sessionId", Value: sessionID})
}

func (c *Client) updateChat(ctx context.Context, chatID string, update firestore.Update) error {
	_, err := c.chat(chatID).Update(ctx, []firestore.Update{
		update,
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domainerrors.NewNotFoundError("chat", chatID)
		}
		return fmt.Errorf("failed to update chat %s: %w", chatID, err)
	}
	return nil
}

// LoadMessages returns the transcript of a chat, oldest first.
func (c *Client) LoadMessages(ctx context.Context, chatID string) ([]*models.StoredMessage, error) {
	docs, err := c.messages(chatID).OrderBy("timestamp", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for chat %s: %w", chatID, err)
	}

	messages := make([]*models.StoredMessage, 0, len(docs))
	for _, doc := range docs {
		var msg models.StoredMessage
		if err := doc.DataTo(&msg); err != nil {
			return nil, fmt.Errorf("failed to parse message %s: %w", doc.Ref.ID, err)
		}
		msg.ID = doc.Ref.ID
		messages = append(messages, &msg)
	}
	return messages, nil
}

// DeleteChat removes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	if _, err := c.GetChat(ctx, chatID); err != nil {
		return err
	}

	docs, err := c.messages(chatID).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to query messages for chat %s: %w", chatID, err)
	}

	bw := c.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs)+1)
	for _, doc := range docs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue message delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	job, err := bw.Delete(c.chat(chatID))
	if err != nil {
		bw.End()
		return fmt.Errorf("failed to queue chat delete: %w", err)
	}
	jobs = append(jobs, job)
	bw.End()

	var errs []error
	for _, j := range jobs {
		if _, err := j.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete chat %s: %w", chatID, errors.Join(errs...))
	}
	return nil
}

// ListChats returns a user's chats, most recently updated first.
func (c *Client) ListChats(ctx context.Context, opts *chatstore.ListChatsOptions) ([]*models.Chat, error) {
	query := c.client.Collection(ChatsCollection).Query
	if opts != nil && opts.UserID != "" {
		query = query.Where("userId", "==", opts.UserID)
	}
	query = query.OrderBy("updatedAt", firestore.Desc).Limit(int(opts.EffectiveLimit()))

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	chats := make([]*models.Chat, 0, len(docs))
	for _, doc := range docs {
		var chat models.Chat
		if err := doc.DataTo(&chat); err != nil {
			return nil, fmt.Errorf("failed to parse chat %s: %w", doc.Ref.ID, err)
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}
	return chats, nil
}

// Ping verifies Firestore is reachable with a one-document read.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.Collection(ChatsCollection).Limit(1).Documents(ctx).GetAll(); err != nil {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// Close closes the Firestore client.
func (c *Client) Close(context.Context) error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close firestore client: %w", err)
	}
	return nil
}

var _ chatstore.Store = (*Client)(nil)
