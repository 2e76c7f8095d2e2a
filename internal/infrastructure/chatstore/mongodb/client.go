// Package mongodb provides the MongoDB chat store implementation.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tripmind/assistant/internal/core/chatstore"
)

const (
	// ChatsCollection is the name of the chats collection.
	ChatsCollection = "chats"
	// MessagesCollection is the name of the chat messages collection.
	MessagesCollection = "chat_messages"
)

// Client implements the chatstore.Store interface for MongoDB.
type Client struct {
	client   *mongo.Client
	chats    *mongo.Collection
	messages *mongo.Collection
}

// ClientConfig holds MongoDB connection configuration.
type ClientConfig struct {
	URI          string
	DatabaseName string
}

// NewClient connects to MongoDB and returns a chat store on the configured
// database.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return NewClientFromDatabase(client.Database(config.DatabaseName)), nil
}

// NewClientFromDatabase returns a chat store on an already connected database.
func NewClientFromDatabase(db *mongo.Database) *Client {
	return &Client{
		client:   db.Client(),
		chats:    db.Collection(ChatsCollection),
		messages: db.Collection(MessagesCollection),
	}
}

// Ping verifies the connection to MongoDB.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the chat list and transcript queries use.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.chats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "updatedAt", Value: -1},
			},
			Options: options.Index().SetName("idx_user_updated"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create chats indexes: %w", err)
	}

	_, err = c.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "chatId", Value: 1},
				{Key: "timestamp", Value: 1},
				{Key: "seq", Value: 1},
			},
			Options: options.Index().SetName("idx_chat_timestamp_seq"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create messages indexes: %w", err)
	}

	return nil
}

var _ chatstore.Store = (*Client)(nil)
