package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tripmind/assistant/internal/core/chatstore"
	"github.com/tripmind/assistant/internal/domain/models"
)

// MockChatStore is a mock implementation of chatstore.Store.
type MockChatStore struct {
	mock.Mock
}

// CreateChat inserts a chat.
func (m *MockChatStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

// GetChat retrieves a chat.
func (m *MockChatStore) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

// AppendMessage stores a message.
func (m *MockChatStore) AppendMessage(ctx context.Context, msg *models.StoredMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// UpdateTitle renames a chat.
func (m *MockChatStore) UpdateTitle(ctx context.Context, chatID, title string) error {
	args := m.Called(ctx, chatID, title)
	return args.Error(0)
}

// UpdateSessionID links a chat to a backend session.
func (m *MockChatStore) UpdateSessionID(ctx context.Context, chatID, sessionID string) error {
	args := m.Called(ctx, chatID, sessionID)
	return args.Error(0)
}

// LoadMessages returns a transcript.
func (m *MockChatStore) LoadMessages(ctx context.Context, chatID string) ([]*models.StoredMessage, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StoredMessage), args.Error(1)
}

// DeleteChat removes a chat.
func (m *MockChatStore) DeleteChat(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

// ListChats lists chats.
func (m *MockChatStore) ListChats(ctx context.Context, opts *chatstore.ListChatsOptions) ([]*models.Chat, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Chat), args.Error(1)
}

// Ping checks the store connection.
func (m *MockChatStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the store.
func (m *MockChatStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
