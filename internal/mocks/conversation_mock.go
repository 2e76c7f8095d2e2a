// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tripmind/assistant/internal/api/sse"
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/services/chatapi"
)

// MockChatAPI is a mock implementation of conversation.ChatAPI.
type MockChatAPI struct {
	mock.Mock
}

// StreamChat streams a reply.
func (m *MockChatAPI) StreamChat(ctx context.Context, req *chatapi.ChatRequest, token string, h sse.Handlers) error {
	args := m.Called(ctx, req, token, h)
	return args.Error(0)
}

// MockSessionCreator is a mock implementation of conversation.SessionCreator.
type MockSessionCreator struct {
	mock.Mock
}

// EnsureSession completes a session.
func (m *MockSessionCreator) EnsureSession(ctx context.Context, current models.Session, live bool) (models.Session, error) {
	args := m.Called(ctx, current, live)
	return args.Get(0).(models.Session), args.Error(1)
}

// MockHistory is a mock implementation of conversation.History.
type MockHistory struct {
	mock.Mock
}

// AppendMessage persists a message.
func (m *MockHistory) AppendMessage(chatID string, msg models.Message) {
	m.Called(chatID, msg)
}

// UpdateTitle renames a chat.
func (m *MockHistory) UpdateTitle(chatID, title string) {
	m.Called(chatID, title)
}

// UpdateSessionID links a chat to a backend session.
func (m *MockHistory) UpdateSessionID(chatID, sessionID string) {
	m.Called(chatID, sessionID)
}

// Load reads a chat and its transcript.
func (m *MockHistory) Load(ctx context.Context, chatID string) (*models.Chat, []models.Message, error) {
	args := m.Called(ctx, chatID)
	var chat *models.Chat
	if args.Get(0) != nil {
		chat = args.Get(0).(*models.Chat)
	}
	var messages []models.Message
	if args.Get(1) != nil {
		messages = args.Get(1).([]models.Message)
	}
	return chat, messages, args.Error(2)
}
