package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tripmind/assistant/internal/api/dto"
	"github.com/tripmind/assistant/internal/services/session"
)

// MockSessionClient is a mock implementation of session.SessionClient.
type MockSessionClient struct {
	mock.Mock
}

// CreateSession opens a backend session.
func (m *MockSessionClient) CreateSession(ctx context.Context, token string) (*dto.CreateSessionResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CreateSessionResponse), args.Error(1)
}

// MockSessionService is a mock implementation of session.Service.
type MockSessionService struct {
	mock.Mock
}

// Create opens a session.
func (m *MockSessionService) Create(ctx context.Context, userID string) (*session.SessionData, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.SessionData), args.Error(1)
}

// Get retrieves a session.
func (m *MockSessionService) Get(ctx context.Context, userID, sessionID string) (*session.SessionData, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.SessionData), args.Error(1)
}

// Save stores a session.
func (m *MockSessionService) Save(ctx context.Context, s *session.SessionData) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// Delete removes a session.
func (m *MockSessionService) Delete(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

// DeleteUser removes every session of a user.
func (m *MockSessionService) DeleteUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// BuildCacheKey generates the cache key for a session.
func (m *MockSessionService) BuildCacheKey(userID, sessionID string) string {
	args := m.Called(userID, sessionID)
	return args.String(0)
}
