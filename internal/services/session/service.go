// Package session manages conversation sessions: the backend's cached
// session records and the client's bootstrap of chat and backend session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripmind/assistant/internal/core/cache"
	"github.com/tripmind/assistant/internal/pkg/encryption"
	"github.com/tripmind/assistant/internal/services/demo"
)

const (
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 2 * time.Hour

	// AnonymousUser owns sessions opened without a bearer token.
	AnonymousUser = "anonymous"

	createAttempts = 3
)

// SessionData is the cached state of one backend session.
type SessionData struct {
	SessionID string     `json:"sessionId"`
	UserID    string     `json:"userId"`
	Title     string     `json:"title,omitempty"`
	Demo      demo.State `json:"demo"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Service stores backend sessions in the cache.
type Service interface {
	// Create opens a new session for userID.
	Create(ctx context.Context, userID string) (*SessionData, error)

	// Get retrieves a session, or returns nil if it is unknown or expired.
	Get(ctx context.Context, userID, sessionID string) (*SessionData, error)

	// Save stores a session and restarts its TTL.
	Save(ctx context.Context, session *SessionData) error

	// Delete removes a session.
	Delete(ctx context.Context, userID, sessionID string) error

	// DeleteUser removes every session of userID.
	DeleteUser(ctx context.Context, userID string) (int64, error)

	// BuildCacheKey generates the cache key for a session.
	BuildCacheKey(userID, sessionID string) string
}

// Config holds the configuration for the session service.
type Config struct {
	Cache cache.Cache
	// Sealer protects cached payloads; payloads are stored as-is when nil.
	Sealer encryption.Sealer
	TTL    time.Duration
	Logger *zerolog.Logger
}

type service struct {
	cache  cache.Cache
	sealer encryption.Sealer
	ttl    time.Duration
	logger zerolog.Logger
}

// NewService creates a new session service.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}

	sealer := cfg.Sealer
	if sealer == nil {
		sealer = encryption.PlainSealer{}
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &service{
		cache:  cfg.Cache,
		sealer: sealer,
		ttl:    ttl,
		logger: logger.With().Str("component", "session").Logger(),
	}, nil
}

func (s *service) Create(ctx context.Context, userID string) (*SessionData, error) {
	if userID == "" {
		userID = AnonymousUser
	}

	for i := 0; i < createAttempts; i++ {
		now := time.Now().UTC()
		session := &SessionData{
			SessionID: uuid.New().String(),
			UserID:    userID,
			Demo:      demo.State{Step: demo.StepIdle},
			CreatedAt: now,
			UpdatedAt: now,
		}

		payload, err := s.encode(session)
		if err != nil {
			return nil, err
		}

		ok, err := s.cache.SetNX(ctx, s.BuildCacheKey(userID, session.SessionID), payload, s.ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to store session in cache: %w", err)
		}
		if ok {
			return session, nil
		}
	}
	return nil, fmt.Errorf("failed to allocate a session id")
}

// Get returns nil, not an error, for payloads it cannot read: they are
// dropped so the caller starts a fresh session.
func (s *service) Get(ctx context.Context, userID, sessionID string) (*SessionData, error) {
	if userID == "" {
		userID = AnonymousUser
	}
	key := s.BuildCacheKey(userID, sessionID)

	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}
	if payload == nil {
		return nil, nil
	}

	session, err := s.decode(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("dropping unreadable session")
		_, _ = s.cache.Delete(ctx, key)
		return nil, nil
	}
	return session, nil
}

func (s *service) Save(ctx context.Context, session *SessionData) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	if session.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if session.UserID == "" {
		session.UserID = AnonymousUser
	}

	session.UpdatedAt = time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	payload, err := s.encode(session)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, s.BuildCacheKey(session.UserID, session.SessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("failed to store session in cache: %w", err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID, sessionID string) error {
	if userID == "" {
		userID = AnonymousUser
	}
	if _, err := s.cache.Delete(ctx, s.BuildCacheKey(userID, sessionID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *service) DeleteUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errors.New("user ID is required")
	}
	n, err := s.cache.DeletePattern(ctx, s.BuildCacheKey(userID, "*"))
	if err != nil {
		return n, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return n, nil
}

func (s *service) BuildCacheKey(userID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", userID, sessionID)
}

func (s *service) encode(session *SessionData) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	sealed, err := s.sealer.Seal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to seal session: %w", err)
	}
	return sealed, nil
}

func (s *service) decode(payload []byte) (*SessionData, error) {
	data, err := s.sealer.Open(payload)
	if err != nil {
		return nil, err
	}
	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
