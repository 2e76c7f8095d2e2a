package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripmind/assistant/internal/api/dto"
	"github.com/tripmind/assistant/internal/core/chatstore"
	"github.com/tripmind/assistant/internal/domain/models"
)

// SessionClient opens sessions on the chat backend.
type SessionClient interface {
	CreateSession(ctx context.Context, token string) (*dto.CreateSessionResponse, error)
}

// BootstrapConfig holds the configuration for a Bootstrapper.
type BootstrapConfig struct {
	// API opens backend sessions; live turns fail to start without one.
	API SessionClient
	// Store records new chats; chat ids are generated locally when nil.
	Store     chatstore.Store
	AuthToken string
	UserID    string
	Logger    *zerolog.Logger
}

// Bootstrapper completes the session of a conversation before its first
// turn: it opens the backend session for live turns and creates the chat
// record.
type Bootstrapper struct {
	api       SessionClient
	store     chatstore.Store
	authToken string
	userID    string
	logger    zerolog.Logger
}

// NewBootstrapper creates a Bootstrapper.
func NewBootstrapper(cfg *BootstrapConfig) *Bootstrapper {
	if cfg == nil {
		cfg = &BootstrapConfig{}
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Bootstrapper{
		api:       cfg.API,
		store:     cfg.Store,
		authToken: cfg.AuthToken,
		userID:    cfg.UserID,
		logger:    logger.With().Str("component", "bootstrap").Logger(),
	}
}

// EnsureSession fills in what current is missing. Nothing is created when
// current is already complete.
func (b *Bootstrapper) EnsureSession(ctx context.Context, current models.Session, live bool) (models.Session, error) {
	opened := false
	if live && current.BackendSessionID == "" {
		if b.api == nil {
			return current, fmt.Errorf("no chat service configured")
		}
		resp, err := b.api.CreateSession(ctx, b.authToken)
		if err != nil {
			return current, fmt.Errorf("failed to open backend session: %w", err)
		}
		current.BackendSessionID = resp.SessionID
		opened = true
		b.logger.Debug().Str("session_id", resp.SessionID).Msg("backend session opened")
	}

	if current.ChatID != "" {
		if opened && b.store != nil {
			if err := b.store.UpdateSessionID(ctx, current.ChatID, current.BackendSessionID); err != nil {
				b.logger.Warn().Err(err).Str("chat_id", current.ChatID).Msg("failed to link chat to backend session")
			}
		}
		return current, nil
	}

	chat := &models.Chat{
		ID:        uuid.New().String(),
		UserID:    b.userID,
		SessionID: current.BackendSessionID,
		Title:     models.DefaultChatTitle,
	}
	if b.store != nil {
		if err := b.store.CreateChat(ctx, chat); err != nil {
			return current, fmt.Errorf("failed to create chat: %w", err)
		}
	}
	current.ChatID = chat.ID
	return current, nil
}
