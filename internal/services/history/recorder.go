// Package history persists conversation transcripts in the background.
package history

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripmind/assistant/internal/core/chatstore"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
	"github.com/tripmind/assistant/internal/domain/models"
)

const (
	// DefaultWorkers is the default number of write workers.
	DefaultWorkers = 2
	// DefaultQueueSize is the default number of queued writes per worker.
	DefaultQueueSize = 256
	// DefaultWriteTimeout bounds a single store write.
	DefaultWriteTimeout = 10 * time.Second
)

// Config holds the configuration for a Recorder.
type Config struct {
	Store        chatstore.Store
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
	Logger       *zerolog.Logger
}

// Recorder writes transcripts to a chat store. Writes are queued and never
// block the conversation; failures are logged and do not touch the in-memory
// transcript. Reads are synchronous.
type Recorder struct {
	store        chatstore.Store
	queue        *jobQueue
	writeTimeout time.Duration
	logger       zerolog.Logger

	failed  atomic.Int64
	dropped atomic.Int64
}

// NewRecorder creates a Recorder and starts its workers.
func NewRecorder(cfg *Config) (*Recorder, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("chat store is required")
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}

	r := &Recorder{
		store:        cfg.Store,
		writeTimeout: timeout,
		logger:       logger.With().Str("component", "history").Logger(),
	}
	r.queue = newJobQueue(workers, queueSize, r.run)
	return r, nil
}

func (r *Recorder) run(ctx context.Context, j *job) {
	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	err := j.run(ctx)
	switch {
	case err == nil:
	case domainerrors.IsNotFound(err):
		// The chat was deleted while the write was queued.
		r.dropped.Add(1)
		r.logger.Warn().Str("chat_id", j.chatID).Str("job", j.name).Msg("chat is gone, write dropped")
	default:
		r.failed.Add(1)
		r.logger.Error().Err(err).Str("chat_id", j.chatID).Str("job", j.name).Msg("history write failed")
	}
}

func (r *Recorder) submit(chatID, name string, fn func(ctx context.Context) error) {
	if chatID == "" {
		return
	}
	if !r.queue.enqueue(&job{chatID: chatID, name: name, run: fn}) {
		r.dropped.Add(1)
		r.logger.Warn().Str("chat_id", chatID).Str("job", name).Msg("history queue unavailable, write dropped")
	}
}

// AppendMessage queues a message write.
func (r *Recorder) AppendMessage(chatID string, msg models.Message) {
	stored := msg.ToStored(chatID)
	r.submit(chatID, "append_message", func(ctx context.Context) error {
		return r.store.AppendMessage(ctx, stored)
	})
}

// UpdateTitle queues a rename.
func (r *Recorder) UpdateTitle(chatID, title string) {
	r.submit(chatID, "update_title", func(ctx context.Context) error {
		return r.store.UpdateTitle(ctx, chatID, title)
	})
}

// UpdateSessionID queues linking a chat to its backend session.
func (r *Recorder) UpdateSessionID(chatID, sessionID string) {
	r.submit(chatID, "update_session", func(ctx context.Context) error {
		return r.store.UpdateSessionID(ctx, chatID, sessionID)
	})
}

// Load reads a chat and its transcript. Restored widgets are inert.
func (r *Recorder) Load(ctx context.Context, chatID string) (*models.Chat, []models.Message, error) {
	chat, err := r.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}

	stored, err := r.store.LoadMessages(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load messages: %w", err)
	}

	messages := make([]models.Message, 0, len(stored))
	for _, s := range stored {
		messages = append(messages, s.ToMessage())
	}
	return chat, messages, nil
}

// Delete removes a chat and its transcript.
func (r *Recorder) Delete(ctx context.Context, chatID string) error {
	return r.store.DeleteChat(ctx, chatID)
}

// List returns the chats of userID, most recent first.
func (r *Recorder) List(ctx context.Context, userID string, limit int64) ([]*models.Chat, error) {
	return r.store.ListChats(ctx, &chatstore.ListChatsOptions{UserID: userID, Limit: limit})
}

// Stop waits for queued writes until ctx is done. Later writes are dropped.
func (r *Recorder) Stop(ctx context.Context) {
	r.queue.stop(ctx)
	if n := r.queue.pending(); n > 0 {
		r.logger.Warn().Int("pending", n).Msg("history stopped with unwritten jobs")
	}
}

// Stats returns the number of failed and dropped writes. Writes to a chat
// that no longer exists count as dropped.
func (r *Recorder) Stats() (failed, dropped int64) {
	return r.failed.Load(), r.dropped.Load()
}
