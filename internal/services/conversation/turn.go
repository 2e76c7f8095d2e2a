package conversation

import (
	"context"
	"sync"
)

// Turn is one user message and the reply it produces.
type Turn struct {
	// ID increases with every turn of an engine.
	ID uint64
	// MessageID is the assistant message the reply is written into.
	MessageID string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func newTurn(ctx context.Context, cancel context.CancelFunc, id uint64) *Turn {
	return &Turn{
		ID:     id,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Done is closed when the turn has finished and its state is final.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn finishes and returns Err.
func (t *Turn) Wait() error {
	<-t.done
	return t.Err()
}

// Cancel stops the turn. Its reply keeps the text received so far.
func (t *Turn) Cancel() {
	t.cancel()
}

// Err is nil while running and for a successful reply. Otherwise it is
// context.Canceled, or wraps ErrTurnFailed or the transport error.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Turn) complete(err error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		close(t.done)
	})
}
