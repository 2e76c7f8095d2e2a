package demo

import (
	"context"
	"time"

	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
)

// Token pacing. Replies with widgets type slower.
const (
	richChunkRunes  = 2
	richChunkDelay  = 25 * time.Millisecond
	plainChunkRunes = 3
	plainChunkDelay = 15 * time.Millisecond
)

// Pacing scales every delay of a playback. Zero plays instantly.
type Pacing float64

// RealTime plays replies at their scripted speed.
const RealTime Pacing = 1

func (p Pacing) scale(d time.Duration) time.Duration {
	if p <= 0 {
		return 0
	}
	return time.Duration(float64(d) * float64(p))
}

// Sink receives the events of a playback in order.
type Sink interface {
	Thinking(message, tool string)
	Token(text string)
	Plan(tasks []models.TaskItem)
	TaskStart(taskID, label string)
	TaskComplete(taskID string)
	Component(c sdui.Component)
}

// Simulator plays a Result back as timed events, the way the chat backend
// would stream it.
type Simulator struct {
	pacing Pacing
}

// NewSimulator creates a simulator with pacing.
func NewSimulator(pacing Pacing) *Simulator {
	return &Simulator{pacing: pacing}
}

// Play emits res to sink: the plan, the thinking steps, the text in small
// chunks, then the components. It stops with ctx's error as soon as ctx is
// done; nothing is emitted after that.
func (s *Simulator) Play(ctx context.Context, res *Result, sink Sink) error {
	if len(res.Reveal) > 0 {
		tasks := make([]models.TaskItem, 0, len(res.Reveal))
		for _, stage := range res.Reveal {
			tasks = append(tasks, models.TaskItem{ID: stage.TaskID, Label: stage.Label, Status: models.TaskStatusPending})
		}
		sink.Plan(tasks)
	}

	for _, step := range res.ThinkingSteps {
		sink.Thinking(step.Message, step.Tool)
		if err := s.sleep(ctx, step.Delay); err != nil {
			return err
		}
	}

	if err := s.sleep(ctx, res.TypingDelay); err != nil {
		return err
	}

	size, delay := plainChunkRunes, plainChunkDelay
	if len(res.Components) > 0 {
		size, delay = richChunkRunes, richChunkDelay
	}
	runes := []rune(res.Text)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
		sink.Token(string(runes[i:end]))
	}

	if len(res.Reveal) == 0 {
		for _, c := range res.Components {
			if err := ctx.Err(); err != nil {
				return err
			}
			sink.Component(c)
		}
		return ctx.Err()
	}

	for _, stage := range res.Reveal {
		if err := ctx.Err(); err != nil {
			return err
		}
		sink.TaskStart(stage.TaskID, stage.Label)
		sink.Thinking(stage.Thinking, stage.Tool)
		if err := s.sleep(ctx, stage.Pause); err != nil {
			return err
		}
		sink.Component(stage.Component)
		sink.TaskComplete(stage.TaskID)
	}
	return ctx.Err()
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) error {
	d = s.pacing.scale(d)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
