package demo_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
	"github.com/tripmind/assistant/internal/services/demo"
)

// recordingSink keeps every call as a short event string.
type recordingSink struct {
	mu         sync.Mutex
	events     []string
	tokens     []string
	components []sdui.Component
}

func (s *recordingSink) add(e string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) Thinking(message, tool string) { s.add("thinking") }

func (s *recordingSink) Token(text string) {
	s.mu.Lock()
	s.tokens = append(s.tokens, text)
	s.mu.Unlock()
	s.add("token")
}

func (s *recordingSink) Plan(tasks []models.TaskItem) { s.add("plan") }

func (s *recordingSink) TaskStart(taskID, label string) { s.add("start:" + taskID) }

func (s *recordingSink) TaskComplete(taskID string) { s.add("complete:" + taskID) }

func (s *recordingSink) Component(c sdui.Component) {
	s.mu.Lock()
	s.components = append(s.components, c)
	s.mu.Unlock()
	s.add("component:" + string(c.Type))
}

// compact collapses runs of tokens into one entry.
func (s *recordingSink) compact() []string {
	var out []string
	for _, e := range s.events {
		if e == "token" && len(out) > 0 && out[len(out)-1] == "token" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func TestSimulator_PlaysSingleWidgetReply(t *testing.T) {
	res := newFlow().Process("Tokyo")
	sink := &recordingSink{}

	err := demo.NewSimulator(0).Play(context.Background(), &res, sink)

	require.NoError(t, err)
	assert.Equal(t, []string{"thinking", "thinking", "token", "component:preference_chips"}, sink.compact())
	assert.Equal(t, res.Text, strings.Join(sink.tokens, ""))
	for _, tok := range sink.tokens[:len(sink.tokens)-1] {
		assert.Len(t, []rune(tok), 2, "replies with a widget stream two runes at a time")
	}
}

func TestSimulator_PlainTextChunks(t *testing.T) {
	res := demo.Result{Handled: true, Text: "héllo wörld"}
	sink := &recordingSink{}

	require.NoError(t, demo.NewSimulator(0).Play(context.Background(), &res, sink))

	assert.Equal(t, []string{"hél", "lo ", "wör", "ld"}, sink.tokens)
}

func TestSimulator_RevealsResultsInStages(t *testing.T) {
	f := newFlow()
	res := walk(t, f, "Tokyo", "Mumbai", "whenever", "50000", "solo")
	sink := &recordingSink{}

	require.NoError(t, demo.NewSimulator(0).Play(context.Background(), &res, sink))

	assert.Equal(t, []string{
		"plan",
		"thinking", "thinking",
		"token",
		"start:flights", "thinking", "component:flight_card", "complete:flights",
		"start:itinerary", "thinking", "component:itinerary_card", "complete:itinerary",
		"start:map", "thinking", "component:map_view", "complete:map",
	}, sink.compact())
	assert.Equal(t, res.Components, sink.components)
}

func TestSimulator_CancelledBeforeStart(t *testing.T) {
	res := newFlow().Process("Tokyo")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &recordingSink{}

	err := demo.NewSimulator(0).Play(ctx, &res, sink)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.tokens)
	assert.Empty(t, sink.components)
}

func TestSimulator_CancelStopsTimerChain(t *testing.T) {
	res := newFlow().Process("Tokyo")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sink := &recordingSink{}

	start := time.Now()
	err := demo.NewSimulator(demo.RealTime).Play(ctx, &res, sink)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, sink.components)

	// Nothing arrives after Play returned.
	count := len(sink.events)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, sink.events, count)
}

func TestSimulator_PacingScalesDelays(t *testing.T) {
	res := demo.Result{
		Handled:       true,
		Text:          "ok",
		ThinkingSteps: []demo.ThinkingStep{{Message: "wait", Delay: 200 * time.Millisecond}},
	}
	sink := &recordingSink{}

	start := time.Now()
	require.NoError(t, demo.NewSimulator(0.25).Play(context.Background(), &res, sink))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}
