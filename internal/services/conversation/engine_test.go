package conversation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripmind/assistant/internal/api/sse"
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/mocks"
	"github.com/tripmind/assistant/internal/sdui"
	"github.com/tripmind/assistant/internal/services/chatapi"
	"github.com/tripmind/assistant/internal/services/conversation"
	"github.com/tripmind/assistant/internal/services/demo"
)

var nopLogger = zerolog.Nop()

var fixedNow = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func newSessions() *mocks.MockSessionCreator {
	sessions := &mocks.MockSessionCreator{}
	sessions.On("EnsureSession", mock.Anything, mock.Anything, mock.Anything).
		Return(models.Session{ChatID: "chat-1", BackendSessionID: "sess-1"}, nil)
	return sessions
}

func newHistory() *mocks.MockHistory {
	history := &mocks.MockHistory{}
	history.On("AppendMessage", mock.Anything, mock.Anything).Maybe()
	history.On("UpdateTitle", mock.Anything, mock.Anything).Maybe()
	history.On("UpdateSessionID", mock.Anything, mock.Anything).Maybe()
	return history
}

func newEngine(cfg *conversation.Config) *conversation.Engine {
	cfg.Logger = &nopLogger
	if cfg.Demo == nil {
		cfg.Demo = demo.NewFlow(&demo.FlowConfig{Now: func() time.Time { return fixedNow }})
	}
	return conversation.NewEngine(cfg)
}

func handlersOf(args mock.Arguments) sse.Handlers {
	return args.Get(3).(sse.Handlers)
}

func send(t *testing.T, e *conversation.Engine, content string) *conversation.Turn {
	t.Helper()
	turn, err := e.Send(context.Background(), content)
	require.NoError(t, err)
	require.NotNil(t, turn)
	return turn
}

func wait(t *testing.T, turn *conversation.Turn) error {
	t.Helper()
	select {
	case <-turn.Done():
		return turn.Err()
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not finish")
		return nil
	}
}

func TestSend_EmptyMessage(t *testing.T) {
	e := newEngine(&conversation.Config{})

	turn, err := e.Send(context.Background(), "   \n")

	assert.ErrorIs(t, err, conversation.ErrEmptyMessage)
	assert.Nil(t, turn)
	assert.Empty(t, e.Snapshot().Messages)
	assert.False(t, e.Snapshot().IsLoading)
}

func TestSend_LiveReplyWithEnvelope(t *testing.T) {
	// Arrange
	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, &chatapi.ChatRequest{Message: "hello", SessionID: "sess-1"}, "token-1", mock.Anything).
		Run(func(args mock.Arguments) {
			h := handlersOf(args)
			h.OnThinking("Thinking", "")
			h.OnToken(`{"text":"Hi",`)
			h.OnToken(`"ui":{"type":"quick_actions","props":{"actions":[]}}}`)
			h.OnDone(&sse.Event{Type: sse.EventDone, SessionID: "sess-2", ChatTitle: "Greetings"})
		}).
		Return(nil)
	history := newHistory()
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions(), History: history, AuthToken: "token-1"})

	// Act
	err := wait(t, send(t, e, "hello"))

	// Assert
	require.NoError(t, err)
	state := e.Snapshot()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, models.RoleUser, state.Messages[0].Role)
	assert.Equal(t, "hello", state.Messages[0].Content)

	reply := state.Messages[1]
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "Hi", reply.Content)
	require.NotNil(t, reply.UI)
	assert.Equal(t, sdui.TypeQuickActions, reply.UI.Type)
	assert.False(t, reply.IsStreaming)
	assert.False(t, reply.UIHandled)

	assert.False(t, state.IsLoading)
	assert.Nil(t, state.Thinking)
	assert.Empty(t, state.Tasks)
	assert.Equal(t, "chat-1", state.ChatID)
	assert.Equal(t, "sess-2", state.SessionID)
	assert.Equal(t, "Greetings", state.Title)

	history.AssertCalled(t, "AppendMessage", "chat-1", mock.MatchedBy(func(m models.Message) bool { return m.Content == "hello" }))
	history.AssertCalled(t, "AppendMessage", "chat-1", mock.MatchedBy(func(m models.Message) bool { return m.Content == "Hi" }))
	history.AssertCalled(t, "UpdateSessionID", "chat-1", "sess-2")
	history.AssertCalled(t, "UpdateTitle", "chat-1", "Greetings")
}

func TestSend_EnvelopeWithoutText(t *testing.T) {
	tests := []struct {
		name        string
		done        *sse.Event
		wantContent string
	}{
		{
			name:        "no text anywhere",
			done:        &sse.Event{Type: sse.EventDone},
			wantContent: "",
		},
		{
			name:        "text from the event response",
			done:        &sse.Event{Type: sse.EventDone, Response: "Pick one"},
			wantContent: "Pick one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mocks.MockChatAPI{}
			api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					h := handlersOf(args)
					h.OnToken(`{"ui":{"type":"quick_actions","props":{"actions":[]}}}`)
					h.OnDone(tt.done)
				}).
				Return(nil)
			e := newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions(), History: newHistory()})

			require.NoError(t, wait(t, send(t, e, "hello")))

			reply := e.Snapshot().Messages[1]
			assert.Equal(t, tt.wantContent, reply.Content)
			require.NotNil(t, reply.UI)
			assert.Equal(t, sdui.TypeQuickActions, reply.UI.Type)
		})
	}
}

func TestSend_DoneWithStringEncodedUI(t *testing.T) {
	encoded, err := json.Marshal(`{"text":"Hi","type":"quick_actions","props":{"actions":[]}}`)
	require.NoError(t, err)

	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			handlersOf(args).OnDone(&sse.Event{Type: sse.EventDone, UI: encoded})
		}).
		Return(nil)
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions(), History: newHistory()})

	require.NoError(t, wait(t, send(t, e, "hello")))

	reply := e.Snapshot().Messages[1]
	assert.Equal(t, "Hi", reply.Content)
	require.NotNil(t, reply.UI)
	assert.Equal(t, sdui.TypeQuickActions, reply.UI.Type)
}

func TestSend_PlanAndTaskTransitions(t *testing.T) {
	var during conversation.State
	var e *conversation.Engine

	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			h := handlersOf(args)
			h.OnPlan([]models.TaskItem{{ID: "t1", Label: "Flights"}, {ID: "t2", Label: "Hotels", Status: models.TaskStatusPending}, {ID: "t3", Label: "Map"}})
			h.OnTaskStart("t1", "Flights")
			h.OnTaskComplete("t1")
			h.OnTaskStart("t2", "Hotels")
			h.OnTaskStart("missing", "ignored")
			h.OnThinking("Booking", "hotels")
			during = e.Snapshot()
			h.OnToken("Done")
			h.OnDone(&sse.Event{Type: sse.EventDone})
		}).
		Return(nil)
	e = newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions()})

	require.NoError(t, wait(t, send(t, e, "plan it")))

	assert.Equal(t, []models.TaskItem{
		{ID: "t1", Label: "Flights", Status: models.TaskStatusCompleted},
		{ID: "t2", Label: "Hotels", Status: models.TaskStatusInProgress},
		{ID: "t3", Label: "Map", Status: models.TaskStatusPending},
	}, during.Tasks)
	assert.Equal(t, &models.ThinkingState{Message: "Booking", Tool: "hotels"}, during.Thinking)
	assert.True(t, during.IsLoading)
	assert.True(t, during.Messages[1].IsStreaming)

	final := e.Snapshot()
	assert.Empty(t, final.Tasks)
	assert.Nil(t, final.Thinking)
	assert.Equal(t, "Done", final.Messages[1].Content)
}

func TestSend_FirstTokenClearsThinking(t *testing.T) {
	var afterToken conversation.State
	var e *conversation.Engine

	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			h := handlersOf(args)
			h.OnThinking("Searching", "search")
			h.OnToken("Found ")
			afterToken = e.Snapshot()
			h.OnToken("it")
			h.OnDone(&sse.Event{Type: sse.EventDone})
		}).
		Return(nil)
	e = newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions()})

	require.NoError(t, wait(t, send(t, e, "search")))

	assert.Nil(t, afterToken.Thinking)
	assert.Equal(t, "Found ", afterToken.Messages[1].Content)
	assert.Equal(t, "Found it", e.Snapshot().Messages[1].Content)
}

func TestSend_BackToBackIsNoop(t *testing.T) {
	release := make(chan struct{})
	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			h := handlersOf(args)
			h.OnToken("first reply")
			h.OnDone(&sse.Event{Type: sse.EventDone})
		}).
		Return(nil).
		Once()
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions()})

	first := send(t, e, "first")
	assert.True(t, e.Snapshot().IsLoading)

	second, err := e.Send(context.Background(), "second")

	assert.ErrorIs(t, err, conversation.ErrTurnInFlight)
	assert.Nil(t, second)
	assert.Len(t, e.Snapshot().Messages, 2)

	close(release)
	require.NoError(t, wait(t, first))
	assert.False(t, e.Snapshot().IsLoading)
	api.AssertNumberOfCalls(t, "StreamChat", 1)

	// The next turn is accepted once the first one finished.
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			handlersOf(args).OnDone(&sse.Event{Type: sse.EventDone, Response: "second reply"})
		}).
		Return(nil)
	require.NoError(t, wait(t, send(t, e, "second")))
	assert.Equal(t, "second reply", e.Snapshot().Messages[3].Content)
}

func TestSend_RejectedFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := chatapi.NewClient(&chatapi.Config{BaseURL: url, Logger: &nopLogger})
	require.NoError(t, err)
	e := newEngine(&conversation.Config{ChatAPI: client, Sessions: newSessions()})

	turnErr := wait(t, send(t, e, "hello"))

	assert.ErrorIs(t, turnErr, conversation.ErrTurnFailed)
	state := e.Snapshot()
	var assistants []models.Message
	for _, m := range state.Messages {
		if m.Role == models.RoleAssistant {
			assistants = append(assistants, m)
		}
	}
	require.Len(t, assistants, 1)
	assert.True(t, strings.HasPrefix(assistants[0].Content, conversation.ApologyPrefix))
	assert.Nil(t, assistants[0].UI)
	assert.False(t, assistants[0].IsStreaming)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.Tasks)

	// A failure does not block the next message.
	_, err = e.Send(context.Background(), "again")
	assert.NoError(t, err)
}

func TestSend_ErrorEventReplacesPartialText(t *testing.T) {
	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			h := handlersOf(args)
			h.OnPlan([]models.TaskItem{{ID: "t1", Label: "Search"}})
			h.OnToken("Half an ans")
			h.OnError("the agent crashed")
		}).
		Return(nil)
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions()})

	err := wait(t, send(t, e, "hello"))

	assert.ErrorIs(t, err, conversation.ErrTurnFailed)
	state := e.Snapshot()
	assert.Equal(t, conversation.ApologyPrefix+"the agent crashed", state.Messages[1].Content)
	assert.Empty(t, state.Tasks)
	assert.False(t, state.IsLoading)
}

func TestSend_StreamTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := chatapi.NewClient(&chatapi.Config{BaseURL: server.URL, Logger: &nopLogger})
	require.NoError(t, err)
	e := newEngine(&conversation.Config{ChatAPI: client, Sessions: newSessions(), StreamTimeout: 100 * time.Millisecond})

	turnErr := wait(t, send(t, e, "hello"))

	assert.ErrorIs(t, turnErr, conversation.ErrTurnFailed)
	assert.Equal(t, conversation.ApologyPrefix+"request timed out", e.Snapshot().Messages[1].Content)
	assert.False(t, e.Snapshot().IsLoading)
}

func TestSend_SessionFailureAppendsNothing(t *testing.T) {
	sessions := &mocks.MockSessionCreator{}
	sessions.On("EnsureSession", mock.Anything, mock.Anything, mock.Anything).
		Return(models.Session{}, errors.New("auth service down"))
	api := &mocks.MockChatAPI{}
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: sessions})

	turn, err := e.Send(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth service down")
	assert.Nil(t, turn)
	state := e.Snapshot()
	assert.Empty(t, state.Messages)
	assert.False(t, state.IsLoading)
	assert.False(t, e.Busy())
	api.AssertNotCalled(t, "StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_SessionReusedAcrossTurns(t *testing.T) {
	sessions := newSessions()
	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			handlersOf(args).OnDone(&sse.Event{Type: sse.EventDone, Response: "ok"})
		}).
		Return(nil)
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: sessions})

	require.NoError(t, wait(t, send(t, e, "one")))
	require.NoError(t, wait(t, send(t, e, "two")))

	sessions.AssertNumberOfCalls(t, "EnsureSession", 1)
	api.AssertCalled(t, "StreamChat", mock.Anything, &chatapi.ChatRequest{Message: "two", SessionID: "sess-1"}, "", mock.Anything)
}

func TestSend_WithoutSessionCreator(t *testing.T) {
	e := newEngine(&conversation.Config{DemoMode: true})

	require.NoError(t, wait(t, send(t, e, "Tokyo")))

	assert.NotEmpty(t, e.Snapshot().ChatID)
}

func TestCancel_DropsLaterCallbacks(t *testing.T) {
	var e *conversation.Engine
	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			h := handlersOf(args)
			h.OnToken("early")
			e.Cancel()
			<-ctx.Done()
			h.OnToken(" late")
			h.OnDone(&sse.Event{Type: sse.EventDone, Response: "late reply"})
		}).
		Return(context.Canceled)
	e = newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions()})

	err := wait(t, send(t, e, "hello"))

	assert.ErrorIs(t, err, context.Canceled)
	state := e.Snapshot()
	assert.Equal(t, "early", state.Messages[1].Content)
	assert.False(t, state.Messages[1].IsStreaming)
	assert.False(t, state.IsLoading)
	assert.False(t, e.Busy())
}

func TestMarkUIHandled_Idempotent(t *testing.T) {
	var mu sync.Mutex
	changes := 0
	e := newEngine(&conversation.Config{DemoMode: true, OnChange: func(conversation.State) {
		mu.Lock()
		changes++
		mu.Unlock()
	}})
	require.NoError(t, wait(t, send(t, e, "Tokyo")))
	require.True(t, e.Snapshot().Messages[1].HasOpenUI())

	e.MarkUIHandled()
	once := e.Snapshot()
	mu.Lock()
	afterOnce := changes
	mu.Unlock()

	e.MarkUIHandled()
	twice := e.Snapshot()

	assert.Equal(t, once, twice)
	assert.True(t, twice.Messages[1].UIHandled)
	mu.Lock()
	assert.Equal(t, afterOnce, changes)
	mu.Unlock()
}

func TestDemo_DestinationRoutesToDemo(t *testing.T) {
	api := &mocks.MockChatAPI{}
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions(), History: newHistory()})

	require.NoError(t, wait(t, send(t, e, "I want to go to Tokyo")))

	state := e.Snapshot()
	reply := state.Messages[1]
	require.NotNil(t, reply.UI)
	assert.Equal(t, sdui.TypePreferenceChips, reply.UI.Type)
	assert.Contains(t, reply.Content, "Tokyo")
	assert.Equal(t, "Trip to Tokyo", state.Title)

	// Mid-flow answers stay in the demo even without a keyword.
	require.NoError(t, wait(t, send(t, e, "Mumbai")))
	assert.Equal(t, sdui.TypeDateRangePicker, e.Snapshot().Messages[3].UI.Type)

	api.AssertNotCalled(t, "StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDemo_WidgetSubmissionsReachResults(t *testing.T) {
	history := newHistory()
	e := newEngine(&conversation.Config{DemoMode: true, Sessions: newSessions(), History: history})
	ctx := context.Background()

	require.NoError(t, wait(t, send(t, e, "Tokyo")))

	submit := func(value interface{}) conversation.State {
		t.Helper()
		state := e.Snapshot()
		last := state.LastMessage()
		require.NotNil(t, last)
		turn, err := e.SubmitWidget(ctx, last.ID, value)
		require.NoError(t, err)
		require.NoError(t, wait(t, turn))
		return e.Snapshot()
	}

	state := submit("Mumbai")
	assert.Equal(t, "Mumbai", state.Messages[2].Content)
	assert.True(t, state.Messages[1].UIHandled)

	state = submit(sdui.DateRange{Start: fixedNow.AddDate(0, 0, 10), End: fixedNow.AddDate(0, 0, 12)})
	assert.Equal(t, `{"start_date":"2026-03-11","end_date":"2026-03-13"}`, state.Messages[4].Content)

	state = submit(50000)
	assert.Equal(t, sdui.TypeCompanionSelector, state.LastMessage().UI.Type)

	state = submit(sdui.CompanionSubmission{Type: "solo", Count: 1})

	reply := state.LastMessage()
	assert.Nil(t, reply.UI)
	require.Len(t, reply.UIComponents, 3)
	assert.Equal(t, sdui.TypeFlightCard, reply.UIComponents[0].Type)
	assert.Equal(t, sdui.TypeItineraryCard, reply.UIComponents[1].Type)
	assert.Equal(t, sdui.TypeMapView, reply.UIComponents[2].Type)
	assert.Empty(t, state.Tasks)
	assert.False(t, state.IsLoading)

	itinerary, err := reply.UIComponents[1].ItineraryCard()
	require.NoError(t, err)
	assert.Len(t, itinerary.Days, 3)
	assert.Equal(t, "2026-03-11", itinerary.Days[0].Date)

	history.AssertCalled(t, "UpdateTitle", "chat-1", "Trip to Tokyo")
}

func TestSubmitWidget_Rejections(t *testing.T) {
	e := newEngine(&conversation.Config{DemoMode: true})
	ctx := context.Background()

	_, err := e.SubmitWidget(ctx, "nope", "x")
	assert.Error(t, err)

	require.NoError(t, wait(t, send(t, e, "Tokyo")))
	state := e.Snapshot()

	_, err = e.SubmitWidget(ctx, state.Messages[0].ID, "x")
	assert.ErrorIs(t, err, sdui.ErrNotInteractive)

	_, err = e.SubmitWidget(ctx, state.Messages[1].ID, 42)
	assert.ErrorIs(t, err, sdui.ErrInvalidSubmission)

	e.MarkUIHandled()
	_, err = e.SubmitWidget(ctx, state.Messages[1].ID, "Delhi")
	assert.ErrorIs(t, err, conversation.ErrWidgetHandled)
}

func TestDemo_ForcedModeOutsideFlow(t *testing.T) {
	e := newEngine(&conversation.Config{DemoMode: true})

	require.NoError(t, wait(t, send(t, e, "hello")))

	reply := e.Snapshot().Messages[1]
	require.NotNil(t, reply.UI)
	assert.Equal(t, sdui.TypeQuickActions, reply.UI.Type)

	turn, err := e.SubmitWidget(context.Background(), reply.ID, "paris")
	require.NoError(t, err)
	require.NoError(t, wait(t, turn))
	assert.Equal(t, "I want to go to Paris", e.Snapshot().Messages[2].Content)
	assert.Equal(t, sdui.TypePreferenceChips, e.Snapshot().Messages[3].UI.Type)
}

func TestDemo_CancelStopsTimers(t *testing.T) {
	e := newEngine(&conversation.Config{DemoMode: true, Pacing: demo.RealTime})

	turn := send(t, e, "Tokyo")
	time.Sleep(20 * time.Millisecond)
	e.Cancel()

	assert.ErrorIs(t, wait(t, turn), context.Canceled)
	after := e.Snapshot()
	assert.False(t, after.IsLoading)
	assert.False(t, after.Messages[1].IsStreaming)
	assert.Nil(t, after.Messages[1].UI)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, after, e.Snapshot())
}

func TestLoadChat(t *testing.T) {
	chips := sdui.MustComponent(sdui.TypePreferenceChips, sdui.PreferenceChipsProps{Options: []sdui.Option{{ID: "a", Label: "A"}}})
	stored := []models.Message{
		{ID: "m1", Role: models.RoleUser, Content: "Tokyo"},
		{ID: "m2", Role: models.RoleAssistant, Content: "Where from?", UI: chips, UIHandled: true},
	}
	history := newHistory()
	history.On("Load", mock.Anything, "chat-9").
		Return(&models.Chat{ID: "chat-9", SessionID: "sess-9", Title: "Trip to Tokyo"}, stored, nil)
	e := newEngine(&conversation.Config{History: history, DemoMode: true})

	require.NoError(t, e.LoadChat(context.Background(), "chat-9"))

	state := e.Snapshot()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "chat-9", state.ChatID)
	assert.Equal(t, "sess-9", state.SessionID)
	assert.Equal(t, "Trip to Tokyo", state.Title)
	assert.True(t, state.Messages[1].HasOpenUI())
}

func TestLoadChat_RefusedInFlight(t *testing.T) {
	release := make(chan struct{})
	api := &mocks.MockChatAPI{}
	api.On("StreamChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			handlersOf(args).OnDone(&sse.Event{Type: sse.EventDone})
		}).
		Return(nil)
	history := newHistory()
	e := newEngine(&conversation.Config{ChatAPI: api, Sessions: newSessions(), History: history})

	turn := send(t, e, "hello")

	assert.ErrorIs(t, e.LoadChat(context.Background(), "chat-9"), conversation.ErrTurnInFlight)
	assert.ErrorIs(t, e.NewChat(), conversation.ErrTurnInFlight)
	history.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)

	close(release)
	require.NoError(t, wait(t, turn))
	assert.Len(t, e.Snapshot().Messages, 2)
}

func TestNewChat_ResetsEverything(t *testing.T) {
	flow := demo.NewFlow(&demo.FlowConfig{Now: func() time.Time { return fixedNow }})
	e := newEngine(&conversation.Config{DemoMode: true, Demo: flow})
	require.NoError(t, wait(t, send(t, e, "Tokyo")))
	require.True(t, flow.InFlow())

	require.NoError(t, e.NewChat())

	state := e.Snapshot()
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.ChatID)
	assert.Equal(t, models.DefaultChatTitle, state.Title)
	assert.False(t, flow.InFlow())
}

func TestEngines_DoNotShareDemoState(t *testing.T) {
	a := newEngine(&conversation.Config{DemoMode: true})
	b := newEngine(&conversation.Config{DemoMode: true})

	require.NoError(t, wait(t, send(t, a, "Tokyo")))
	require.NoError(t, wait(t, send(t, b, "Mumbai")))

	assert.Equal(t, sdui.TypePreferenceChips, a.Snapshot().Messages[1].UI.Type)
	assert.Equal(t, sdui.TypeQuickActions, b.Snapshot().Messages[1].UI.Type)
}
