package sse_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmind/assistant/internal/api/sse"
	"github.com/tripmind/assistant/internal/domain/models"
)

const sampleStream = "data: {\"type\":\"thinking\",\"message\":\"Searching flights\",\"tool\":\"flights\"}\n" +
	"\n" +
	"data: {\"type\":\"plan\",\"tasks\":[{\"id\":\"t1\",\"label\":\"Find flights\"},{\"id\":\"t2\",\"label\":\"Plan days\",\"status\":\"pending\"}]}\n" +
	"data: {\"type\":\"task_start\",\"taskId\":\"t1\",\"label\":\"Find flights\"}\n" +
	"data: {\"type\":\"token\",\"text\":\"Tōkyō \"}\n" +
	"data: {\"type\":\"token\",\"text\":\"awaits 🗼\"}\n" +
	"data: {\"type\":\"task_complete\",\"taskId\":\"t1\"}\n" +
	"data: {\"type\":\"done\",\"session_id\":\"s-1\",\"chat_title\":\"Trip to Tokyo\",\"ui\":{\"type\":\"quick_actions\",\"props\":{\"actions\":[]}},\"response\":\"Tōkyō awaits 🗼\"}\n"

func newDecoder() *sse.Decoder {
	return sse.NewDecoder(zerolog.Nop())
}

func decodeChunks(chunks ...[]byte) []*sse.Event {
	d := newDecoder()
	var events []*sse.Event
	for _, chunk := range chunks {
		events = append(events, d.Feed(chunk)...)
	}
	return append(events, d.Close()...)
}

func TestDecoder_WholeStream(t *testing.T) {
	events := decodeChunks([]byte(sampleStream))
	require.Len(t, events, 7)

	assert.Equal(t, sse.EventThinking, events[0].Type)
	assert.Equal(t, "flights", events[0].Tool)

	assert.Equal(t, sse.EventPlan, events[1].Type)
	assert.Equal(t, []models.TaskItem{
		{ID: "t1", Label: "Find flights"},
		{ID: "t2", Label: "Plan days", Status: models.TaskStatusPending},
	}, events[1].Tasks)

	assert.Equal(t, "Tōkyō ", events[3].Text)
	assert.Equal(t, "awaits 🗼", events[4].Text)

	done := events[6]
	assert.Equal(t, sse.EventDone, done.Type)
	assert.Equal(t, "s-1", done.SessionID)
	assert.Equal(t, "Trip to Tokyo", done.ChatTitle)
	assert.JSONEq(t, `{"type":"quick_actions","props":{"actions":[]}}`, string(done.UI))
}

func TestDecoder_EverySplitOffsetMatchesWholeDecode(t *testing.T) {
	data := []byte(sampleStream)
	want := decodeChunks(data)

	for i := 0; i <= len(data); i++ {
		got := decodeChunks(data[:i], data[i:])
		require.Equal(t, want, got, "split at byte %d", i)
	}
}

func TestDecoder_EveryTwoWaySplitMatchesWholeDecode(t *testing.T) {
	data := []byte(sampleStream)
	want := decodeChunks(data)

	for i := 0; i <= len(data); i += 7 {
		for j := i; j <= len(data); j += 5 {
			got := decodeChunks(data[:i], data[i:j], data[j:])
			require.Equal(t, want, got, "split at bytes %d and %d", i, j)
		}
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	data := []byte(sampleStream)
	chunks := make([][]byte, len(data))
	for i := range data {
		chunks[i] = data[i : i+1]
	}

	assert.Equal(t, decodeChunks(data), decodeChunks(chunks...))
}

func TestDecoder_MultipleEventsPerChunk(t *testing.T) {
	d := newDecoder()
	events := d.Feed([]byte("data: {\"type\":\"token\",\"text\":\"a\"}\ndata: {\"type\":\"token\",\"text\":\"b\"}\ndata: {\"type\":\"tok"))

	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Text)
	assert.Equal(t, "b", events[1].Text)

	events = d.Feed([]byte("en\",\"text\":\"c\"}\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "c", events[0].Text)
}

func TestDecoder_SplitExactlyAtJSONBoundary(t *testing.T) {
	d := newDecoder()

	assert.Empty(t, d.Feed([]byte(`data: {"type":"token","text":"hi"}`)))
	events := d.Feed([]byte("\n"))

	require.Len(t, events, 1)
	assert.Equal(t, "hi", events[0].Text)
}

func TestDecoder_MalformedLinesSkippedInOrder(t *testing.T) {
	stream := "data: {\"type\":\"token\",\"text\":\"1\"}\n" +
		"data: {not json}\n" +
		"data: {\"type\":\"token\",\"text\":\"2\"}\n" +
		"data: \n" +
		"data: [1,2,3]\n" +
		"event: ping\n" +
		": keep-alive\n" +
		"data: {\"type\":\"token\",\"text\":\"3\"}\n"

	var texts []string
	assert.NotPanics(t, func() {
		for _, evt := range decodeChunks([]byte(stream)) {
			texts = append(texts, evt.Text)
		}
	})
	assert.Equal(t, []string{"1", "2", "3"}, texts)
}

func TestDecoder_UnknownEventIgnored(t *testing.T) {
	events := decodeChunks([]byte("data: {\"type\":\"heartbeat\"}\ndata: {\"type\":\"token\",\"text\":\"x\"}\n"))

	require.Len(t, events, 1)
	assert.Equal(t, sse.EventToken, events[0].Type)
}

func TestDecoder_NothingAfterTerminal(t *testing.T) {
	d := newDecoder()
	events := d.Feed([]byte("data: {\"type\":\"error\",\"message\":\"boom\"}\ndata: {\"type\":\"token\",\"text\":\"late\"}\ndata: {\"type\":\"done\"}\n"))

	require.Len(t, events, 1)
	assert.Equal(t, sse.EventError, events[0].Type)
	assert.True(t, d.Terminated())
	assert.Empty(t, d.Feed([]byte("data: {\"type\":\"token\",\"text\":\"later\"}\n")))
}

func TestDecoder_CarriageReturnLineEndings(t *testing.T) {
	events := decodeChunks([]byte("data: {\"type\":\"token\",\"text\":\"a\"}\r\n\r\ndata: {\"type\":\"done\"}\r\n"))

	require.Len(t, events, 2)
	assert.Equal(t, sse.EventDone, events[1].Type)
}

func TestDecoder_TrailingLineWithoutNewline(t *testing.T) {
	d := newDecoder()

	assert.Empty(t, d.Feed([]byte(`data: {"type":"done","response":"ok"}`)))
	events := d.Close()

	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].Response)
}

// chunkReader returns one chunk per Read call.
type chunkReader struct {
	chunks [][]byte
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestStream_DispatchesUntilTerminal(t *testing.T) {
	var tokens []string
	var done *sse.Event
	h := sse.Handlers{
		OnToken: func(text string) { tokens = append(tokens, text) },
		OnDone:  func(evt *sse.Event) { done = evt },
	}

	err := sse.Stream(context.Background(), strings.NewReader(sampleStream), newDecoder(), h)

	require.NoError(t, err)
	assert.Equal(t, []string{"Tōkyō ", "awaits 🗼"}, tokens)
	require.NotNil(t, done)
	assert.Equal(t, "s-1", done.SessionID)
}

func TestStream_IncompleteBody(t *testing.T) {
	err := sse.Stream(context.Background(), strings.NewReader("data: {\"type\":\"token\",\"text\":\"a\"}\n"), newDecoder(), sse.Handlers{})

	assert.ErrorIs(t, err, sse.ErrStreamIncomplete)
}

func TestStream_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	reader := &chunkReader{chunks: [][]byte{[]byte("data: {\"type\":\"token\",\"text\":\"a\"}\n")}, err: boom}

	var errs []string
	err := sse.Stream(context.Background(), reader, newDecoder(), sse.Handlers{
		OnError: func(message string) { errs = append(errs, message) },
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, errs, "transport errors are reported by the caller")
}

func TestStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sse.Stream(ctx, strings.NewReader(sampleStream), newDecoder(), sse.Handlers{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriter_RoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := sse.NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteThinking("Looking", "search"))
	require.NoError(t, w.WritePlan([]models.TaskItem{{ID: "t1", Label: "Search", Status: models.TaskStatusPending}}))
	require.NoError(t, w.WriteTaskStart("t1", "Search"))
	require.NoError(t, w.WriteToken("Hello"))
	require.NoError(t, w.WriteTaskComplete("t1"))
	require.NoError(t, w.WriteDone(&sse.Event{SessionID: "s-9", Response: "Hello"}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := decodeChunks(rec.Body.Bytes())
	require.Len(t, events, 6)
	assert.Equal(t, sse.EventDone, events[5].Type)
	assert.Equal(t, "s-9", events[5].SessionID)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte(sse.DataPrefix)))
}
