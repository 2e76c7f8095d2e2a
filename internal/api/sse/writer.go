package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tripmind/assistant/internal/domain/models"
)

// Writer writes protocol events to an HTTP response.
type Writer struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

// NewWriter creates a new SSE writer.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &Writer{
		writer:  w,
		flusher: flusher,
	}, nil
}

// WriteEvent writes a single event line and flushes it.
func (w *Writer) WriteEvent(evt *Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", evt.Type, err)
	}
	if _, err := fmt.Fprintf(w.writer, "%s%s\n\n", DataPrefix, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// WriteToken writes a token event.
func (w *Writer) WriteToken(text string) error {
	return w.WriteEvent(&Event{Type: EventToken, Text: text})
}

// WriteThinking writes a thinking event.
func (w *Writer) WriteThinking(message, tool string) error {
	return w.WriteEvent(&Event{Type: EventThinking, Message: message, Tool: tool})
}

// WritePlan writes a plan event.
func (w *Writer) WritePlan(tasks []models.TaskItem) error {
	return w.WriteEvent(&Event{Type: EventPlan, Tasks: tasks})
}

// WriteTaskStart writes a task_start event.
func (w *Writer) WriteTaskStart(taskID, label string) error {
	return w.WriteEvent(&Event{Type: EventTaskStart, TaskID: taskID, Label: label})
}

// WriteTaskComplete writes a task_complete event.
func (w *Writer) WriteTaskComplete(taskID string) error {
	return w.WriteEvent(&Event{Type: EventTaskComplete, TaskID: taskID})
}

// WriteDone writes the done event that ends the stream.
func (w *Writer) WriteDone(evt *Event) error {
	evt.Type = EventDone
	return w.WriteEvent(evt)
}

// WriteError writes the error event that ends the stream.
func (w *Writer) WriteError(message string) error {
	return w.WriteEvent(&Event{Type: EventError, Message: message})
}
