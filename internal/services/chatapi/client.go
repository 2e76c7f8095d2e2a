// Package chatapi provides the HTTP client for the chat backend.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripmind/assistant/internal/api/dto"
	"github.com/tripmind/assistant/internal/api/sse"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
)

const (
	sessionPath = "/session"
	streamPath  = "/chat/stream"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 4096
)

// ChatRequest is a message sent to the chat backend.
type ChatRequest struct {
	Message   string
	SessionID string
}

// Config holds the configuration for the chat API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client talks to the chat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new chat API client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 5 * time.Minute, // streamed replies can be slow
		}
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CreateSession opens a backend session for the bearer token.
func (c *Client) CreateSession(ctx context.Context, token string) (*dto.CreateSessionResponse, error) {
	if token == "" {
		return nil, domainerrors.NewUnauthorizedError("auth token not provided")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var session dto.CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, domainerrors.NewBadGatewayError("invalid session response", resp.StatusCode)
	}
	if session.SessionID == "" {
		return nil, domainerrors.NewBadGatewayError("session response has no session id", resp.StatusCode)
	}

	return &session, nil
}

// StreamChat posts req and dispatches the streamed reply to h until a
// terminal event. Any failure that stops the stream before a terminal event
// is delivered to h.OnError exactly once and also returned, except for
// cancellation of ctx, which is only returned.
func (c *Client) StreamChat(ctx context.Context, req *ChatRequest, token string, h sse.Handlers) error {
	h, report := guard(h)

	err := c.stream(ctx, req, token, h)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("chat stream failed")
		report(domainerrors.UserMessage(err))
	}
	return err
}

func (c *Client) stream(ctx context.Context, req *ChatRequest, token string, h sse.Handlers) error {
	body, err := json.Marshal(&dto.ChatStreamRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq, token)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return domainerrors.NewBadGatewayError("the chat service sent no response", resp.StatusCode)
	}

	err = sse.Stream(ctx, resp.Body, sse.NewDecoder(c.logger), h)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sse.ErrStreamIncomplete):
		return domainerrors.NewBadGatewayError("the response ended unexpectedly", resp.StatusCode)
	default:
		return transportError(ctx, err)
	}
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// guard wraps h so that at most one terminal callback runs. The returned
// report func delivers a transport error unless a terminal event already
// ran.
func guard(h sse.Handlers) (sse.Handlers, func(message string)) {
	var once sync.Once
	onDone := h.OnDone
	onError := h.OnError

	h.OnDone = func(evt *sse.Event) {
		once.Do(func() {
			if onDone != nil {
				onDone(evt)
			}
		})
	}
	h.OnError = func(message string) {
		once.Do(func() {
			if onError != nil {
				onError(message)
			}
		})
	}
	return h, h.OnError
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return domainerrors.NewTimeoutError("request")
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	}
	return domainerrors.NewServiceUnavailableError("the chat service", err)
}

// statusError maps a non-2xx response, preferring the server's own message.
func statusError(resp *http.Response) error {
	message := fmt.Sprintf("the chat service returned status %d", resp.StatusCode)

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body dto.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		message = body.Message
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domainerrors.NewUnauthorizedError(message)
	}
	return domainerrors.NewBadGatewayError(message, resp.StatusCode)
}
