// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ChatStreamRequest represents the request body of POST /chat/stream.
type ChatStreamRequest struct {
	Message   string `json:"message" binding:"required,min=1,max=32000"`
	SessionID string `json:"session_id,omitempty"`
}
