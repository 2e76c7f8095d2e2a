package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripmind/assistant/internal/api/dto"
	"github.com/tripmind/assistant/internal/api/middleware"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
	"github.com/tripmind/assistant/internal/services/session"
)

// SessionHandler handles backend session endpoints.
type SessionHandler struct {
	sessions session.Service
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions session.Service) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create handles POST /session.
// @Summary Create a session
// @Description Opens a backend session for the caller; its id is sent with later chat requests
// @Tags Sessions
// @Produce json
// @Success 201 {object} dto.CreateSessionResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /session [post]
func (h *SessionHandler) Create(c *gin.Context) {
	created, err := h.sessions.Create(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("session store", err))
		return
	}

	c.JSON(http.StatusCreated, dto.CreateSessionResponse{
		SessionID: created.SessionID,
		Message:   "session created",
	})
}

// DeleteAll handles DELETE /session: every session of the caller is removed.
// @Summary Delete sessions
// @Description Removes every session of the caller
// @Tags Sessions
// @Produce json
// @Success 200 {object} dto.DeleteSessionsResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /session [delete]
func (h *SessionHandler) DeleteAll(c *gin.Context) {
	n, err := h.sessions.DeleteUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("session store", err))
		return
	}

	c.JSON(http.StatusOK, dto.DeleteSessionsResponse{Deleted: n})
}
