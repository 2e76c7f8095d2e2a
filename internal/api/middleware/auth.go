// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tripmind/assistant/internal/api/dto"
	domainerrors "github.com/tripmind/assistant/internal/domain/errors"
)

const (
	tokenKey  = "auth_token"
	userIDKey = "user_id"

	// userIDLength is the number of hex digits of a token digest used as user id.
	userIDLength = 16
)

// AuthMiddleware extracts bearer tokens. The token is not verified; its
// digest identifies the user so each token owns its sessions.
type AuthMiddleware struct{}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

// Authenticate returns a gin middleware that requires a Bearer token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerrors.ErrCodeUnauthorized,
				Message: reason,
			})
			return
		}

		setToken(c, token)
		c.Next()
	}
}

// Optional returns a gin middleware that accepts requests without a token.
// A malformed header is still rejected.
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, reason := bearerToken(header)
		if reason != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerrors.ErrCodeUnauthorized,
				Message: reason,
			})
			return
		}

		setToken(c, token)
		c.Next()
	}
}

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "invalid authorization header format"
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func setToken(c *gin.Context, token string) {
	c.Set(tokenKey, token)
	c.Set(userIDKey, UserIDFromToken(token))
}

// UserIDFromToken derives a stable user id from a token. An empty token has
// no user.
func UserIDFromToken(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:userIDLength]
}

// GetToken retrieves the auth token from the gin context.
func GetToken(c *gin.Context) string {
	if token, exists := c.Get(tokenKey); exists {
		return token.(string)
	}
	return ""
}

// GetUserID retrieves the user id from the gin context, empty for anonymous
// requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
