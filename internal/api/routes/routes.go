// Package routes defines the HTTP routes of the reference chat backend.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tripmind/assistant/internal/api/handlers"
	"github.com/tripmind/assistant/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler  *handlers.HealthHandler
	SessionHandler *handlers.SessionHandler
	ChatHandler    *handlers.ChatHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// Health check routes (no auth required)
	r.GET("/health", cfg.HealthHandler.Health)
	r.GET("/ready", cfg.HealthHandler.Ready)
	r.GET("/live", cfg.HealthHandler.Live)

	sessions := r.Group("/session")
	sessions.Use(cfg.AuthMiddleware.Authenticate())
	{
		sessions.POST("", cfg.SessionHandler.Create)
		sessions.DELETE("", cfg.SessionHandler.DeleteAll)
	}

	// Anonymous callers may chat; their sessions are shared by every
	// anonymous caller who knows the session id.
	chat := r.Group("/chat")
	chat.Use(cfg.AuthMiddleware.Optional())
	{
		chat.POST("/stream", cfg.ChatHandler.Stream)
	}

	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware) {
	r.HandleMethodNotAllowed = true

	r.Use(loggingMw.RequestLogger())
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())

	Setup(r, cfg)
}
