// Package main is the entry point of the reference chat backend. It serves
// the session and chat streaming endpoints the assistant's live path talks
// to, answering with the scripted trip planner.
// @title Trip Assistant Chat API
// @version 1.0
// @description Reference chat backend for the trip assistant: sessions and streamed replies from the scripted trip planner

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tripmind/assistant/docs"
	"github.com/tripmind/assistant/internal/api/handlers"
	"github.com/tripmind/assistant/internal/api/middleware"
	"github.com/tripmind/assistant/internal/api/routes"
	"github.com/tripmind/assistant/internal/config"
	"github.com/tripmind/assistant/internal/core/cache"
	rediscache "github.com/tripmind/assistant/internal/infrastructure/cache/redis"
	"github.com/tripmind/assistant/internal/pkg/encryption"
	"github.com/tripmind/assistant/internal/pkg/logging"
	"github.com/tripmind/assistant/internal/services/demo"
	"github.com/tripmind/assistant/internal/services/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log)

	cacheClient, err := createCache(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache")
	}
	defer cacheClient.Close()

	sealer, err := encryption.NewSealer(cfg.Cache.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session sealer")
	}
	if cfg.Cache.EncryptionKey == "" {
		log.Warn().Msg("SESSION_ENCRYPTION_KEY not set, sessions are cached unencrypted")
	}

	sessionService, err := session.NewService(&session.Config{
		Cache:  cacheClient,
		Sealer: sealer,
		TTL:    cfg.Cache.TTL,
		Logger: &logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session service")
	}

	gin.SetMode(cfg.Server.GinMode)
	router := setupRouter(cfg, cacheClient, sessionService)

	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Address()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}

// createCache creates a cache client based on the configuration.
func createCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cache.Type(cfg.Type) {
	case cache.TypeRedis:
		return rediscache.NewCache(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
			KeyPrefix:  cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// setupRouter creates and configures the Gin router.
func setupRouter(cfg *config.Config, cacheClient cache.Cache, sessionService session.Service) *gin.Engine {
	router := gin.New()

	routes.SetupWithMiddleware(router, &routes.Config{
		HealthHandler:  handlers.NewHealthHandler(cacheClient),
		SessionHandler: handlers.NewSessionHandler(sessionService),
		ChatHandler: handlers.NewChatHandler(&handlers.ChatConfig{
			Sessions: sessionService,
			Pacing:   demo.Pacing(cfg.Demo.Pacing),
		}),
		AuthMiddleware: middleware.NewAuthMiddleware(),
	}, middleware.NewLoggingMiddleware(), middleware.NewErrorMiddleware())

	// Swagger documentation endpoint
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
