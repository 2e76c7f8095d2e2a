// Package main is the terminal chat client. It runs a conversation engine
// against the chat backend, or the scripted demo when no backend is
// configured, and prints the conversation as it streams.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripmind/assistant/internal/config"
	"github.com/tripmind/assistant/internal/core/chatstore"
	firestorestore "github.com/tripmind/assistant/internal/infrastructure/chatstore/firestore"
	"github.com/tripmind/assistant/internal/infrastructure/chatstore/mongodb"
	"github.com/tripmind/assistant/internal/pkg/logging"
	"github.com/tripmind/assistant/internal/render/terminal"
	"github.com/tripmind/assistant/internal/services/chatapi"
	"github.com/tripmind/assistant/internal/services/conversation"
	"github.com/tripmind/assistant/internal/services/demo"
	"github.com/tripmind/assistant/internal/services/history"
	"github.com/tripmind/assistant/internal/services/session"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := createStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat store")
	}

	var recorder *history.Recorder
	if store != nil {
		recorder, err = history.NewRecorder(&history.Config{
			Store:        store,
			Workers:      cfg.Store.HistoryWorkers,
			QueueSize:    cfg.Store.HistoryQueueSize,
			WriteTimeout: cfg.Store.HistoryWriteTimeout,
			Logger:       &logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize history recorder")
		}
	}

	bootstrap := &session.BootstrapConfig{
		Store:     store,
		AuthToken: cfg.Client.AuthToken,
		UserID:    cfg.Client.UserID,
		Logger:    &logger,
	}
	engineCfg := &conversation.Config{
		DemoMode:      cfg.Client.DemoMode,
		Pacing:        demo.Pacing(cfg.Demo.Pacing),
		AuthToken:     cfg.Client.AuthToken,
		StreamTimeout: cfg.Client.StreamTimeout,
		Logger:        &logger,
	}

	if !cfg.Client.DemoMode && cfg.Client.APIURL != "" {
		api, err := chatapi.NewClient(&chatapi.Config{BaseURL: cfg.Client.APIURL, Logger: &logger})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize chat API client")
		}
		bootstrap.API = api
		engineCfg.ChatAPI = api
	}
	engineCfg.Sessions = session.NewBootstrapper(bootstrap)
	if recorder != nil {
		engineCfg.History = recorder
	}

	printer := terminal.NewPrinter(os.Stdout, terminal.NewRegistry())
	engineCfg.OnChange = printer.Update
	engine := conversation.NewEngine(engineCfg)

	r := &repl{
		engine:  engine,
		printer: printer,
		userID:  cfg.Client.UserID,
		out:     os.Stdout,
	}
	if recorder != nil {
		r.chats = recorder
	}

	fmt.Fprintln(os.Stdout, "Where would you like to go? Type /help for commands.")
	r.run(ctx, os.Stdin)

	engine.Cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if recorder != nil {
		recorder.Stop(shutdownCtx)
	}
	if store != nil {
		if err := store.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close chat store")
		}
	}
}

// createStore creates the chat history store based on the configuration. It
// returns nil when history is disabled.
func createStore(ctx context.Context, cfg config.StoreConfig) (chatstore.Store, error) {
	switch chatstore.Type(cfg.Type) {
	case chatstore.TypeNone:
		return nil, nil
	case chatstore.TypeMongoDB:
		client, err := mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.MongoURI,
			DatabaseName: cfg.MongoDatabase,
		})
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure indexes")
		}
		return client, nil
	case chatstore.TypeFirestore:
		client, err := firestorestore.NewClient(ctx, &firestorestore.ClientConfig{
			ProjectID:       cfg.FirestoreProject,
			CredentialsFile: cfg.FirestoreCredFile,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
