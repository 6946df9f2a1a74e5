package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-hub/auth"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/httpapi"
	"chat-hub/infrastructure/ws"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Keeping everything behind an error
// return guarantees the defers (database and index close) execute on
// every exit path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.NewLogger(config.LogLevel)

	// 2. Storage (BadgerDB) & Search Index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := repositories.NewSearchIndex(bluge.DefaultConfig(config.BlugeFilepath), log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	users := repositories.NewUserRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, log, config.LimitMessages)

	// 3. Moderation
	mask, ok := internal.CensorRune(config.CharReplacement)
	if !ok {
		return fmt.Errorf("CHARACTER_REPLACEMENT must be a single rune, got %q", config.CharReplacement)
	}
	wordlists, err := moderation.LoadWordlists()
	if err != nil {
		return fmt.Errorf("wordlist loading failed: %w", err)
	}
	censor, err := moderation.NewCensor(wordlists.Words, mask)
	if err != nil {
		return fmt.Errorf("censor construction failed: %w", err)
	}
	log.Info("Moderation wordlists loaded",
		"words", len(wordlists.Words), "languages", wordlists.Languages)

	// 4. Realtime Core
	monitor := observability.NewManager()
	registry := runtime.NewRegistry()
	presence := runtime.NewPresenceTracker()
	events := make(chan event.DomainEvent, config.BufferSize)
	router := runtime.NewRouter(
		log, registry, presence,
		users, groups, messages,
		censor, monitor,
		events, config.DeliveryTimeout,
	)

	// 5. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, sup, events, index, monitor, config.MetricInterval)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator.Start(ctx)

	// 7. Services & HTTP Surface
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authSvc := services.NewAuthService(users, tokens)
	chat := services.NewChatService(router, users, groups, messages, index)
	groupSvc := services.NewGroupService(groups, users)
	gateway := ws.NewGateway(
		log, chat, tokens, monitor,
		config.ConnectionBufferSize, config.PingInterval, config.PongTimeout,
	)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           httpapi.New(log, authSvc, chat, groupSvc, tokens, monitor, gateway),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
