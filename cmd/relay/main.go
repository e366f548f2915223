package main

import (
	"chat-relay/contract"
	"chat-relay/gateway"
	"chat-relay/infrastructure/storage"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// stores bundles the registry and log of the selected backend with their cleanup.
type stores struct {
	registry contract.IParticipantRegistry
	messages contract.IMessageLog
	close    func()
}

// run wires every component and owns the shutdown sequence so deferred
// cleanups always execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env is fine, the environment alone may carry the settings.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	clock := clockwork.NewRealClock()

	// 2. Stores
	s, err := openStores(config, logger, clock)
	if err != nil {
		return exitRuntime, err
	}
	defer s.close()

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// 4. Supervision
	sweeper := workers.NewPresenceSweeper(logger, s.registry, s.messages, clock, metrics,
		config.SweepInterval, config.StaleThreshold, config.StoreTimeout)
	orchestrator := runtime.NewOrchestrator(logger, workers.NewSupervisor(logger, config.RestartInterval), sweeper)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 6. HTTP gateway
	chatService := services.NewChatService(logger, s.registry, s.messages, clock, metrics)
	server := gateway.NewServer(logger, chatService, registry)

	go func() {
		logger.Info("Starting HTTP gateway", "address", config.Address(), "backend", config.StoreBackend)
		if err := server.Listen(config.Address()); err != nil {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Graceful shutdown
	// In-flight requests finish first, then an in-flight sweep, then the stores close.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", "err", err)
	}
	if err := orchestrator.Stop(shutdownCtx); err != nil {
		logger.Error("Workers did not stop in time", "err", err)
	}
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func openStores(config internal.Config, logger *slog.Logger, clock contract.Clock) (stores, error) {
	if config.StoreBackend == internal.BackendMemory {
		return stores{
			registry: runtime.NewRegistry(clock),
			messages: runtime.NewMessageLog(),
			close:    func() {},
		}, nil
	}

	db, err := badger.Open(buildBadgerOpts(config, logger))
	if err != nil {
		return stores{}, fmt.Errorf("database opening failed: %w", err)
	}
	messages, err := storage.NewMessageRepository(db, logger, config.StoreTimeout)
	if err != nil {
		_ = db.Close()
		return stores{}, err
	}

	return stores{
		registry: storage.NewParticipantRepository(db, logger, clock, config.StoreTimeout),
		messages: messages,
		close: func() {
			logger.Info("Closing BadgerDB...")
			if err := errors.Join(messages.Close(), db.Close()); err != nil {
				logger.Error("BadgerDB close failed", "err", err)
			}
		},
	}, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}
