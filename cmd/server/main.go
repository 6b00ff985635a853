/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the agency office server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and build config from env + flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the invite reminder scheduler
  5. Configure HTTP router
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -d="./data/office.db"

  # Run with in-memory database
  ./server -d=":memory:"

  # Run on a different address
  ./server -a=":3000"

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/keystone/agency-office/api"
	"github.com/keystone/agency-office/config"
	"github.com/keystone/agency-office/store/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	bootLog := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.NewBuilder(bootLog).FromEnv().FromFlags().GetConfig()

	log := slog.New(slog.NewTextHandler(os.Stdout,
		&slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if cfg.SecretKey == "" {
		log.Warn("SECRET_KEY is empty; session tokens are signed with an empty key")
	}

	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// Initialize handler and scheduler
	handler := api.NewHandler(store, log)

	scheduler := api.NewReminderScheduler(store, log)
	scheduler.CheckInterval = cfg.ReminderInterval
	scheduler.MaxInviteAge = cfg.ReminderAge
	scheduler.Start()
	defer scheduler.Stop()

	// Create router and server
	router := api.NewRouter(handler, []byte(cfg.SecretKey), log)

	server := &http.Server{
		Addr:         cfg.RunAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", slog.String("addr", cfg.RunAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped")
}
