// Package main is the entry point for the BrandPress content backend.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brandpress/internal/analytics"
	"brandpress/internal/cache"
	"brandpress/internal/config"
	"brandpress/internal/database"
	"brandpress/internal/handlers"
	"brandpress/internal/i18n"
	"brandpress/internal/lifecycle"
	"brandpress/internal/logger"
	"brandpress/internal/registry"
	"brandpress/internal/router"
	"brandpress/internal/session"
	"brandpress/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger — colored console in development, JSON elsewhere.
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"primary_locale", cfg.PrimaryLocale,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + visit dedup fast path).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Session store backed by Valkey. Outside development, session cookies
	// are marked Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Data stores.
	documents := store.NewDocumentStore(db)
	userStore := store.NewUserStore(db)
	auditLog := store.NewAuditLogStore(db)

	// Core services.
	slugRegistry := registry.New(documents)
	envelope := i18n.New(cfg.PrimaryLocale)
	manager := lifecycle.New(documents, slugRegistry, envelope, auditLog)

	// Analytics gate with a Valkey first-seen marker. 48h covers every
	// timezone's view of "today" around the UTC day boundary.
	visitDedup := cache.NewDedup(valkeyClient, 48*time.Hour)
	gate := analytics.New(documents, visitDedup)

	// Handler groups.
	contentHandlers := handlers.NewContent(manager)
	publicHandlers := handlers.NewPublic(slugRegistry, manager, envelope)
	visitHandlers := handlers.NewVisits(gate)
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	adminHandlers := handlers.NewAdmin(gate, auditLog)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, contentHandlers, publicHandlers, visitHandlers, authHandlers, adminHandlers)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
