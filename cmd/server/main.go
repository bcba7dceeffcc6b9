package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/openshelf/bookshare/pkg/bookshare/api"
	"github.com/openshelf/bookshare/pkg/bookshare/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, closeService, err := cfg.BuildService(ctx, logger)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer closeService()

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)

	router := api.NewRouter(api.RouterConfig{
		Service:        svc,
		TokenAuth:      tokenAuth,
		AllowedOrigins: cfg.AllowedOrigins(),
		Health: api.HealthStatus{
			Environment:        cfg.Environment,
			JWTConfigured:      cfg.JWTSecret != "",
			DatabaseConfigured: cfg.Database.Driver == "memory" || cfg.Database.URL != "",
			StorageConfigured:  cfg.Storage.Backend == "memory" || cfg.Storage.S3.Bucket != "",
		},
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		slog.Info("Bookshare server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.Database.Driver,
			"storage", cfg.Storage.Backend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}
