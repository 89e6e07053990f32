package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tphummel/lab_post/internal/config"
	"github.com/tphummel/lab_post/internal/db"
	"github.com/tphummel/lab_post/internal/handlers"
	"github.com/tphummel/lab_post/internal/metrics"
	"github.com/tphummel/lab_post/internal/middleware"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// loadConfig reads the optional config file named by LAB_POST_CONFIG, then
// applies environment overrides. It returns an error when the API token is
// absent.
func loadConfig(getenv func(string) string) (config.Config, error) {
	cfg, err := config.Load(getenv(config.EnvConfigPath))
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(getenv)
	if cfg.Server.APIToken == "" {
		return cfg, fmt.Errorf("%s environment variable is required", config.EnvAPIToken)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(logger)

	database, err := db.New(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	metrics.Register(database)

	h := &handlers.Handler{
		DB:      database,
		Machine: cfg.BootOptions(),
		Version: version,
		Commit:  commit,
	}

	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	handler := middleware.RequestLogger(slog.Default(), skip, h.Routes(cfg.Server.APIToken))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("listening", "port", cfg.Server.Port, "version", version, "machine", cfg.Computer.Serial)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}
	slog.Info("server stopped")
}
