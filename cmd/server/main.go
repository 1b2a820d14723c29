package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lessonlines/lessonlines/pkg/app"
	"github.com/lessonlines/lessonlines/pkg/config"
	"github.com/lessonlines/lessonlines/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Error("invalid configuration", "error", err)
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logger.Error("failed to listen", "addr", server.Addr, "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := serve(ctx, server, ln, logger); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// serve runs server on ln until ctx is done, then returns only after
// in-flight requests have drained or the shutdown timeout has passed.
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-done; err != nil {
		logger.Error("shutdown failed", "error", err)
		return err
	}
	return nil
}
