package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/motivaitor/insight/internal/scheduler"
	"github.com/motivaitor/insight/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(a.db, a.abilities, cfg.Scheduler.Cron, cfg.Scheduler.Concurrency)
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
		slog.Info("scheduler started", "cron", cfg.Scheduler.Cron)
	}

	srv := server.New(a.db, server.Options{
		Momentum:  &a.momentum,
		Abilities: a.abilities,
		Index:     a.index,
		Gateway:   a.gateway,
		Auth:      server.AuthConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer},
	}, VersionString())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("insight serving", "addr", httpServer.Addr, "auth", cfg.Auth.JWTSecret != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
