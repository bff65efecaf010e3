package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/bonetider/internal/logger"
	"github.com/pfrederiksen/bonetider/internal/server"
	"github.com/pfrederiksen/bonetider/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve prayer times over HTTP",
		Long: `Serve today's prayer times as JSON on /prayer-times and
/.netlify/functions/prayer-times, with /health and /metrics endpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd)
		},
	}

	cmd.Flags().String("host", "", "Listen host (default localhost)")
	cmd.Flags().Int("port", 0, "Listen port (default 8888)")
	a.v.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	svc, err := a.newService("", nil, loc, a.cfg.Server.CacheTTL, nil)
	if err != nil {
		return err
	}

	metrics := logger.DefaultMetrics()

	srv, err := server.NewServer(svc, metrics, &server.Config{
		Host: a.cfg.Server.Host,
		Port: a.cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	go a.evictExpired(ctx, svc.Cache())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("running server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// evictExpired drops stale cache entries until ctx is done
func (a *app) evictExpired(ctx context.Context, cache *service.Cache) {
	interval := a.cfg.Server.CacheTTL
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cache.CleanExpired(); n > 0 {
				logger.Debug("Evicted expired cache entries", logger.Fields{"count": n})
			}
		}
	}
}
