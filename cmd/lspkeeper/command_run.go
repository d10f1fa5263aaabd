package main

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
	"golang.org/x/sync/errgroup"

	lkhttp "github.com/Strob0t/lspkeeper/internal/adapter/http"
	lkotel "github.com/Strob0t/lspkeeper/internal/adapter/otel"
	"github.com/Strob0t/lspkeeper/internal/adapter/ws"
	"github.com/Strob0t/lspkeeper/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Activate the extension host and serve the control API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runHost(ctx, g)
		},
	}
}

func runHost(ctx context.Context, g *globalFlags) error {
	cfg := g.cfg

	shutdownOtel, err := lkotel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	hub := ws.NewHub()
	a, err := newApp(cfg, hub)
	if err != nil {
		return err
	}
	sup := a.ext.Supervisor()

	metrics, err := lkotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}
	a.provision.SetMetrics(metrics)
	sup.SetMetrics(metrics)

	hub.SetGreeter(func(context.Context) (ws.Message, bool) {
		msg, err := ws.NewMessage(ws.EventLSPStatus, service.StatusEvent(sup.Info()))
		if err != nil {
			return ws.Message{}, false
		}
		return msg, true
	})

	a.ext.Activate(ctx)

	eg, egCtx := errgroup.WithContext(ctx)

	if cfg.Control.Enabled {
		srv := &http.Server{
			Addr: cfg.Control.Addr,
			Handler: lkhttp.NewRouter(&lkhttp.Handlers{
				BaseCtx:   ctx,
				Extension: a.ext,
				Namespace: cfg.Preferences.Namespace,
				Hub:       hub,
				Version:   version,
			}),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		eg.Go(func() error {
			slog.Info("control API listening", "addr", cfg.Control.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("control API: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-egCtx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			hub.Close()
			return srv.Shutdown(sctx)
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.ext.Deactivate(sctx)
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	slog.Info("stopped")
	return nil
}
