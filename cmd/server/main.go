package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"enroll/internal/platform/config"
	"enroll/internal/platform/httpserver"
	"enroll/internal/platform/logger"
	"enroll/internal/platform/scheduler"
)

// main wires dependencies, exposes the HTTP router and runs the reconcile
// schedule until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if err := run(ctx, cfg, log, app); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, app *app) error {
	srv := httpserver.New(cfg.Server.Addr, app.router)

	sched := scheduler.New(log, 0)
	if cfg.Reconcile.Schedule != "" {
		err := sched.Add("reconcile", cfg.Reconcile.Schedule, func(ctx context.Context) error {
			_, err := app.registrants.ReconcileAll(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting enroll", "addr", cfg.Server.Addr, "store", cfg.Store.Backend, "gateway_env", cfg.Gateway.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
