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

	"github.com/Simplici0/auditdays/internal/config"
	"github.com/Simplici0/auditdays/internal/db"
	"github.com/Simplici0/auditdays/internal/migrations"
	"github.com/Simplici0/auditdays/internal/seed"
	"github.com/Simplici0/auditdays/internal/store"
	"github.com/Simplici0/auditdays/web"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Warn(logger)

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.IsDev() {
		applied, err := migrations.Up(ctx, database)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "count", applied)
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		return err
	}
	logger.Info("seed completed", "inserts", stats.Inserts)

	views, err := web.NewRenderer()
	if err != nil {
		return err
	}

	st := store.New(database)
	configs := store.NewConfigCache(st.Configs, cfg.ConfigCacheTTL)
	go reloadOnHangup(ctx, logger, configs)

	srv := newServer(serverDeps{
		logger:         logger,
		db:             database,
		store:          st,
		configs:        configs,
		views:          views,
		sessionSecret:  cfg.SessionSecret,
		secureCookies:  !cfg.IsDev(),
		metricsEnabled: cfg.MetricsEnabled,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// reloadOnHangup drops the cached configuration on SIGHUP so edits made with auditctl
// take effect without a restart.
func reloadOnHangup(ctx context.Context, logger *slog.Logger, configs *store.ConfigCache) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			configs.Invalidate()
			logger.Info("configuration cache invalidated")
		}
	}
}
