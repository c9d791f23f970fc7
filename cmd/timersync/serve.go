package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"timer-sync-server/internal/config"
	"timer-sync-server/internal/handler"
	"timer-sync-server/internal/logging"
	"timer-sync-server/internal/repository"
	"timer-sync-server/internal/service"
	"timer-sync-server/internal/watcher"
	"timer-sync-server/internal/websocket"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP sync server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closeLog := logging.New(cfg.Logging)
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer closeRepo()

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnections,
		cfg.WebSocket.MaxMessageSize,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
		logger,
	)
	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(wsManager))
	go wsManager.Run(ctx)

	authService := service.NewAuthService(cfg.Auth.Token, cfg.Auth.TokenHash, cfg.Auth.TicketTTL)
	syncService := service.NewSyncService(repo, wsManager, logger)
	if err := syncService.Prime(ctx); err != nil {
		return fmt.Errorf("failed to read stored document: %w", err)
	}

	if cfg.Store.Backend == config.BackendFile && cfg.Store.Watch {
		if err := startWatcher(ctx, cfg.Store.DataFile, syncService, logger); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: handler.NewRouter(handler.RouterDeps{
			SyncService: syncService,
			AuthService: authService,
			WSManager:   wsManager,
			Config:      cfg,
			Logger:      logger,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting timer sync server",
			"addr", srv.Addr,
			"env", cfg.Server.Env,
			"backend", cfg.Store.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

func startWatcher(ctx context.Context, path string, syncService *service.SyncService, logger *slog.Logger) error {
	w, err := watcher.New(path, logger)
	if err != nil {
		return err
	}

	go func() {
		err := w.Run(ctx, func() {
			if err := syncService.NotifyExternalChange(ctx); err != nil {
				logger.Error("failed to reload data file", "err", err)
			}
		})
		if err != nil {
			logger.Error("data file watcher stopped", "err", err)
		}
	}()
	return nil
}
