package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/api"
	"github.com/triage-ai/rulewall/internal/config"
	"github.com/triage-ai/rulewall/internal/ingest"
)

const (
	startupPingTimeout = 10 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP firewall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := mustBuildLogger(cfg.Log.Level)
			defer logger.Sync() //nolint:errcheck // best-effort flush

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting rulewall",
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.String("rulestore", cfg.RuleStore.Backend),
		zap.String("classifier", cfg.Policy.Classifier),
		zap.String("events", cfg.Events.Backend),
		zap.String("chat_model", cfg.LLM.ChatModel),
	)

	a, err := buildApp(ctx, cfg, true, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown cleanup failed", zap.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	err = a.store.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("rule store unreachable: %w", err)
	}
	logger.Info("rule store connected", zap.String("backend", cfg.RuleStore.Backend))

	if cfg.Ingest.Watch {
		w := ingest.NewWatcher(a.pipeline, cfg.Ingest.SourceRoot, cfg.Ingest.Debounce, logger)
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("source watcher stopped", zap.Error(err))
			}
		}()
		logger.Info("watching source tree", zap.String("root", cfg.Ingest.SourceRoot))
	}

	handler, err := api.NewRouter(&api.Dependencies{
		Enforcer:       a.enforcer,
		Ingester:       a.pipeline,
		RuleStore:      a.store,
		SourceRoot:     cfg.Ingest.SourceRoot,
		AdminTokenHash: cfg.Server.AdminTokenHash,
		MaxTextLength:  cfg.Server.MaxTextLength,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	if cfg.Server.AdminTokenHash == "" {
		logger.Warn("no admin token hash configured; /ingest/files is unauthenticated")
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.HTTPPort),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("rulewall stopped")
	return nil
}
