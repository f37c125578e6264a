// Command server starts the HackMate AI HTTP server.
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

	"github.com/redis/go-redis/v9"

	"github.com/hackmate/hackmate-ai/internal/adapter/ai"
	"github.com/hackmate/hackmate-ai/internal/adapter/ai/openrouter"
	"github.com/hackmate/hackmate-ai/internal/adapter/httpserver"
	"github.com/hackmate/hackmate-ai/internal/adapter/observability"
	"github.com/hackmate/hackmate-ai/internal/adapter/repo/postgres"
	"github.com/hackmate/hackmate-ai/internal/app"
	"github.com/hackmate/hackmate-ai/internal/config"
	"github.com/hackmate/hackmate-ai/internal/domain"
	"github.com/hackmate/hackmate-ai/internal/service/freemodels"
	"github.com/hackmate/hackmate-ai/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracing, err := observability.SetupTracing(cfg)
	if err != nil {
		return fmt.Errorf("op=main.tracing: %w", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(rootCtx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("op=main.db: %w", err)
	}
	defer pool.Close()

	projects := postgres.NewProjectRepo(pool)
	tasks := postgres.NewTaskRepo(pool)
	chat := postgres.NewChatRepo(pool)

	// Replicas share a response cache when Redis is configured; a single
	// instance runs fine on the in-memory cache.
	var cache domain.ResponseCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("op=main.redis: %w", err)
		}
		cache = ai.NewRedisCache(redis.NewClient(opts), cfg.CacheTTL)
		slog.Info("response cache backed by redis")
	} else {
		cache = ai.NewMemoryCache(cfg.CacheTTL)
		slog.Info("response cache in memory", slog.Duration("ttl", cfg.CacheTTL))
	}

	client := openrouter.New(cfg)
	walker := ai.NewFallbackWalker(cfg.FreeModels, client)
	assist := usecase.NewAssistService(walker, ai.NewResponseNormalizer(), cache, cfg.MinTasks, cfg.MaxTasks)
	workspace := usecase.NewWorkspaceService(projects, tasks, chat, assist)

	catalog := freemodels.NewService(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.ModelCatalogRefresh)
	go catalog.Run(rootCtx, cfg.FreeModels)

	srv := httpserver.NewServer(cfg, assist, workspace, pool.Ping)
	srv.RosterCheck = func(ctx context.Context) (map[string]bool, error) {
		return catalog.VerifyRoster(ctx, cfg.FreeModels)
	}
	handler := app.BuildRouter(cfg, srv)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("op=main.listen: %w", err)
	case <-rootCtx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("op=main.shutdown: %w", err)
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", slog.Any("error", err))
		}
	}
	return nil
}
