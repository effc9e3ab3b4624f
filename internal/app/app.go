package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/Keith994/everyone-can-use-english/internal/adapter/ai"
	"github.com/Keith994/everyone-can-use-english/internal/adapter/storeapi"
	"github.com/Keith994/everyone-can-use-english/internal/config"
	"github.com/Keith994/everyone-can-use-english/internal/service/batch"
	"github.com/Keith994/everyone-can-use-english/internal/service/extraction"
	"github.com/Keith994/everyone-can-use-english/internal/service/lookup"
	"github.com/Keith994/everyone-can-use-english/internal/service/pipeline"
	"github.com/Keith994/everyone-can-use-english/internal/textindex"
	"github.com/Keith994/everyone-can-use-english/internal/transport/middleware"
	"github.com/Keith994/everyone-can-use-english/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, wires the
// store client, AI adapter, pipeline services, and HTTP transport, then
// serves until ctx is cancelled and shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.Bool("ai_configured", cfg.AI.Configured()),
	)

	store := storeapi.NewClient(cfg.Store, logger)
	aiClient := ai.New(cfg.AI, logger)

	indexes, err := textindex.NewCache(cfg.Index.CacheSize)
	if err != nil {
		return fmt.Errorf("init index cache: %w", err)
	}

	extractionSvc := extraction.NewService(logger, store, aiClient, cfg.AI)
	builder := lookup.NewBuilder(logger, store)
	resolver := lookup.NewResolver(logger, store, aiClient, cfg.AI)

	coordinator := pipeline.New(logger, store, extractionSvc, builder, resolver, indexes, cfg.Store.MeaningsLimit)
	controller := batch.NewController(logger, resolver, coordinator)

	mux := http.NewServeMux()

	health := rest.NewHealthHandler(store, BuildVersion())
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)

	rest.NewPipelineHandler(coordinator, controller).Register(mux)

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)(mux)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
		controller.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
