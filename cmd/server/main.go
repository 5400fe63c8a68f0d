package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voltforge/stackopt/internal/config"
	"github.com/voltforge/stackopt/internal/logging"
	"github.com/voltforge/stackopt/internal/optimization"
	"github.com/voltforge/stackopt/internal/optimization/engine"
	"github.com/voltforge/stackopt/internal/oracle"
	"github.com/voltforge/stackopt/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is not actionable

	logger = logger.With(
		zap.String("service", "stackopt"),
		zap.String("environment", cfg.Environment),
	)

	catalog, err := optimization.LoadCatalog(cfg.Engine.MaterialCatalog)
	if err != nil {
		logger.Fatal("failed to load material catalog", zap.Error(err))
	}

	predictor := server.InstrumentOracle(oracle.New(catalog))
	eng := engine.New(predictor,
		engine.WithCatalog(catalog),
		engine.WithLogger(logger),
		engine.WithEvalWorkers(cfg.Engine.EvalWorkers),
	)
	srv := server.New(eng, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(server.Recovery(logger))
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	srv.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shut down", zap.Error(err))
	}
	if err := srv.Close(); err != nil {
		logger.Error("error closing server resources", zap.Error(err))
	}

	logger.Info("server stopped")
}
