package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/logger"
	"github.com/Bapt252/nextvision/pkg/metrics"
	"github.com/Bapt252/nextvision/pkg/telemetry"
	"github.com/Bapt252/nextvision/services/matchengine/internal/httpapi"
	"github.com/Bapt252/nextvision/services/matchengine/internal/wiring"
)

const defaultAddr = ":8080"

func main() {
	cfg := config.MustLoad()

	log := logger.NewWithConfig(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	ctx := logger.WithContext(context.Background(), log,
		"service", cfg.App.Name, "environment", cfg.App.Environment)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("starting matching engine", "version", cfg.App.Version, "environment", cfg.App.Environment)

	if cfg.Tracing.Enabled {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		tp, err := telemetry.Init(initCtx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		initCancel()
		if err != nil {
			log.Warn("failed to init tracing", "error", err)
		} else {
			ctx = telemetry.WithContext(ctx, tp)
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					log.Warn("failed to shut down tracing", "error", err)
				}
			}()
			log.Info("tracing initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	engine, err := wiring.Build(ctx, cfg, m)
	if err != nil {
		log.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn("error closing engine resources", "error", err)
		}
	}()

	handler := httpapi.NewHandler(engine.Match, engine.Batch, engine.Health)

	mux := http.NewServeMux()
	handler.Routes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", metrics.Handler())
	}

	addr := envOr("MATCHENGINE_ADDR", defaultAddr)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	log.Info("server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
