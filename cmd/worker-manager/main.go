// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"seatsathi-workers/internal/common/camunda"
	"seatsathi-workers/internal/common/config"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/common/observability"
	"seatsathi-workers/internal/counseling/service"
	"seatsathi-workers/pkg/registry"

	fmc "seatsathi-workers/internal/workers/counseling/find-matching-colleges"
	gcc "seatsathi-workers/internal/workers/counseling/get-college-cutoff"
	lsc "seatsathi-workers/internal/workers/counseling/load-supplementary-cutoffs"
	rci "seatsathi-workers/internal/workers/counseling/rebuild-cutoff-index"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	log, zapLog := logger.FromConfig(cfg.Logging)
	defer zapLog.Sync()

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if err := config.ValidateForWorkers(cfg); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, camunda.ConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Counseling engine and its stores ---
	svc, err := service.Build(ctx, cfg, service.DefaultOptions(), log)
	if err != nil {
		zapLog.Fatal("counseling service failed to start", zap.Error(err))
	}
	defer svc.Close()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry unavailable, using default job timeouts",
			zap.String("path", cfg.Registry.Path), zap.Error(err))
		reg = &registry.ActivityRegistry{}
	}

	// The index builds in the background; /ready reports when it is done.
	go func() {
		if err := svc.Engine.Warm(ctx); err != nil {
			zapLog.Error("initial index build failed, will retry on first query", zap.Error(err))
		}
	}()

	// --- Workers ---
	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.HandlerFunc) {
		w := camunda.StartWorker(zeebe.Zeebe(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log)
		if w != nil {
			workers = append(workers, w)
		}
	}

	{
		wcfg := fmc.LoadConfig()
		wcfg.Timeout = jobTimeout(reg, fmc.TaskType, wcfg.Timeout)
		handler := fmc.NewHandler(wcfg, svc.Engine, svc.MatchCache, obs, log)
		start(fmc.TaskType, handler.Handle)
	}
	{
		wcfg := gcc.LoadConfig()
		wcfg.Timeout = jobTimeout(reg, gcc.TaskType, wcfg.Timeout)
		handler := gcc.NewHandler(wcfg, svc.Engine, svc.LookupCache, obs, log)
		start(gcc.TaskType, handler.Handle)
	}
	{
		wcfg := lsc.LoadConfig()
		wcfg.Timeout = jobTimeout(reg, lsc.TaskType, wcfg.Timeout)
		handler := lsc.NewHandler(wcfg, svc.Supplementary, obs, log, svc.Caches()...)
		start(lsc.TaskType, handler.Handle)
	}
	{
		wcfg := rci.LoadConfig()
		wcfg.Timeout = jobTimeout(reg, rci.TaskType, wcfg.Timeout)
		handler := rci.NewHandler(wcfg, svc.Engine, obs, log, svc.Caches()...)
		start(rci.TaskType, handler.Handle)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           newHealthMux(svc.Engine, zeebe),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// jobTimeout prefers the activity registry's timeout for a task type.
func jobTimeout(reg *registry.ActivityRegistry, taskType string, fallback time.Duration) time.Duration {
	if activity, ok := reg.Find(taskType); ok {
		return activity.TimeoutDuration(fallback)
	}
	return fallback
}
