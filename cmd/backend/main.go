package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	blobimpl "github.com/shirakawalab/kikitori/external/blob"
	configloader "github.com/shirakawalab/kikitori/external/config"
	"github.com/shirakawalab/kikitori/external/httpserver"
	queueimpl "github.com/shirakawalab/kikitori/external/queue"
	repositoryimpl "github.com/shirakawalab/kikitori/external/repository"
	transcriberimpl "github.com/shirakawalab/kikitori/external/transcriber"
	"github.com/shirakawalab/kikitori/internal/config"
	"github.com/shirakawalab/kikitori/internal/lifecycle"
	"github.com/shirakawalab/kikitori/internal/queue"
	"github.com/samber/do/v2"
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	run(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	queueimpl.RegisterDI(injector)
	blobimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	lifecycle.RegisterDI(injector)
	httpserver.RegisterDI(injector)

	return injector
}

func run(cfg *config.Config, injector do.Injector) {
	server, err := do.Invoke[*httpserver.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}
	store, err := do.Invoke[queue.Store](injector)
	if err != nil {
		slog.Error("failed to resolve task queue", "error", err)
		os.Exit(1)
	}
	dispatcher, err := do.Invoke[*queue.Dispatcher](injector)
	if err != nil {
		slog.Error("failed to resolve task dispatcher", "error", err)
		os.Exit(1)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	worker := queue.NewWorker(store, dispatcher, cfg.WorkerConcurrency, time.Duration(cfg.WorkerPollIntervalSec)*time.Second)
	workerDone := make(chan struct{})
	go func() {
		slog.Info("startup: task workers running", "concurrency", cfg.WorkerConcurrency)
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("worker loop ended", "error", err)
		}
		close(workerDone)
	}()

	server.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	if err := server.Shutdown(context.Background()); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	stopWorkers()
	<-workerDone
	slog.Info("shutdown complete")
}
