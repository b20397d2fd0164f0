package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ragline/internal/app"
	"ragline/internal/config"
	"ragline/internal/handlers"
	"ragline/internal/server"
	"ragline/pkg/logx"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logx.Init(false, slog.LevelInfo)
		logx.New("main").Error("loading config failed", "error", err)
		os.Exit(1)
	}

	logx.Init(cfg.Prod, cfg.SlogLevel())
	logger := logx.New("main")

	ctx, stopServices := context.WithCancel(context.Background())
	defer stopServices()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("wiring services failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	h := handlers.New(application.Query, application.Ingestor, application.Store, handlers.Info{
		CollectionName: cfg.CollectionName,
		EmbeddingModel: cfg.EmbeddingModel,
		LLMModel:       cfg.LLMModel,
	})
	srv := server.New(cfg, h)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server crashed", "error", err)
			os.Exit(1)
		}
	case sig := <-gracefulShutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
