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

	"github.com/blackmichael/spotreport/internal/config"
	"github.com/blackmichael/spotreport/internal/domain"
	"github.com/blackmichael/spotreport/internal/httpserver"
	"github.com/blackmichael/spotreport/internal/logging"
	"github.com/blackmichael/spotreport/internal/store"
	"github.com/blackmichael/spotreport/internal/vision"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewSlog(cfg.Logging.Logger())
	slog.SetDefault(logger)

	repo, err := store.Open(cfg.Database.Driver, cfg.Database.DSN(), store.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()

	var classifier domain.Classifier = vision.Disabled{}
	if cfg.Classifier.Enabled() {
		classifier = vision.NewClient(vision.Config{
			APIKey:  cfg.Classifier.APIKey,
			BaseURL: cfg.Classifier.BaseURL,
			Model:   cfg.Classifier.Model,
			Timeout: cfg.Classifier.Timeout,
			Logger:  logger,
		})
	} else {
		logger.Warn("no classifier API key configured, post submission will be unavailable")
	}

	reportService := domain.NewReportService(repo, repo, classifier, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create the schema in the background; data routes answer 503 until it
	// is ready.
	migrator := store.NewMigrator(repo, store.MigratorOptions{
		InitialDelay: cfg.Database.MigrateInitialDelay,
		MaxDelay:     cfg.Database.MigrateMaxDelay,
		MaxAttempts:  cfg.Database.MigrateMaxAttempts,
	}, logger)
	go migrator.Run(ctx)

	server := httpserver.NewServer(cfg.Server, reportService, migrator, repo, logger)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("server started",
		"addr", cfg.Server.Addr(),
		"database", repo.Driver(),
		"classifier", cfg.Classifier.Enabled(),
	)

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-migrator.Done():
		if err := migrator.Err(); err != nil && ctx.Err() == nil {
			server.Shutdown(context.Background())
			return fmt.Errorf("create schema: %w", err)
		}
		select {
		case <-ctx.Done():
			logger.Info("received signal, shutting down")
		case err := <-serverErr:
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
