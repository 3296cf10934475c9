// Package main provides the entry point for the image-to-video API server.
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
	"time"

	"github.com/joho/godotenv"

	"github.com/hari-v068/project-i2v/internal/archive"
	"github.com/hari-v068/project-i2v/internal/callback"
	"github.com/hari-v068/project-i2v/internal/config"
	"github.com/hari-v068/project-i2v/internal/pika"
	"github.com/hari-v068/project-i2v/internal/pipeline"
	"github.com/hari-v068/project-i2v/internal/replicate"
	"github.com/hari-v068/project-i2v/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environment variables take precedence
	_ = godotenv.Load()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting i2v API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.Duration("initial_wait", cfg.InitialWait()),
		slog.Duration("max_check_time", cfg.MaxCheckTime()),
		slog.Duration("poll_interval", cfg.PollInterval()),
		slog.Bool("archive_enabled", cfg.ArchiveEnabled()),
	)

	// Initialize archive backend
	var archiver archive.Archiver
	if cfg.ArchiveEnabled() {
		s3Archiver, err := archive.NewS3Archiver(archive.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			TempDir:         cfg.TempDir,
		})
		if err != nil {
			return fmt.Errorf("create S3 archiver: %w", err)
		}
		archiver = s3Archiver
		logger.Info("S3 video archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
	} else {
		archiver = archive.NewPassthrough()
		logger.Info("video archive disabled, callbacks carry provider URLs")
	}

	// Initialize Replicate captioning client
	captioner, err := replicate.NewClient(cfg.ReplicateModelID,
		replicate.WithAPIToken(cfg.ReplicateAPIToken),
	)
	if err != nil {
		return fmt.Errorf("create Replicate client: %w", err)
	}

	// Initialize Pika video client
	video, err := pika.NewClient(cfg.PikapiBaseURL,
		pika.WithToken(cfg.PikapiBearerToken),
	)
	if err != nil {
		return fmt.Errorf("create Pika client: %w", err)
	}

	// Initialize callback notifier
	notifier, err := callback.NewNotifier(cfg.CallbackAPIURL,
		callback.WithAPIKey(cfg.GameAPIKey),
	)
	if err != nil {
		return fmt.Errorf("create callback notifier: %w", err)
	}

	// Initialize completion poller
	poller := pipeline.NewPoller(video, logger,
		pipeline.WithInitialWait(cfg.InitialWait()),
		pipeline.WithCheckInterval(cfg.PollInterval()),
		pipeline.WithMaxCheckTime(cfg.MaxCheckTime()),
	)

	// Initialize pipeline service
	svc := pipeline.NewService(
		captioner,
		video,
		poller,
		notifier,
		archiver,
		pipeline.NewRegistry(),
		logger,
		pipeline.WithCaptionTimeout(cfg.CaptionTimeout()),
	)

	// Initialize HTTP handlers and router
	handlers := server.NewHandlers(svc, logger)
	router := server.NewRouter(handlers, logger, server.DefaultConfig())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...",
		slog.Int("active_requests", svc.ActiveRequests()),
	)
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
