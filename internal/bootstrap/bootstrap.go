// Package bootstrap provides dependency initialization for the image-to-video API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/hari-v068/project-i2v/internal/archive"
	"github.com/hari-v068/project-i2v/internal/callback"
	"github.com/hari-v068/project-i2v/internal/config"
	"github.com/hari-v068/project-i2v/internal/pika"
	"github.com/hari-v068/project-i2v/internal/pipeline"
	"github.com/hari-v068/project-i2v/internal/replicate"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Pipeline *pipeline.Service
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	captioner, err := replicate.NewClient(cfg.ReplicateModelID,
		replicate.WithAPIToken(cfg.ReplicateAPIToken),
	)
	if err != nil {
		return nil, fmt.Errorf("create Replicate client: %w", err)
	}

	video, err := pika.NewClient(cfg.PikapiBaseURL,
		pika.WithToken(cfg.PikapiBearerToken),
	)
	if err != nil {
		return nil, fmt.Errorf("create Pika client: %w", err)
	}

	notifier, err := callback.NewNotifier(cfg.CallbackAPIURL,
		callback.WithAPIKey(cfg.GameAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("create callback notifier: %w", err)
	}

	archiver, err := initArchiver(cfg, logger)
	if err != nil {
		return nil, err
	}

	poller := pipeline.NewPoller(video, logger,
		pipeline.WithInitialWait(cfg.InitialWait()),
		pipeline.WithCheckInterval(cfg.PollInterval()),
		pipeline.WithMaxCheckTime(cfg.MaxCheckTime()),
	)

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

	return &Dependencies{
		Pipeline: svc,
	}, nil
}

// initArchiver creates the appropriate archive backend based on configuration.
func initArchiver(cfg *config.Config, logger *slog.Logger) (archive.Archiver, error) {
	if cfg.ArchiveEnabled() {
		archiveCfg := archive.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			TempDir:         cfg.TempDir,
		}
		s3Archiver, err := archive.NewS3Archiver(archiveCfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 archiver: %w", err)
		}
		logger.Info("S3 video archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Archiver, nil
	}

	logger.Info("video archive disabled, callbacks carry provider URLs")
	return archive.NewPassthrough(), nil
}
