package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hari-v068/project-i2v/internal/archive"
	"github.com/hari-v068/project-i2v/internal/callback"
	"github.com/hari-v068/project-i2v/internal/pika"
	"github.com/hari-v068/project-i2v/internal/replicate"
)

// Static errors for pipeline phases.
var (
	// ErrCaptionFailed is the cause when the captioning phase fails.
	ErrCaptionFailed = errors.New("pipeline: caption generation failed")
	// ErrJobSubmissionFailed is the cause when the video job cannot be submitted.
	ErrJobSubmissionFailed = errors.New("pipeline: video job submission failed")
)

// Request is one accepted generation request.
type Request struct {
	// ID is the caller-supplied correlation token.
	ID string
	// ImageURL is the image to animate.
	ImageURL string
}

// Service orchestrates the full generation flow for accepted requests:
// caption the image, submit the video job, poll it to a terminal outcome,
// optionally archive the result, and deliver the callback.
type Service struct {
	captioner      replicate.Client
	video          pika.Client
	poller         *Poller
	notifier       callback.Notifier
	archiver       archive.Archiver
	registry       *Registry
	logger         *slog.Logger
	captionTimeout time.Duration
	generateOpts   pika.GenerateOptions
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithCaptionTimeout bounds how long the captioning phase may take.
func WithCaptionTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.captionTimeout = d
	}
}

// WithGenerateOptions sets the parameters sent with every video job.
func WithGenerateOptions(opts pika.GenerateOptions) ServiceOption {
	return func(s *Service) {
		s.generateOpts = opts
	}
}

// NewService creates the request processing service.
// If archiver is nil, results are reported with the provider URL as-is.
// If registry is nil, a fresh one is created. If logger is nil,
// slog.Default() is used.
func NewService(
	captioner replicate.Client,
	video pika.Client,
	poller *Poller,
	notifier callback.Notifier,
	archiver archive.Archiver,
	registry *Registry,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if archiver == nil {
		archiver = archive.NewPassthrough()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		captioner:      captioner,
		video:          video,
		poller:         poller,
		notifier:       notifier,
		archiver:       archiver,
		registry:       registry,
		logger:         logger,
		captionTimeout: 120 * time.Second,
		generateOpts:   pika.DefaultGenerateOptions(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ActiveRequests returns the number of requests currently being processed.
func (s *Service) ActiveRequests() int {
	return s.registry.Len()
}

// Process runs the full flow for one request and delivers exactly one
// callback with the terminal result. It is meant to run in its own
// goroutine; it never returns an error and never panics.
func (s *Service) Process(ctx context.Context, req Request) {
	entry := s.registry.Add(req.ID, req.ImageURL)
	defer func() { _ = s.registry.Remove(req.ID) }()

	start := time.Now()
	outcome := s.execute(ctx, req, entry)

	var payload callback.Payload
	if outcome.State == StateSucceeded {
		payload = callback.NewSuccess(outcome.VideoURL)
	} else {
		payload = callback.NewFailure()
		s.logger.Error("request failed",
			"request_id", req.ID,
			"state", outcome.State,
			"cause", outcome.Cause,
		)
	}

	if err := s.notifier.Notify(ctx, req.ID, payload); err != nil {
		s.logger.Error("callback delivery failed", "request_id", req.ID, "error", err)
		return
	}

	s.logger.Info("callback delivered",
		"request_id", req.ID,
		"status", payload.Data.Status,
		"duration", time.Since(start),
	)
}

// execute drives the request to a terminal outcome. Panics are recovered
// into a Failed outcome so the caller's single callback attempt still runs.
func (s *Service) execute(ctx context.Context, req Request, entry *Entry) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while processing request", "request_id", req.ID, "panic", r)
			if !entry.GetState().IsTerminal() {
				_ = entry.Fail(fmt.Sprint(r))
			}
			outcome = Outcome{State: StateFailed, Cause: fmt.Errorf("pipeline: panic: %v", r)}
		}
	}()

	captionCtx, cancel := context.WithTimeout(ctx, s.captionTimeout)
	defer cancel()

	prompt, err := s.captioner.GeneratePrompt(captionCtx, req.ImageURL)
	if err != nil {
		cause := fmt.Errorf("%w: %v", ErrCaptionFailed, err)
		_ = entry.Fail(cause.Error())
		return Outcome{State: StateFailed, Cause: cause}
	}
	s.logger.Info("caption generated", "request_id", req.ID, "prompt", prompt)

	if err := entry.TransitionTo(StateSubmitting); err != nil {
		return Outcome{State: StateFailed, Cause: err}
	}

	jobID, err := s.video.Generate(ctx, prompt, req.ImageURL, s.generateOpts)
	if err != nil {
		cause := fmt.Errorf("%w: %v", ErrJobSubmissionFailed, err)
		_ = entry.Fail(cause.Error())
		return Outcome{State: StateFailed, Cause: cause}
	}
	entry.SetJobID(jobID)
	s.logger.Info("video job submitted", "request_id", req.ID, "job_id", jobID)

	outcome, err = s.poller.Run(ctx, entry, jobID)
	if err != nil {
		return Outcome{State: StateFailed, Cause: err}
	}

	if outcome.State == StateSucceeded {
		archived, aerr := s.archiver.Archive(ctx, req.ID, outcome.VideoURL)
		if aerr != nil {
			// Keep the provider URL when archival is unavailable
			s.logger.Warn("video archival failed, using provider URL",
				"request_id", req.ID,
				"error", aerr,
			)
		} else {
			outcome.VideoURL = archived
		}
	}

	return outcome
}
