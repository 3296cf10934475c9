package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hari-v068/project-i2v/internal/pika"
)

// Static errors for poller outcomes.
var (
	// ErrPollTimeout is returned as the cause when a job stays pending past the maximum check time.
	ErrPollTimeout = errors.New("pipeline: polling exceeded maximum check time")
	// ErrRemoteJobFailed is returned as the cause when the remote service reports a failed job.
	ErrRemoteJobFailed = errors.New("pipeline: remote job failed")
)

// Outcome is the terminal result of polling a video job.
type Outcome struct {
	// State is one of StateSucceeded, StateFailed, or StateTimedOut.
	State State
	// VideoURL is the generated video location (only set when State is StateSucceeded).
	VideoURL string
	// RemoteStatus is the last raw status reported by the video service.
	RemoteStatus string
	// Cause is the underlying failure for non-succeeded outcomes, for logging.
	Cause error
}

// Poller drives a submitted video job to a terminal outcome.
//
// Video generation takes minutes, so the poller sleeps for an initial wait
// before the first status check. The maximum-check-time clock starts after
// that wait; once it expires the job is declared timed out rather than
// checked again. Checks happen at a fixed interval with no backoff: the
// remote service reports pending until the video is done, and a missed
// status means waiting one interval, not a degraded backend.
type Poller struct {
	client        pika.Client
	logger        *slog.Logger
	initialWait   time.Duration
	checkInterval time.Duration
	maxCheckTime  time.Duration
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

// PollerOption is a function that configures a Poller.
type PollerOption func(*Poller)

// WithInitialWait sets the wait before the first status check.
func WithInitialWait(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.initialWait = d
	}
}

// WithCheckInterval sets the fixed interval between status checks.
func WithCheckInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.checkInterval = d
	}
}

// WithMaxCheckTime sets how long a job may stay pending, measured from the
// first status check, before it is declared timed out.
func WithMaxCheckTime(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.maxCheckTime = d
	}
}

// WithNowFunc overrides the clock. Used in tests.
func WithNowFunc(now func() time.Time) PollerOption {
	return func(p *Poller) {
		p.now = now
	}
}

// WithSleepFunc overrides the sleep behavior. Used in tests.
func WithSleepFunc(sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		p.sleep = sleep
	}
}

// NewPoller creates a poller for the given video client.
// If logger is nil, slog.Default() is used.
func NewPoller(client pika.Client, logger *slog.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Poller{
		client:        client,
		logger:        logger,
		initialWait:   300 * time.Second,
		checkInterval: 10 * time.Second,
		maxCheckTime:  420 * time.Second,
		now:           time.Now,
		sleep:         sleepContext,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run polls the job until it reaches a terminal outcome, driving the entry
// through Waiting and Checking along the way. It returns an error only when
// ctx ends or the entry is in an unexpected state; every remote misbehavior
// is folded into a Failed outcome instead, so an unknown remote state can
// never leave a request without a callback.
func (p *Poller) Run(ctx context.Context, entry *Entry, jobID string) (Outcome, error) {
	if err := entry.TransitionTo(StateWaiting); err != nil {
		return Outcome{}, err
	}

	p.logger.Info("waiting before first status check",
		"request_id", entry.RequestID,
		"job_id", jobID,
		"wait", p.initialWait,
	)

	if err := p.sleep(ctx, p.initialWait); err != nil {
		_ = entry.Fail(err.Error())
		return Outcome{}, fmt.Errorf("pipeline: initial wait interrupted: %w", err)
	}

	start := p.now()
	var lastRemote string

	for {
		// The timeout gate runs before each check: a job still pending at
		// exactly the maximum check time is timed out, not checked again.
		if elapsed := p.now().Sub(start); elapsed >= p.maxCheckTime {
			_ = entry.TransitionTo(StateTimedOut)
			p.logger.Warn("job timed out",
				"request_id", entry.RequestID,
				"job_id", jobID,
				"elapsed", elapsed,
				"last_status", lastRemote,
			)
			return Outcome{State: StateTimedOut, RemoteStatus: lastRemote, Cause: ErrPollTimeout}, nil
		}

		if err := entry.TransitionTo(StateChecking); err != nil {
			return Outcome{}, err
		}

		result, err := p.client.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				_ = entry.Fail(err.Error())
				return Outcome{}, fmt.Errorf("pipeline: status check interrupted: %w", err)
			}
			_ = entry.Fail(err.Error())
			return Outcome{State: StateFailed, RemoteStatus: lastRemote, Cause: err}, nil
		}

		lastRemote = result.RemoteStatus
		entry.SetRemoteStatus(result.RemoteStatus)
		p.logger.Info("job status",
			"request_id", entry.RequestID,
			"job_id", jobID,
			"status", result.RemoteStatus,
			"state", result.State,
		)

		switch result.State {
		case pika.StateSucceeded:
			_ = entry.TransitionTo(StateSucceeded)
			return Outcome{
				State:        StateSucceeded,
				VideoURL:     result.VideoURL,
				RemoteStatus: result.RemoteStatus,
			}, nil
		case pika.StateFailed:
			cause := fmt.Errorf("%w: status %q", ErrRemoteJobFailed, result.RemoteStatus)
			_ = entry.Fail(cause.Error())
			return Outcome{State: StateFailed, RemoteStatus: result.RemoteStatus, Cause: cause}, nil
		}

		if err := p.sleep(ctx, p.checkInterval); err != nil {
			_ = entry.Fail(err.Error())
			return Outcome{}, fmt.Errorf("pipeline: check interval interrupted: %w", err)
		}
	}
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
