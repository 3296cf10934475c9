// Package pipeline runs the image-to-video request flow: caption the image,
// submit the remote video job, poll it to completion, and deliver exactly one
// callback carrying the terminal result.
package pipeline

import (
	"errors"
	"sync"
	"time"
)

// State represents the current phase of an in-flight generation request.
type State string

const (
	// StateCaptioning indicates the image is being captioned.
	StateCaptioning State = "CAPTIONING"
	// StateSubmitting indicates the video job is being submitted.
	StateSubmitting State = "SUBMITTING"
	// StateWaiting indicates the poller is in its initial wait before the first status check.
	StateWaiting State = "WAITING"
	// StateChecking indicates the poller is checking remote job status.
	StateChecking State = "CHECKING"
	// StateSucceeded indicates the video was generated successfully.
	StateSucceeded State = "SUCCEEDED"
	// StateFailed indicates the request failed at some phase.
	StateFailed State = "FAILED"
	// StateTimedOut indicates the job stayed pending past the maximum check time.
	// Downstream consumers treat it like StateFailed; it exists so logs can
	// distinguish a slow job from a broken one.
	StateTimedOut State = "TIMED_OUT"
)

// IsTerminal returns true if the state is a terminal state.
func (s State) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut:
		return true
	default:
		return false
	}
}

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("pipeline: invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[State][]State{
	StateCaptioning: {StateSubmitting, StateFailed},
	StateSubmitting: {StateWaiting, StateFailed},
	StateWaiting:    {StateChecking, StateFailed, StateTimedOut},
	StateChecking:   {StateChecking, StateSucceeded, StateFailed, StateTimedOut},
	StateSucceeded:  {},
	StateFailed:     {},
	StateTimedOut:   {},
}

// canTransition checks if a transition from one state to another is valid.
func canTransition(from, to State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Entry tracks one in-flight generation request from acceptance to its
// terminal state. Entries live only as long as the background task that
// owns them; nothing is persisted.
type Entry struct {
	mu sync.RWMutex

	// RequestID is the caller-supplied correlation token.
	RequestID string
	// ImageURL is the source image reference.
	ImageURL string
	// State is the current phase.
	State State
	// JobID is the remote job handle, set once submission succeeds.
	JobID string
	// RemoteStatus is the last raw status reported by the video service.
	RemoteStatus string
	// Error contains the failure cause if the request failed.
	Error string
	// CreatedAt is when the request was accepted.
	CreatedAt time.Time
	// UpdatedAt is when the entry last changed.
	UpdatedAt time.Time
	// CompletedAt is when a terminal state was reached.
	CompletedAt time.Time
}

// NewEntry creates a tracking entry for an accepted request.
// The initial state is StateCaptioning.
func NewEntry(requestID, imageURL string) *Entry {
	now := time.Now()
	return &Entry{
		RequestID: requestID,
		ImageURL:  imageURL,
		State:     StateCaptioning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the entry state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (e *Entry) TransitionTo(state State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !canTransition(e.State, state) {
		return ErrInvalidTransition
	}

	e.State = state
	e.UpdatedAt = time.Now()

	if state.IsTerminal() {
		e.CompletedAt = e.UpdatedAt
	}

	return nil
}

// Fail records the failure cause and transitions to StateFailed.
// Returns ErrInvalidTransition if the transition is not allowed.
func (e *Entry) Fail(errMsg string) error {
	e.mu.Lock()
	e.Error = errMsg
	e.mu.Unlock()
	return e.TransitionTo(StateFailed)
}

// GetState returns the current state (thread-safe).
func (e *Entry) GetState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.State
}

// SetJobID records the remote job handle.
func (e *Entry) SetJobID(jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.JobID = jobID
	e.UpdatedAt = time.Now()
}

// SetRemoteStatus records the last raw status reported by the video service.
func (e *Entry) SetRemoteStatus(status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.RemoteStatus = status
	e.UpdatedAt = time.Now()
}

// Clone creates a copy of the entry for safe reads.
func (e *Entry) Clone() *Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return &Entry{
		RequestID:    e.RequestID,
		ImageURL:     e.ImageURL,
		State:        e.State,
		JobID:        e.JobID,
		RemoteStatus: e.RemoteStatus,
		Error:        e.Error,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		CompletedAt:  e.CompletedAt,
	}
}
