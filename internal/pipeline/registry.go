package pipeline

import (
	"errors"
	"sync"
)

// ErrNotTracked is returned when a request ID is not in the registry.
var ErrNotTracked = errors.New("pipeline: request not tracked")

// Registry tracks in-flight generation requests.
// It uses a map with RWMutex for thread-safe access. Entries are added when
// a background task starts and removed when it finishes; the registry never
// outlives its requests and nothing is persisted.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates a new in-flight request registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Add creates and tracks an entry for the given request.
// Re-adding an existing request ID replaces the previous entry.
func (r *Registry) Add(requestID, imageURL string) *Entry {
	entry := NewEntry(requestID, imageURL)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[requestID] = entry
	return entry
}

// Get retrieves a tracked entry by request ID.
// Returns a clone to prevent external mutations.
func (r *Registry) Get(requestID string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[requestID]
	if !ok {
		return nil, ErrNotTracked
	}
	return entry.Clone(), nil
}

// List returns all tracked entries.
// Returns clones to prevent external mutations.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.Clone())
	}
	return result
}

// Len returns the number of tracked requests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Remove stops tracking a request.
func (r *Registry) Remove(requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[requestID]; !ok {
		return ErrNotTracked
	}
	delete(r.entries, requestID)
	return nil
}
