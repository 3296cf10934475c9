// Package archive optionally copies generated videos from the provider's CDN
// into owned storage so callback consumers are not left holding short-lived
// provider URLs.
package archive

import "context"

// Archiver stores a generated video and returns the URL to report downstream.
type Archiver interface {
	// Archive stores the video at videoURL under the given request ID and
	// returns the stored copy's URL. Implementations that do not store
	// anything return videoURL unchanged.
	Archive(ctx context.Context, requestID, videoURL string) (string, error)
}

// Compile-time check that Passthrough implements Archiver.
var _ Archiver = (*Passthrough)(nil)

// Passthrough is the no-op Archiver used when archival is not configured.
// The provider URL is reported downstream as-is.
type Passthrough struct{}

// NewPassthrough creates a pass-through archiver.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// Archive returns videoURL unchanged.
func (p *Passthrough) Archive(_ context.Context, _ string, videoURL string) (string, error) {
	return videoURL, nil
}
