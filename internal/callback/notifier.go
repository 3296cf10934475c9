package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Static errors for callback delivery.
var (
	// ErrBaseURLRequired is returned when the callback base URL is not provided.
	ErrBaseURLRequired = errors.New("callback: base URL is required")
	// ErrAPIKeyNotSet is returned when the callback API key is not provided.
	ErrAPIKeyNotSet = errors.New("callback: API key is required")
	// ErrRequestIDRequired is returned when the request ID is not provided.
	ErrRequestIDRequired = errors.New("callback: request ID is required")
	// ErrDeliveryFailed is returned when the callback endpoint rejects the notification.
	ErrDeliveryFailed = errors.New("callback: delivery failed")
)

// Notifier defines the interface for delivering a terminal-result payload.
type Notifier interface {
	// Notify delivers the payload for the given request. Delivery is a single
	// best-effort attempt; the payload is never re-sent.
	Notify(ctx context.Context, requestID string, payload Payload) error
}

// HTTPNotifier is the HTTP implementation of the Notifier interface.
type HTTPNotifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NotifierOption is a function that configures an HTTPNotifier.
type NotifierOption func(*HTTPNotifier)

// WithAPIKey sets the API key sent in the x-api-key header.
func WithAPIKey(key string) NotifierOption {
	return func(n *HTTPNotifier) {
		n.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) NotifierOption {
	return func(n *HTTPNotifier) {
		n.httpClient = c
	}
}

// NewNotifier creates a new HTTP callback notifier.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable GAME_API_KEY.
// The base URL must be provided.
func NewNotifier(baseURL string, opts ...NotifierOption) (*HTTPNotifier, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	n := &HTTPNotifier{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	// Apply options first to allow WithAPIKey to set the key
	for _, opt := range opts {
		opt(n)
	}

	// If the key was not set via option, try environment variable
	if n.apiKey == "" {
		n.apiKey = os.Getenv("GAME_API_KEY")
	}

	if n.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return n, nil
}

// Notify delivers the payload for the given request.
func (n *HTTPNotifier) Notify(ctx context.Context, requestID string, payload Payload) error {
	if requestID == "" {
		return ErrRequestIDRequired
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("callback: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/callback", n.baseURL, requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("callback: create request: %w", err)
	}

	req.Header.Set("x-api-key", n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w with status %d: %s", ErrDeliveryFailed, resp.StatusCode, string(respBody))
	}

	return nil
}
