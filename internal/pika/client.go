package pika

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

// Static errors for Pika client operations.
var (
	// ErrBaseURLRequired is returned when the base URL is not provided.
	ErrBaseURLRequired = errors.New("pika: base URL is required")
	// ErrTokenNotSet is returned when the bearer token is not provided.
	ErrTokenNotSet = errors.New("pika: bearer token is required")
	// ErrJobIDRequired is returned when the job ID is not provided.
	ErrJobIDRequired = errors.New("pika: job ID is required")
	// ErrNoJobIDReturned is returned when the generate response contains no job ID.
	ErrNoJobIDReturned = errors.New("pika: generate failed: no job ID returned")
	// ErrGenerateFailed is returned when the generate operation fails.
	ErrGenerateFailed = errors.New("pika: generate failed")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("pika: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("pika: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("pika: request failed")
)

// Client defines the interface for interacting with the Pika API.
type Client interface {
	// Generate starts a video generation job and returns the job ID.
	Generate(ctx context.Context, prompt, imageURL string, opts GenerateOptions) (jobID string, err error)

	// JobStatus checks the status of a job and returns the mapped result.
	JobStatus(ctx context.Context, jobID string) (StatusResult, error)
}

// HTTPClient is the HTTP implementation of the Pika Client interface.
type HTTPClient struct {
	token       string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithToken sets the bearer token for authentication.
func WithToken(token string) ClientOption {
	return func(hc *HTTPClient) {
		hc.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// NewClient creates a new Pika HTTP client.
// The bearer token can be set via the WithToken option. If not provided,
// it is read from the environment variable PIKAPI_BEARER_TOKEN.
// The base URL must be provided.
func NewClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &HTTPClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	// Apply options first to allow WithToken to set the token
	for _, opt := range opts {
		opt(c)
	}

	// If token was not set via option, try environment variable
	if c.token == "" {
		c.token = os.Getenv("PIKAPI_BEARER_TOKEN")
	}

	if c.token == "" {
		return nil, ErrTokenNotSet
	}

	return c, nil
}

// Generate starts a video generation job and returns the job ID.
func (c *HTTPClient) Generate(ctx context.Context, prompt, imageURL string, opts GenerateOptions) (string, error) {
	// Apply defaults if not set
	if opts.Model == "" {
		opts.Model = "1.5"
	}
	if opts.FrameRate == 0 {
		opts.FrameRate = 24
	}
	if opts.Motion == 0 {
		opts.Motion = 2
	}
	if opts.GuidanceScale == 0 {
		opts.GuidanceScale = 16
	}

	reqBody := generateRequest{
		PromptText: prompt,
		Model:      opts.Model,
		Image:      imageURL,
		Options: generateOptions{
			FrameRate: opts.FrameRate,
			Parameters: generateParameters{
				Motion:        opts.Motion,
				GuidanceScale: opts.GuidanceScale,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("pika: marshal request: %w", err)
	}

	var resp generateResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, c.baseURL+"/generate", bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.Job.ID == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrGenerateFailed, resp.Error)
		}
		return "", ErrNoJobIDReturned
	}

	return resp.Job.ID, nil
}

// JobStatus checks the status of a job and returns the mapped result.
// Pika reports per-video statuses; only the first video is considered.
// Any response without a recognizable status maps to StateFailed rather
// than StatePending so an unknown remote state can never stall a poller.
func (c *HTTPClient) JobStatus(ctx context.Context, jobID string) (StatusResult, error) {
	if jobID == "" {
		return StatusResult{}, ErrJobIDRequired
	}

	url := fmt.Sprintf("%s/jobs/%s", c.baseURL, jobID)

	var resp statusResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return StatusResult{}, err
	}

	if len(resp.Videos) == 0 {
		return StatusResult{State: StateFailed}, nil
	}

	video := resp.Videos[0]
	result := StatusResult{RemoteStatus: video.Status}

	switch video.Status {
	case "finished":
		if video.ResultURL == "" {
			// Finished without a download URL is unusable
			result.State = StateFailed
			return result, nil
		}
		result.State = StateSucceeded
		result.VideoURL = video.ResultURL
	case "queued", "pending":
		result.State = StatePending
	default:
		result.State = StateFailed
	}

	return result, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("pika: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}

		err := c.doRequest(ctx, method, url, body, result)
		if err == nil {
			return nil
		}

		// Check if error is retryable
		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("pika: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("pika: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("pika: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("pika: read response: %w", err)}
	}

	// Handle non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 5xx errors are retryable
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		// 429 (rate limit) is retryable
		if resp.StatusCode == 429 {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		// Other errors are not retryable
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("pika: unmarshal response: %w", err)
		}
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
