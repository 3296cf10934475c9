package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Static errors for Replicate client operations.
var (
	// ErrModelIDRequired is returned when the model ID is not provided.
	ErrModelIDRequired = errors.New("replicate: model ID is required")
	// ErrAPITokenNotSet is returned when the REPLICATE_API_TOKEN environment variable is not set.
	ErrAPITokenNotSet = errors.New("replicate: REPLICATE_API_TOKEN environment variable is not set")
	// ErrNoPredictionID is returned when the create response contains no prediction ID.
	ErrNoPredictionID = errors.New("replicate: create failed: no prediction ID returned")
	// ErrCreateFailed is returned when creating a prediction fails.
	ErrCreateFailed = errors.New("replicate: create prediction failed")
	// ErrPredictionFailed is returned when a prediction ends in the failed state.
	ErrPredictionFailed = errors.New("replicate: prediction failed")
	// ErrPredictionCanceled is returned when a prediction ends in the canceled state.
	ErrPredictionCanceled = errors.New("replicate: prediction canceled")
	// ErrEmptyOutput is returned when a succeeded prediction produced no usable text.
	ErrEmptyOutput = errors.New("replicate: prediction returned empty output")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("replicate: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("replicate: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("replicate: request failed")
)

// Client defines the interface for generating image captions via Replicate.
type Client interface {
	// GeneratePrompt captions the image at imageURL and returns the caption text.
	// It blocks until the prediction reaches a terminal state or ctx is done.
	GeneratePrompt(ctx context.Context, imageURL string) (string, error)
}

// HTTPClient is the HTTP implementation of the Replicate Client interface.
type HTTPClient struct {
	apiToken     string
	modelVersion string
	baseURL      string
	httpClient   *http.Client
	maxRetries   int
	baseBackoff  time.Duration
	pollInterval time.Duration
	options      CaptionOptions
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIToken sets the API token for authentication.
func WithAPIToken(token string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiToken = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the Replicate API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
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

// WithPollInterval sets the interval between prediction status checks.
func WithPollInterval(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.pollInterval = d
	}
}

// WithCaptionOptions sets the captioning parameters sent with every prediction.
func WithCaptionOptions(opts CaptionOptions) ClientOption {
	return func(hc *HTTPClient) {
		hc.options = opts
	}
}

// NewClient creates a new Replicate HTTP client.
// The API token can be set via the WithAPIToken option. If not provided,
// it is read from the environment variable REPLICATE_API_TOKEN.
// The model ID must be provided as "owner/name:version" or a bare version hash;
// only the version hash is sent to the API.
func NewClient(modelID string, opts ...ClientOption) (*HTTPClient, error) {
	if modelID == "" {
		return nil, ErrModelIDRequired
	}

	c := &HTTPClient{
		modelVersion: modelVersion(modelID),
		baseURL:      "https://api.replicate.com/v1",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		maxRetries:   3,
		baseBackoff:  1 * time.Second,
		pollInterval: 2 * time.Second,
		options:      DefaultCaptionOptions(),
	}

	// Apply options first to allow WithAPIToken to set the token
	for _, opt := range opts {
		opt(c)
	}

	// If the token was not set via option, try environment variable
	if c.apiToken == "" {
		c.apiToken = os.Getenv("REPLICATE_API_TOKEN")
	}

	if c.apiToken == "" {
		return nil, ErrAPITokenNotSet
	}

	return c, nil
}

// modelVersion extracts the version hash from a "owner/name:version" model ID.
func modelVersion(modelID string) string {
	if idx := strings.LastIndex(modelID, ":"); idx >= 0 {
		return modelID[idx+1:]
	}
	return modelID
}

// GeneratePrompt captions the image at imageURL and returns the caption text.
func (c *HTTPClient) GeneratePrompt(ctx context.Context, imageURL string) (string, error) {
	opts := c.options
	if opts.ClipModelName == "" {
		opts.ClipModelName = "ViT-L-14/openai"
	}
	if opts.Mode == "" {
		opts.Mode = "best"
	}

	reqBody := predictionRequest{
		Version: c.modelVersion,
		Input: predictionInput{
			Image:         imageURL,
			ClipModelName: opts.ClipModelName,
			Mode:          opts.Mode,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("replicate: marshal request: %w", err)
	}

	var created predictionResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, c.baseURL+"/predictions", bodyBytes, &created); err != nil {
		return "", err
	}

	if created.ID == "" {
		if created.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrCreateFailed, created.Error)
		}
		return "", ErrNoPredictionID
	}

	return c.waitForPrediction(ctx, created)
}

// waitForPrediction polls the prediction until it reaches a terminal state.
func (c *HTTPClient) waitForPrediction(ctx context.Context, pred predictionResponse) (string, error) {
	url := fmt.Sprintf("%s/predictions/%s", c.baseURL, pred.ID)

	for {
		if Status(pred.Status).IsTerminal() {
			return c.resolvePrediction(pred)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("replicate: context cancelled: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		var next predictionResponse
		if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &next); err != nil {
			return "", err
		}
		pred = next
	}
}

// resolvePrediction converts a terminal prediction into caption text or an error.
func (c *HTTPClient) resolvePrediction(pred predictionResponse) (string, error) {
	switch Status(pred.Status) {
	case StatusSucceeded:
		prompt, err := parseOutput(pred.Output)
		if err != nil {
			return "", err
		}
		if prompt == "" {
			return "", ErrEmptyOutput
		}
		return prompt, nil
	case StatusCanceled:
		return "", ErrPredictionCanceled
	default:
		if pred.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrPredictionFailed, pred.Error)
		}
		return "", fmt.Errorf("%w: status %s", ErrPredictionFailed, pred.Status)
	}
}

// parseOutput extracts the caption from a prediction output, which is either
// a single string or a list of streamed chunks that concatenate into one.
func parseOutput(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var chunks []string
	if err := json.Unmarshal(raw, &chunks); err == nil {
		return strings.TrimSpace(strings.Join(chunks, "")), nil
	}

	return "", fmt.Errorf("replicate: unexpected output format: %s", string(raw))
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("replicate: context cancelled: %w", ctx.Err())
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

	return fmt.Errorf("replicate: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("replicate: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("replicate: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("replicate: read response: %w", err)}
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
			return fmt.Errorf("replicate: unmarshal response: %w", err)
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
