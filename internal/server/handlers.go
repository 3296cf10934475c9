package server

import (
	"context"
	"encoding/json"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hari-v068/project-i2v/internal/pipeline"
)

// AckMessage is returned to every accepted request; generation continues
// in the background.
const AckMessage = "Video generation pipeline initialized | ETA: 5-7 minutes"

// Version is the service version reported by the root endpoint.
const Version = "1.0.9"

// Processor runs the generation pipeline for an accepted request.
type Processor interface {
	// Process runs the full pipeline and delivers the result callback.
	// It blocks until the request reaches a terminal state.
	Process(ctx context.Context, req pipeline.Request)
	// ActiveRequests reports how many pipelines are currently in flight.
	ActiveRequests() int
}

// entityReplacer catches URL separators that survive a first unescape pass
// because the inventory system encodes them twice.
var entityReplacer = strings.NewReplacer(
	"&#x2F;", "/",
	"&#x3D;", "=",
	"&amp;", "&",
)

// decodeImageURL reverses the HTML-entity encoding applied to image URLs in transit.
func decodeImageURL(raw string) string {
	return entityReplacer.Replace(html.UnescapeString(raw))
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            Processor
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, GenerateVideo acknowledges the request without starting
// the pipeline.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service Processor, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		ActiveRequests: h.service.ActiveRequests(),
	})
}

// ServiceInfo handles GET / requests.
func (h *Handlers) ServiceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServiceInfoResponse{
		Message:     "i2v",
		Description: "a wrapper api for replicate & pika ai with async processing",
		Endpoints: map[string]string{
			"/api/v1/i2v": "post - video gen with image url (async)",
			"/health":     "get - service health and in-flight requests",
		},
		Version: Version,
	})
}

// GenerateVideo handles POST /api/v1/i2v requests.
// It validates synchronously, replies with a fixed acknowledgment, and runs
// the generation pipeline in the background. The eventual result reaches the
// caller through the configured callback, never through this response.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("x-request-id")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "x-request-id header is required", "MISSING_REQUEST_ID")
		return
	}

	var req GenerateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	req.ImageID = decodeImageURL(req.ImageID)

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	// Start the pipeline in the background with a detached context
	// Use context.WithoutCancel so the caller disconnecting after the
	// acknowledgment does not cancel the pipeline
	if h.enableAsyncProcess {
		go h.service.Process(context.WithoutCancel(r.Context()), pipeline.Request{
			ID:       requestID,
			ImageURL: req.ImageID,
		})
	}

	h.logger.Info("video generation accepted",
		slog.String("request_id", requestID),
		slog.String("image_url", req.ImageID),
	)

	writeJSON(w, http.StatusOK, GenerateVideoResponse{
		Message:   AckMessage,
		RequestID: requestID,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
