// Package server provides the HTTP server for the image-to-video API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// GenerateVideoRequest is the HTTP request body for starting a video generation.
type GenerateVideoRequest struct {
	// ImageID is the URL of the source image. Upstream inventory systems
	// deliver it HTML-entity encoded, so it is decoded before validation.
	ImageID string `json:"image_id" validate:"required,url"`
}

// GenerateVideoResponse is the acknowledgment returned while generation
// continues in the background.
type GenerateVideoResponse struct {
	// Message is a fixed acknowledgment with the expected turnaround.
	Message string `json:"message"`
	// RequestID echoes the caller-supplied x-request-id header.
	RequestID string `json:"request_id"`
}

// ServiceInfoResponse is the HTTP response for the root metadata endpoint.
type ServiceInfoResponse struct {
	// Message is the service name.
	Message string `json:"message"`
	// Description is a short summary of what the service does.
	Description string `json:"description"`
	// Endpoints maps each route to a one-line usage hint.
	Endpoints map[string]string `json:"endpoints"`
	// Version is the service version.
	Version string `json:"version"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// ActiveRequests is the number of generation pipelines currently in flight.
	ActiveRequests int `json:"active_requests"`
}
