// Package replicate provides an HTTP client for the Replicate predictions API,
// used to caption images with the CLIP Interrogator model.
package replicate

import "encoding/json"

// Status represents the status of a Replicate prediction.
type Status string

// Prediction statuses aligned with the Replicate API.
const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// CaptionOptions contains optional parameters for an image captioning prediction.
type CaptionOptions struct {
	ClipModelName string // CLIP model variant (default: "ViT-L-14/openai")
	Mode          string // Interrogation mode (default: "best")
}

// DefaultCaptionOptions returns the default options for captioning an image.
func DefaultCaptionOptions() CaptionOptions {
	return CaptionOptions{
		ClipModelName: "ViT-L-14/openai",
		Mode:          "best",
	}
}

// predictionRequest represents the request body for Replicate's /predictions endpoint.
type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

// predictionInput represents the input field in a prediction request.
type predictionInput struct {
	Image         string `json:"image"`
	ClipModelName string `json:"clip_model_name"`
	Mode          string `json:"mode"`
}

// predictionResponse represents a prediction resource returned by Replicate.
// Output is kept raw because models return either a string or a list of
// streamed string chunks.
type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}
