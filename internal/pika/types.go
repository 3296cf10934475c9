// Package pika provides an HTTP client for the Pika video generation API.
package pika

// State is the three-valued job state the rest of the pipeline consumes,
// mapped from Pika's own status vocabulary.
type State string

// Job states after mapping from the remote status vocabulary.
const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// IsTerminal returns true if the state is a terminal state.
func (s State) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed:
		return true
	default:
		return false
	}
}

// GenerateOptions contains optional parameters for starting a video generation job.
type GenerateOptions struct {
	Model         string // Pika model version (default: "1.5")
	FrameRate     int    // Output frame rate (default: 24)
	Motion        int    // Motion strength (default: 2)
	GuidanceScale int    // Prompt guidance scale (default: 16)
}

// DefaultGenerateOptions returns the default options for starting a job.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Model:         "1.5",
		FrameRate:     24,
		Motion:        2,
		GuidanceScale: 16,
	}
}

// generateRequest represents the request body for Pika's /generate endpoint.
type generateRequest struct {
	PromptText string          `json:"promptText"`
	Model      string          `json:"model"`
	Image      string          `json:"image"`
	Options    generateOptions `json:"options"`
}

// generateOptions represents the options field in a generate request.
type generateOptions struct {
	FrameRate  int                `json:"frameRate"`
	Parameters generateParameters `json:"parameters"`
}

// generateParameters represents the parameters field in generate options.
type generateParameters struct {
	Motion        int `json:"motion"`
	GuidanceScale int `json:"guidanceScale"`
}

// generateResponse represents the response from Pika's /generate endpoint.
type generateResponse struct {
	Job   jobRef `json:"job"`
	Error string `json:"error,omitempty"`
}

// jobRef identifies a submitted job.
type jobRef struct {
	ID string `json:"id"`
}

// statusResponse represents the response from Pika's /jobs/{id} endpoint.
type statusResponse struct {
	Videos []videoStatus `json:"videos"`
}

// videoStatus represents one video entry in a status response.
type videoStatus struct {
	Status    string `json:"status"`
	ResultURL string `json:"resultUrl,omitempty"`
}

// StatusResult contains the result of checking a job's status.
type StatusResult struct {
	State        State
	VideoURL     string // Download URL (only set when State is StateSucceeded)
	RemoteStatus string // Raw status string reported by Pika, for diagnostics
}
