// Package callback builds and delivers the terminal-result notification
// sent to the configured callback endpoint once a request finishes.
package callback

// Result statuses reported in a callback payload.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Output classification for generated videos.
const (
	OutputTypeMedia        = "MEDIA"
	CategoryMarketingVideo = "MARKETING_VIDEO"
)

// Payload is the JSON body delivered to the callback endpoint.
type Payload struct {
	Data Data `json:"data"`
}

// Data carries the result of a generation request.
// Output is a pointer so failure payloads serialize it as JSON null.
type Data struct {
	AddToInventory bool    `json:"addToInventory"`
	Status         string  `json:"status"`
	Output         *Output `json:"output"`
}

// Output describes a successfully generated video.
type Output struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// NewSuccess builds the payload for a successfully generated video.
// The title is derived from the video URL.
func NewSuccess(videoURL string) Payload {
	return Payload{
		Data: Data{
			AddToInventory: true,
			Status:         StatusCompleted,
			Output: &Output{
				Title:    TitleFromURL(videoURL),
				Type:     OutputTypeMedia,
				Category: CategoryMarketingVideo,
				URL:      videoURL,
			},
		},
	}
}

// NewFailure builds the payload for a failed or timed-out request.
func NewFailure() Payload {
	return Payload{
		Data: Data{
			AddToInventory: false,
			Status:         StatusFailed,
			Output:         nil,
		},
	}
}
