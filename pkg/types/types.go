package types

import (
	"time"
)

// Prediction statuses from Replicate
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// IsTerminalStatus reports whether a prediction status is final.
// Only succeeded, failed and canceled stop the wait loop; anything
// else (including unknown tags) counts as still in progress.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// ReplicatePredictionRequest represents a request to create a prediction
type ReplicatePredictionRequest struct {
	Version string                 `json:"version"`
	Input   map[string]interface{} `json:"input"`
	Webhook string                 `json:"webhook,omitempty"`
}

// ReplicatePredictionResponse represents the response from Replicate
type ReplicatePredictionResponse struct {
	ID          string                 `json:"id"`
	Version     string                 `json:"version"`
	Status      string                 `json:"status"`
	Input       map[string]interface{} `json:"input"`
	Output      interface{}            `json:"output"`
	Error       interface{}            `json:"error"`
	Logs        string                 `json:"logs"`
	CreatedAt   string                 `json:"created_at"`
	StartedAt   *string                `json:"started_at"`
	CompletedAt *string                `json:"completed_at"`
	URLs        struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// ReplicateFileResponse represents the response from the file upload endpoint
type ReplicateFileResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URLs        struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// OperationMetadata is the sidecar record written next to saved outputs
type OperationMetadata struct {
	Version    string                 `yaml:"version"`
	ID         string                 `yaml:"id"`
	Operation  string                 `yaml:"operation"`
	Timestamp  time.Time              `yaml:"timestamp"`
	Model      string                 `yaml:"model"`
	Parameters map[string]interface{} `yaml:"parameters"`
	Result     *OperationResult       `yaml:"result,omitempty"`
	Error      *string                `yaml:"error,omitempty"`
}

// OperationResult contains the outcome of a completed operation
type OperationResult struct {
	PredictionID   string   `yaml:"prediction_id"`
	OutputURLs     []string `yaml:"output_urls,omitempty"`
	Files          []string `yaml:"files,omitempty"`
	GenerationTime float64  `yaml:"generation_time"`
}
