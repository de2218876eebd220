package client

import (
	"context"
	"time"

	"github.com/gomcpgo/replicate_portrait/pkg/types"
)

// Client defines the interface for interacting with the Replicate API
type Client interface {
	// UploadFile uploads a local file and returns its retrieval URL
	UploadFile(ctx context.Context, path string) (string, error)

	// CreatePrediction creates a new prediction on Replicate
	CreatePrediction(ctx context.Context, modelVersion string, input map[string]interface{}) (*types.ReplicatePredictionResponse, error)

	// GetPrediction gets the status of a prediction by ID
	GetPrediction(ctx context.Context, predictionID string) (*types.ReplicatePredictionResponse, error)

	// GetPredictionURL gets the status of a prediction via its status endpoint URL
	GetPredictionURL(ctx context.Context, statusURL string) (*types.ReplicatePredictionResponse, error)

	// Wait polls a prediction until a terminal status or maxWait elapses
	Wait(ctx context.Context, statusURL string, maxWait time.Duration) (*types.ReplicatePredictionResponse, error)

	// CancelPrediction cancels a running prediction
	CancelPrediction(ctx context.Context, predictionID string) error
}

// Ensure ReplicateClient implements the Client interface
var _ Client = (*ReplicateClient)(nil)
