package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gomcpgo/replicate_portrait/pkg/types"
)

// MockClient is a mock implementation of the Client interface for testing.
// Status checks walk through StatusSequence one entry per call; the last
// entry repeats once the sequence is exhausted.
type MockClient struct {
	// Control behavior
	UploadURL      string        // URL returned by UploadFile
	UploadErr      error         // Error returned by UploadFile
	CreateErr      error         // Error returned by CreatePrediction
	GetErr         error         // Error returned by status checks
	StatusSequence []string      // Statuses returned by successive status checks
	Output         interface{}   // Output attached once status is succeeded
	ErrorPayload   interface{}   // Error field attached once status is failed
	PollInterval   time.Duration // Interval used by Wait (default 5ms)

	// Track calls for assertions
	UploadCalls []string
	CreateCalls []CreateCall
	GetCalls    []string
	CancelCalls []string

	mu       sync.Mutex
	getCount int
}

// CreateCall records a call to CreatePrediction
type CreateCall struct {
	ModelVersion string
	Input        map[string]interface{}
}

// NewMockClient creates a new mock client that immediately succeeds
func NewMockClient() *MockClient {
	return &MockClient{
		UploadURL:      "https://api.replicate.com/v1/files/mock/content",
		StatusSequence: []string{types.StatusSucceeded},
		Output:         []interface{}{"https://replicate.delivery/mock/output.png"},
		PollInterval:   5 * time.Millisecond,
	}
}

// UploadFile records the call and returns the configured URL
func (m *MockClient) UploadFile(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UploadCalls = append(m.UploadCalls, path)
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	return m.UploadURL, nil
}

// CreatePrediction creates a mock prediction
func (m *MockClient) CreatePrediction(ctx context.Context, modelVersion string, input map[string]interface{}) (*types.ReplicatePredictionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, CreateCall{
		ModelVersion: modelVersion,
		Input:        input,
	})
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	pred := &types.ReplicatePredictionResponse{
		ID:        fmt.Sprintf("mock-pred-%d", len(m.CreateCalls)),
		Status:    types.StatusStarting,
		Input:     input,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	pred.URLs.Get = fmt.Sprintf("https://api.replicate.com/v1/predictions/%s", pred.ID)
	pred.URLs.Cancel = pred.URLs.Get + "/cancel"
	return pred, nil
}

// GetPrediction gets the next scripted status by prediction ID
func (m *MockClient) GetPrediction(ctx context.Context, predictionID string) (*types.ReplicatePredictionResponse, error) {
	return m.nextStatus(predictionID)
}

// GetPredictionURL gets the next scripted status by status URL
func (m *MockClient) GetPredictionURL(ctx context.Context, statusURL string) (*types.ReplicatePredictionResponse, error) {
	return m.nextStatus(statusURL)
}

func (m *MockClient) nextStatus(ref string) (*types.ReplicatePredictionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, ref)
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	status := types.StatusProcessing
	if len(m.StatusSequence) > 0 {
		idx := m.getCount
		if idx >= len(m.StatusSequence) {
			idx = len(m.StatusSequence) - 1
		}
		status = m.StatusSequence[idx]
	}
	m.getCount++

	pred := &types.ReplicatePredictionResponse{
		ID:     "mock-pred-1",
		Status: status,
	}
	pred.URLs.Get = ref
	switch status {
	case types.StatusSucceeded:
		pred.Output = m.Output
	case types.StatusFailed:
		pred.Error = m.ErrorPayload
		if pred.Error == nil {
			pred.Error = "mock failure"
		}
	}
	return pred, nil
}

// Wait polls scripted statuses with the same loop shape as the real client
func (m *MockClient) Wait(ctx context.Context, statusURL string, maxWait time.Duration) (*types.ReplicatePredictionResponse, error) {
	interval := m.PollInterval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	start := time.Now()

	for {
		if time.Since(start) > maxWait {
			return nil, &TimeoutError{MaxWait: maxWait}
		}

		pred, err := m.GetPredictionURL(ctx, statusURL)
		if err != nil {
			return nil, err
		}
		if types.IsTerminalStatus(pred.Status) {
			return pred, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// CancelPrediction records the cancellation
func (m *MockClient) CancelPrediction(ctx context.Context, predictionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CancelCalls = append(m.CancelCalls, predictionID)
	return nil
}

// Reset clears all recorded calls and scripted state for a fresh test
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UploadCalls = nil
	m.CreateCalls = nil
	m.GetCalls = nil
	m.CancelCalls = nil
	m.getCount = 0
	m.UploadErr = nil
	m.CreateErr = nil
	m.GetErr = nil
}

// Ensure MockClient implements the Client interface
var _ Client = (*MockClient)(nil)
