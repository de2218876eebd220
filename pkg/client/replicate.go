package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomcpgo/replicate_portrait/pkg/types"
)

const (
	replicateAPIURL     = "https://api.replicate.com/v1"
	defaultPollInterval = 2 * time.Second
)

// ReplicateClient handles communication with the Replicate API
type ReplicateClient struct {
	apiToken     string
	baseURL      string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewReplicateClient creates a new Replicate API client
func NewReplicateClient(apiToken string) *ReplicateClient {
	return NewReplicateClientWith(apiToken, replicateAPIURL, defaultPollInterval)
}

// NewReplicateClientWith creates a client against a specific base URL with a
// custom poll interval. Used by tests and by callers that tune polling.
// Empty baseURL and non-positive pollInterval fall back to the defaults.
func NewReplicateClientWith(apiToken, baseURL string, pollInterval time.Duration) *ReplicateClient {
	if baseURL == "" {
		baseURL = replicateAPIURL
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &ReplicateClient{
		apiToken:     apiToken,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		pollInterval: pollInterval,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: slog.Default(),
	}
}

// SetLogger replaces the client's logger (defaults to slog.Default).
func (c *ReplicateClient) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// do sends the request and maps failures onto the error taxonomy:
// transport failures become TransportError, non-2xx responses become
// HTTPError carrying the status code and body.
func (c *ReplicateClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	c.logger.Debug("replicate response",
		"method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)

	if resp.StatusCode == http.StatusPaymentRequired {
		// 402 carries a human-readable billing explanation in "detail"
		var errorResp map[string]interface{}
		if err := json.Unmarshal(body, &errorResp); err == nil {
			if detail, ok := errorResp["detail"].(string); ok {
				return nil, &HTTPError{StatusCode: resp.StatusCode, Body: detail}
			}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// UploadFile uploads a local file to Replicate's file storage and returns
// the URL the API can fetch it from.
func (c *ReplicateClient) UploadFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="content"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	c.logger.Debug("uploading file", "path", path, "size", len(content), "mime", mimeType)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/files", c.baseURL), &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	respBody, err := c.do(httpReq)
	if err != nil {
		return "", err
	}

	var file types.ReplicateFileResponse
	if err := json.Unmarshal(respBody, &file); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if file.URLs.Get == "" {
		return "", fmt.Errorf("upload response missing retrieval URL")
	}

	return file.URLs.Get, nil
}

// CreatePrediction creates a new prediction on Replicate
func (c *ReplicateClient) CreatePrediction(ctx context.Context, modelVersion string, input map[string]interface{}) (*types.ReplicatePredictionResponse, error) {
	var url string
	var body []byte
	var err error

	// Model references with a version hash (owner/name:hash) go through the
	// generic predictions endpoint; bare names use the model endpoint, which
	// always runs the latest version.
	if strings.Contains(modelVersion, ":") {
		req := types.ReplicatePredictionRequest{
			Version: strings.SplitN(modelVersion, ":", 2)[1],
			Input:   input,
		}
		body, err = json.Marshal(req)
		url = fmt.Sprintf("%s/predictions", c.baseURL)
	} else {
		reqBody := map[string]interface{}{
			"input": input,
		}
		body, err = json.Marshal(reqBody)
		url = fmt.Sprintf("%s/models/%s/predictions", c.baseURL, modelVersion)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Debug("creating prediction", "url", url, "model", modelVersion, "body_bytes", len(body))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var prediction types.ReplicatePredictionResponse
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &prediction, nil
}

// GetPrediction gets the status of a prediction by ID
func (c *ReplicateClient) GetPrediction(ctx context.Context, predictionID string) (*types.ReplicatePredictionResponse, error) {
	return c.GetPredictionURL(ctx, fmt.Sprintf("%s/predictions/%s", c.baseURL, predictionID))
}

// GetPredictionURL gets the status of a prediction via its status endpoint URL
func (c *ReplicateClient) GetPredictionURL(ctx context.Context, statusURL string) (*types.ReplicatePredictionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var prediction types.ReplicatePredictionResponse
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &prediction, nil
}

// Wait polls a prediction's status endpoint until it reaches a terminal
// status or maxWait elapses. Terminal predictions are returned as-is, even
// when failed or canceled; classifying the outcome is the caller's job.
//
// The deadline is checked once per cycle, before each read, so the actual
// overrun past maxWait is bounded by one poll interval plus one request
// latency. Read errors are not retried.
func (c *ReplicateClient) Wait(ctx context.Context, statusURL string, maxWait time.Duration) (*types.ReplicatePredictionResponse, error) {
	start := time.Now()
	polls := 0

	for {
		if time.Since(start) > maxWait {
			c.logger.Debug("wait deadline exceeded", "polls", polls, "max_wait", maxWait)
			return nil, &TimeoutError{MaxWait: maxWait}
		}

		prediction, err := c.GetPredictionURL(ctx, statusURL)
		if err != nil {
			return nil, err
		}
		polls++

		c.logger.Debug("poll", "n", polls, "status", prediction.Status)

		if types.IsTerminalStatus(prediction.Status) {
			return prediction, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// CancelPrediction cancels a running prediction
func (c *ReplicateClient) CancelPrediction(ctx context.Context, predictionID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/predictions/%s/cancel", c.baseURL, predictionID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if _, err := c.do(httpReq); err != nil {
		return err
	}

	return nil
}
