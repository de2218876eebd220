package portrait

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gomcpgo/replicate_portrait/pkg/client"
	"github.com/gomcpgo/replicate_portrait/pkg/config"
	"github.com/gomcpgo/replicate_portrait/pkg/storage"
	"github.com/gomcpgo/replicate_portrait/pkg/types"
)

// Generator runs the portrait pipeline: upload the reference image, create
// a prediction, wait for a terminal status, collect the output URLs.
type Generator struct {
	client   client.Client
	storage  *storage.Storage
	timeouts config.TimeoutConfig
	logger   *slog.Logger
}

// NewGenerator creates a new Generator instance
func NewGenerator(c client.Client, store *storage.Storage, timeouts config.TimeoutConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:   c,
		storage:  store,
		timeouts: timeouts,
		logger:   logger,
	}
}

// Generate uploads the reference image, runs the prediction and waits it
// out. A prediction that terminates as failed or canceled is not an error;
// the Result carries the status and the remote error detail. Transport
// failures, HTTP errors and the polling deadline propagate as errors.
func (g *Generator) Generate(ctx context.Context, params Params) (*Result, error) {
	if params.ReferencePath == "" {
		return nil, Error{
			Code:    "invalid_parameters",
			Message: "reference image path is required",
		}
	}
	if _, err := os.Stat(params.ReferencePath); err != nil {
		return nil, Error{
			Code:    "invalid_parameters",
			Message: fmt.Sprintf("reference image not found: %s", params.ReferencePath),
		}
	}

	prompt := params.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	aspectRatio := params.AspectRatio
	if aspectRatio == "" {
		aspectRatio = DefaultAspectRatio
	}
	modelID := GetModelFromAlias(params.Model)

	uploadStart := time.Now()
	imageURL, err := g.client.UploadFile(ctx, params.ReferencePath)
	if err != nil {
		return nil, fmt.Errorf("failed to upload reference image: %w", err)
	}
	uploadTime := time.Since(uploadStart).Seconds()

	g.logger.Info("reference uploaded", "url", imageURL)

	input := map[string]interface{}{
		"prompt":       prompt,
		"input_image":  imageURL,
		"aspect_ratio": aspectRatio,
	}

	prediction, err := g.client.CreatePrediction(ctx, modelID, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}
	if prediction.URLs.Get == "" {
		return nil, Error{
			Code:    "bad_response",
			Message: fmt.Sprintf("prediction %s has no status URL", prediction.ID),
		}
	}

	g.logger.Info("prediction created", "id", prediction.ID, "model", modelID)

	waitStart := time.Now()
	final, err := g.client.Wait(ctx, prediction.URLs.Get, g.timeouts.MaxWait)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PredictionID: final.ID,
		Status:       final.Status,
		Model:        modelID,
		ModelName:    GetModelInfo(modelID).Name,
		Prompt:       prompt,
		OutputURLs:   extractOutputURLs(final.Output),
		Metrics: Metrics{
			UploadTime:     uploadTime,
			GenerationTime: time.Since(waitStart).Seconds(),
		},
	}

	if final.Status != types.StatusSucceeded {
		if final.Error != nil {
			result.ErrorDetail = fmt.Sprintf("%v", final.Error)
		}
		return result, nil
	}

	if len(result.OutputURLs) == 0 {
		return nil, Error{
			Code:    "no_output",
			Message: "prediction succeeded but produced no output URLs",
		}
	}

	if params.SaveOutputs {
		if err := g.saveResult(ctx, result, params); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Resume re-attaches to an existing prediction by ID and waits it out.
func (g *Generator) Resume(ctx context.Context, predictionID string) (*Result, error) {
	prediction, err := g.client.GetPrediction(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	final := prediction
	if !types.IsTerminalStatus(prediction.Status) {
		statusURL := prediction.URLs.Get
		if statusURL == "" {
			return nil, Error{
				Code:    "bad_response",
				Message: fmt.Sprintf("prediction %s has no status URL", predictionID),
			}
		}
		final, err = g.client.Wait(ctx, statusURL, g.timeouts.MaxWait)
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		PredictionID: final.ID,
		Status:       final.Status,
		OutputURLs:   extractOutputURLs(final.Output),
	}
	if final.Status != types.StatusSucceeded && final.Error != nil {
		result.ErrorDetail = fmt.Sprintf("%v", final.Error)
	}
	return result, nil
}

// saveResult downloads the outputs and writes the metadata sidecar
func (g *Generator) saveResult(ctx context.Context, result *Result, params Params) error {
	id, err := g.storage.NewOperationID()
	if err != nil {
		return fmt.Errorf("failed to allocate storage: %w", err)
	}
	result.ID = id

	paths, err := g.storage.SaveOutputs(ctx, id, result.OutputURLs)
	if err != nil {
		return fmt.Errorf("failed to save outputs: %w", err)
	}
	result.SavedPaths = paths

	metadata := &types.OperationMetadata{
		ID:        id,
		Operation: "generate_portrait",
		Model:     result.Model,
		Parameters: map[string]interface{}{
			"prompt":       result.Prompt,
			"aspect_ratio": params.AspectRatio,
			"reference":    params.ReferencePath,
		},
		Result: &types.OperationResult{
			PredictionID:   result.PredictionID,
			OutputURLs:     result.OutputURLs,
			Files:          paths,
			GenerationTime: result.Metrics.GenerationTime,
		},
	}
	if err := g.storage.SaveMetadata(id, metadata); err != nil {
		g.logger.Warn("failed to save metadata", "id", id, "error", err)
	}

	return nil
}

// extractOutputURLs normalizes the prediction output, which is either a
// single URL string or a list of them.
func extractOutputURLs(output interface{}) []string {
	switch v := output.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		var urls []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				urls = append(urls, s)
			}
		}
		return urls
	}
	return nil
}
