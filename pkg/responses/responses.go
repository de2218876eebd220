package responses

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gomcpgo/replicate_portrait/pkg/client"
	"github.com/gomcpgo/replicate_portrait/pkg/portrait"
)

// FormatResult renders a result as a human-readable block for the terminal
func FormatResult(r *portrait.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Prediction ID: %s\n", r.PredictionID)
	fmt.Fprintf(&b, "Final status: %s\n", r.Status)
	if r.ModelName != "" {
		fmt.Fprintf(&b, "Model: %s\n", r.ModelName)
	}

	if !r.Succeeded() {
		if r.ErrorDetail != "" {
			fmt.Fprintf(&b, "Error: %s\n", r.ErrorDetail)
		}
		return b.String()
	}

	for i, url := range r.OutputURLs {
		fmt.Fprintf(&b, "Output[%d]: %s\n", i+1, url)
	}
	for _, path := range r.SavedPaths {
		fmt.Fprintf(&b, "Saved: %s\n", path)
	}
	if r.Metrics.GenerationTime > 0 {
		fmt.Fprintf(&b, "Generation time: %.1fs\n", r.Metrics.GenerationTime)
	}

	return b.String()
}

// FormatResultJSON renders a result as indented JSON
func FormatResultJSON(r *portrait.Result) (string, error) {
	response := map[string]interface{}{
		"success":       r.Succeeded(),
		"prediction_id": r.PredictionID,
		"status":        r.Status,
		"output_urls":   r.OutputURLs,
	}
	if r.ID != "" {
		response["id"] = r.ID
	}
	if r.Model != "" {
		response["model"] = r.Model
	}
	if len(r.SavedPaths) > 0 {
		response["saved_paths"] = r.SavedPaths
	}
	if r.ErrorDetail != "" {
		response["error"] = r.ErrorDetail
	}
	if r.Metrics.GenerationTime > 0 {
		response["metrics"] = map[string]interface{}{
			"upload_time":     r.Metrics.UploadTime,
			"generation_time": r.Metrics.GenerationTime,
		}
	}

	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(jsonBytes), nil
}

// FormatError renders an error for the terminal, surfacing the HTTP status
// and body for API errors and the configured duration for timeouts.
func FormatError(err error) string {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("HTTPError %d: %s", httpErr.StatusCode, httpErr.Body)
	}

	var timeoutErr *client.TimeoutError
	if errors.As(err, &timeoutErr) {
		return fmt.Sprintf("Timeout: prediction did not finish in %v", timeoutErr.MaxWait)
	}

	var transportErr *client.TransportError
	if errors.As(err, &transportErr) {
		return fmt.Sprintf("TransportError: %v", transportErr.Err)
	}

	return err.Error()
}
