package client

import (
	"fmt"
	"time"
)

// TransportError wraps a network-level failure (connection refused, DNS,
// broken pipe). It is never retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response from the Replicate API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// TimeoutError means a prediction did not reach a terminal status within
// the configured wait duration.
type TimeoutError struct {
	MaxWait time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("prediction did not finish in %v", e.MaxWait)
}
