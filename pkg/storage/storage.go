package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/gomcpgo/replicate_portrait/pkg/types"
)

// Storage handles local file storage for downloaded outputs
type Storage struct {
	rootPath   string
	httpClient *http.Client
}

// NewStorage creates a new storage instance
func NewStorage(rootPath string) *Storage {
	return &Storage{
		rootPath: rootPath,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// NewOperationID creates a fresh operation directory and returns its ID
func (s *Storage) NewOperationID() (string, error) {
	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Join(s.rootPath, id), 0755); err != nil {
		return "", fmt.Errorf("failed to create operation directory: %w", err)
	}
	return id, nil
}

// SaveOutputs downloads the output URLs into the operation directory.
// Downloads run concurrently; returned paths keep the input order.
func (s *Storage) SaveOutputs(ctx context.Context, id string, urls []string) ([]string, error) {
	paths := make([]string, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	for i, outputURL := range urls {
		i, outputURL := i, outputURL
		g.Go(func() error {
			path, err := s.downloadOutput(ctx, id, i+1, outputURL)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}

func (s *Storage) downloadOutput(ctx context.Context, id string, n int, outputURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", outputURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download output: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read output data: %w", err)
	}

	path := filepath.Join(s.rootPath, id, fmt.Sprintf("output_%d%s", n, outputExt(outputURL)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save output: %w", err)
	}

	return path, nil
}

// outputExt infers a file extension from the URL path, defaulting to .png
func outputExt(outputURL string) string {
	u, err := url.Parse(outputURL)
	if err != nil {
		return ".png"
	}
	switch ext := strings.ToLower(filepath.Ext(u.Path)); ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	}
	return ".png"
}

// SaveMetadata saves the sidecar record for an operation
func (s *Storage) SaveMetadata(id string, metadata *types.OperationMetadata) error {
	metadataPath := filepath.Join(s.rootPath, id, "metadata.yaml")

	if metadata.Version == "" {
		metadata.Version = "1.0"
	}
	if metadata.Timestamp.IsZero() {
		metadata.Timestamp = time.Now()
	}

	data, err := yaml.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metadataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

// LoadMetadata loads the sidecar record for an operation
func (s *Storage) LoadMetadata(id string) (*types.OperationMetadata, error) {
	metadataPath := filepath.Join(s.rootPath, id, "metadata.yaml")

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata types.OperationMetadata
	if err := yaml.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &metadata, nil
}
