package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomcpgo/replicate_portrait/pkg/types"
)

func TestNewOperationID(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root)

	id1, err := s.NewOperationID()
	require.NoError(t, err)
	id2, err := s.NewOperationID()
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.DirExists(t, filepath.Join(root, id1))
	assert.DirExists(t, filepath.Join(root, id2))
}

func TestSaveOutputs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("bytes-for-" + r.URL.Path))
	}))
	defer server.Close()

	s := NewStorage(t.TempDir())
	id, err := s.NewOperationID()
	require.NoError(t, err)

	paths, err := s.SaveOutputs(context.Background(), id, []string{
		server.URL + "/first.webp",
		server.URL + "/second.png",
		server.URL + "/third",
	})
	require.NoError(t, err)
	require.Len(t, paths, 3)

	// Paths keep input order; extensions come from the URL, defaulting to .png
	assert.Equal(t, "output_1.webp", filepath.Base(paths[0]))
	assert.Equal(t, "output_2.png", filepath.Base(paths[1]))
	assert.Equal(t, "output_3.png", filepath.Base(paths[2]))

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "bytes-for-/first.webp", string(data))
}

func TestSaveOutputs_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewStorage(t.TempDir())
	id, err := s.NewOperationID()
	require.NoError(t, err)

	_, err = s.SaveOutputs(context.Background(), id, []string{server.URL + "/gone.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestMetadataRoundTrip(t *testing.T) {
	s := NewStorage(t.TempDir())
	id, err := s.NewOperationID()
	require.NoError(t, err)

	metadata := &types.OperationMetadata{
		ID:        id,
		Operation: "generate_portrait",
		Model:     "black-forest-labs/flux-kontext-max",
		Parameters: map[string]interface{}{
			"prompt": "a portrait",
		},
		Result: &types.OperationResult{
			PredictionID:   "pred-1",
			OutputURLs:     []string{"https://replicate.delivery/out/1.png"},
			GenerationTime: 12.5,
		},
	}
	require.NoError(t, s.SaveMetadata(id, metadata))

	loaded, err := s.LoadMetadata(id)
	require.NoError(t, err)
	assert.Equal(t, "generate_portrait", loaded.Operation)
	assert.Equal(t, "pred-1", loaded.Result.PredictionID)
	assert.Equal(t, "1.0", loaded.Version, "version defaults when unset")
	assert.False(t, loaded.Timestamp.IsZero(), "timestamp defaults when unset")
}

func TestLoadMetadata_Missing(t *testing.T) {
	s := NewStorage(t.TempDir())
	_, err := s.LoadMetadata("no-such-id")
	require.Error(t, err)
}
