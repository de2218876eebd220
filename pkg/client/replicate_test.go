package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomcpgo/replicate_portrait/pkg/types"
)

// statusServer serves a scripted sequence of prediction statuses, one per
// request; the last entry repeats.
func statusServer(t *testing.T, statuses []string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		idx := int(n) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		resp := map[string]interface{}{
			"id":     "pred-1",
			"status": statuses[idx],
		}
		if statuses[idx] == types.StatusSucceeded {
			resp["output"] = []string{"https://replicate.delivery/out/image.png"}
		}
		if statuses[idx] == types.StatusFailed {
			resp["error"] = "boom"
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestWait_ReturnsTerminalPayload(t *testing.T) {
	server, calls := statusServer(t, []string{
		types.StatusProcessing,
		types.StatusProcessing,
		types.StatusSucceeded,
	})

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	pred, err := c.Wait(context.Background(), server.URL+"/predictions/pred-1", 600*time.Second)

	require.NoError(t, err)
	assert.Equal(t, types.StatusSucceeded, pred.Status)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls), "one read per status in the sequence")

	// No further reads after a terminal status was observed
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestWait_FailedIsReturnedNotRaised(t *testing.T) {
	server, calls := statusServer(t, []string{types.StatusFailed})

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	pred, err := c.Wait(context.Background(), server.URL+"/predictions/pred-1", 600*time.Second)

	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, pred.Status)
	assert.Equal(t, "boom", pred.Error)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestWait_CanceledIsTerminal(t *testing.T) {
	server, calls := statusServer(t, []string{types.StatusCanceled})

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	pred, err := c.Wait(context.Background(), server.URL+"/predictions/pred-1", 600*time.Second)

	require.NoError(t, err)
	assert.Equal(t, types.StatusCanceled, pred.Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestWait_TimeoutBoundsReads(t *testing.T) {
	server, calls := statusServer(t, []string{types.StatusProcessing})

	// With a 30ms deadline and 20ms interval the deadline check before the
	// third read must fire: at most 2 reads happen.
	c := NewReplicateClientWith("test-token", server.URL, 20*time.Millisecond)
	pred, err := c.Wait(context.Background(), server.URL+"/predictions/pred-1", 30*time.Millisecond)

	require.Error(t, err)
	assert.Nil(t, pred)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 30*time.Millisecond, timeoutErr.MaxWait)

	got := atomic.LoadInt32(calls)
	assert.LessOrEqual(t, got, int32(2))

	// No further reads after the timeout fired
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, got, atomic.LoadInt32(calls))
}

func TestWait_TransportErrorPropagatesImmediately(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	_, err := c.Wait(context.Background(), server.URL+"/predictions/pred-1", 600*time.Second)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Error(t, transportErr.Err)
}

func TestWait_HTTPErrorPropagatesImmediately(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"server broke"}`))
	}))
	defer server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	_, err := c.Wait(context.Background(), server.URL+"/predictions/pred-1", 600*time.Second)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "server broke")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "read errors are not retried")
}

func TestWait_ContextCancellation(t *testing.T) {
	server, _ := statusServer(t, []string{types.StatusProcessing})

	c := NewReplicateClientWith("test-token", server.URL, 100*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx, server.URL+"/predictions/pred-1", 600*time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetPredictionURL_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":"pred-1","status":"succeeded"}`))
	}))
	defer server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	pred, err := c.GetPredictionURL(context.Background(), server.URL+"/predictions/pred-1")

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "pred-1", pred.ID)
}

func TestCreatePrediction_BareModelUsesModelEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pred-1","status":"starting","urls":{"get":"https://example.com/pred-1"}}`))
	}))
	defer server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	input := map[string]interface{}{"prompt": "a portrait"}
	pred, err := c.CreatePrediction(context.Background(), "black-forest-labs/flux-kontext-max", input)

	require.NoError(t, err)
	assert.Equal(t, "/models/black-forest-labs/flux-kontext-max/predictions", gotPath)
	assert.Equal(t, "a portrait", gotBody["input"].(map[string]interface{})["prompt"])
	assert.NotContains(t, gotBody, "version")
	assert.Equal(t, "https://example.com/pred-1", pred.URLs.Get)
}

func TestCreatePrediction_VersionHashUsesPredictionsEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pred-1","status":"starting"}`))
	}))
	defer server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	_, err := c.CreatePrediction(context.Background(), "stability-ai/sdxl:39ed52f2a78e", map[string]interface{}{"prompt": "x"})

	require.NoError(t, err)
	assert.Equal(t, "/predictions", gotPath)
	assert.Equal(t, "39ed52f2a78e", gotBody["version"])
}

func TestCreatePrediction_BillingErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"Insufficient credit"}`))
	}))
	defer server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	_, err := c.CreatePrediction(context.Background(), "owner/model", map[string]interface{}{"prompt": "x"})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusPaymentRequired, httpErr.StatusCode)
	assert.Equal(t, "Insufficient credit", httpErr.Body)
}

func TestUploadFile(t *testing.T) {
	refPath := filepath.Join(t.TempDir(), "reference.png")
	require.NoError(t, os.WriteFile(refPath, []byte("fake-png-bytes"), 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("content")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "fake-png-bytes", string(data))
		assert.Equal(t, "reference.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"file-1","urls":{"get":"https://api.replicate.com/v1/files/file-1/content"}}`))
	}))
	defer server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	url, err := c.UploadFile(context.Background(), refPath)

	require.NoError(t, err)
	assert.Equal(t, "https://api.replicate.com/v1/files/file-1/content", url)
}

func TestUploadFile_MissingFile(t *testing.T) {
	c := NewReplicateClient("test-token")
	_, err := c.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCancelPrediction(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"id":"pred-1","status":"canceled"}`))
	}))
	defer server.Close()

	c := NewReplicateClientWith("test-token", server.URL, 5*time.Millisecond)
	require.NoError(t, c.CancelPrediction(context.Background(), "pred-1"))
	assert.Equal(t, "/predictions/pred-1/cancel", gotPath)
	assert.Equal(t, "POST", gotMethod)
}
