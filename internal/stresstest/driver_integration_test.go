package stresstest

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/webbench/internal/executor"
	"github.com/studiowebux/webbench/internal/types"
)

// TestDriver_BasicExecution runs a real HTTP benchmark end to end
func TestDriver_BasicExecution(t *testing.T) {
	var requestCount atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := executor.New(executor.Options{PoolSize: 5})
	defer client.Close()

	result, err := NewDriver(client).Run(context.Background(), "Axum", types.EndpointTarget{
		Label:   "Health Check",
		BaseURL: server.URL,
		Path:    "/health",
		Method:  http.MethodGet,
	}, types.BenchmarkConfig{Concurrency: 5, TotalRequests: 50})
	require.NoError(t, err)

	assert.Len(t, result.Outcomes, 50)
	assert.Equal(t, int64(50), requestCount.Load())

	stats, err := Aggregate(result)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.TotalRequests)
	assert.Equal(t, 5, stats.Concurrency)
	assert.Equal(t, 100.0, stats.SuccessRatePct)
	assert.Equal(t, 50, stats.StatusCodes[http.StatusOK])
	assert.Greater(t, stats.RequestsPerSecond, 0.0)
}

// TestDriver_BodyPropagation checks every request carries the configured body
func TestDriver_BodyPropagation(t *testing.T) {
	const body = `{"name":"Test Product","description":"A test product for benchmarking","price":1999,"inventory":100}`

	var mismatched atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ := io.ReadAll(r.Body)
		if string(got) != body || r.Method != http.MethodPost {
			mismatched.Add(1)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	result, err := NewDriver(executor.New(executor.Options{PoolSize: 4})).Run(context.Background(), "ActixWeb", types.EndpointTarget{
		Label:   "Create Product",
		BaseURL: server.URL,
		Path:    "/api/products",
		Method:  http.MethodPost,
		Body:    body,
	}, types.BenchmarkConfig{Concurrency: 4, TotalRequests: 20})
	require.NoError(t, err)

	assert.Zero(t, mismatched.Load())
	for _, o := range result.Outcomes {
		assert.True(t, o.Succeeded)
		assert.Equal(t, http.StatusCreated, o.StatusCode)
	}
}

// TestDriver_MixedStatuses counts non-2xx responses as failures
func TestDriver_MixedStatuses(t *testing.T) {
	var n atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result, err := NewDriver(executor.New(executor.Options{PoolSize: 10})).Run(context.Background(), "Axum", types.EndpointTarget{
		Label:   "Health Check",
		BaseURL: server.URL,
		Path:    "/health",
	}, types.BenchmarkConfig{Concurrency: 10, TotalRequests: 100})
	require.NoError(t, err)

	stats, err := Aggregate(result)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stats.SuccessRatePct)
	assert.Equal(t, 50, stats.Failed)
	assert.Equal(t, 50, stats.StatusCodes[http.StatusInternalServerError])
}

// TestDriver_NetworkErrors runs against a port nobody listens on
func TestDriver_NetworkErrors(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	result, err := NewDriver(executor.New(executor.Options{PoolSize: 3})).Run(context.Background(), "Axum", types.EndpointTarget{
		Label:   "Health Check",
		BaseURL: "http://" + addr,
		Path:    "/health",
	}, types.BenchmarkConfig{Concurrency: 3, TotalRequests: 9, RequestTimeout: 2 * time.Second})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 9)

	stats, err := Aggregate(result)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.SuccessRatePct)
	assert.Equal(t, 9, stats.ErrorKinds[types.ErrorKindConnectionRefused])
	assert.Empty(t, stats.StatusCodes)
}
