package executor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/studiowebux/webbench/internal/types"
)

const (
	// HTTP client configuration timeouts
	DefaultRequestTimeout = 10 * time.Second
	TCPDialTimeout        = 5 * time.Second
	TCPKeepAliveInterval  = 30 * time.Second
	TLSHandshakeTimeout   = 5 * time.Second
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = 1 * time.Second
)

// Options configures the shared HTTP client
type Options struct {
	PoolSize           int           // Connections kept per host, at least the run concurrency
	RequestTimeout     time.Duration // Upper bound for one request including body (default: 10s)
	InsecureSkipVerify bool
}

// Client executes single benchmark requests over a pooled HTTP client.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
}

// New creates a Client with connection pooling sized for opts.PoolSize workers
func New(opts Options) *Client {
	return &Client{httpClient: buildHTTPClient(opts)}
}

// NewWithHTTPClient wraps an existing http.Client
func NewWithHTTPClient(c *http.Client) *Client {
	return &Client{httpClient: c}
}

// HTTPClient returns the underlying client
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Close releases idle pooled connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// buildHTTPClient creates an HTTP client tuned for load generation
func buildHTTPClient(opts Options) *http.Client {
	poolSize := opts.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        poolSize,
		MaxIdleConnsPerHost: poolSize,
		MaxConnsPerHost:     poolSize * 2,
		IdleConnTimeout:     IdleConnTimeout,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,
		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Execute issues exactly one request for target and reports what happened.
// Network failures, timeouts and non-2xx statuses are returned as data;
// Execute never returns an error.
func (c *Client) Execute(ctx context.Context, target types.EndpointTarget) types.RequestOutcome {
	var bodyReader io.Reader
	if target.Body != "" {
		bodyReader = strings.NewReader(target.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, target.MethodOrDefault(), target.URL(), bodyReader)
	if err != nil {
		return types.RequestOutcome{
			ErrorKind: types.ErrorKindInvalidRequest,
			Detail:    fmt.Sprintf("failed to create request: %v", err),
		}
	}
	if target.Body != "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range target.Headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.RequestOutcome{
			Latency:   time.Since(start),
			ErrorKind: Classify(err),
			Detail:    err.Error(),
		}
	}

	// Drain so the connection goes back to the pool; the body itself is not inspected
	_, readErr := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)

	outcome := types.RequestOutcome{
		Succeeded:  IsSuccessStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Latency:    latency,
	}
	if readErr != nil {
		outcome.Succeeded = false
		outcome.Detail = fmt.Sprintf("failed to read response body: %v", readErr)
	}
	return outcome
}

// IsSuccessStatus checks if status code indicates success (2xx)
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
