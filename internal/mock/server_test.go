package mock

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(cfg, t.TempDir(), opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestDefaultConfig_ServesTargetContract(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging = true
	srv, ts := newTestServer(t, cfg)

	tests := []struct {
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{http.MethodGet, "/health", "", http.StatusOK, `"status":"ok"`},
		{http.MethodPost, "/api/products", `{"name":"Test Product"}`, http.StatusCreated, `"name":"Test Product"`},
		{http.MethodPost, "/graphql", `{"query":"{ products { id } }"}`, http.StatusOK, `"products"`},
		{http.MethodGet, "/missing", "", http.StatusNotFound, "No route configured"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body, tt.want)
		})
	}

	logs := srv.GetLogs()
	require.Len(t, logs, 4)
	assert.Equal(t, "Create Product", logs[1].MatchedRule)
	assert.Equal(t, len(`{"name":"Test Product"}`), logs[1].BodySize)
	assert.Equal(t, "none", logs[3].MatchedRule)

	srv.ClearLogs()
	assert.Empty(t, srv.GetLogs())
}

func TestServer_RouteMatching(t *testing.T) {
	_, ts := newTestServer(t, &Config{
		Name: "Axum",
		Routes: []Route{
			{Method: "GET", Path: "/api/products/[0-9]+$", PathType: "regex", Status: 200, Body: "one"},
			{Method: "GET", Path: "/api/", PathType: "prefix", Status: 200, Body: "prefix"},
			{Method: "delete", Path: "/api/products", Status: 204},
		},
	})

	resp, body := do(t, http.MethodGet, ts.URL+"/api/products/42", "")
	assert.Equal(t, "one", body)
	assert.Equal(t, "Axum", resp.Header.Get("Server"))

	_, body = do(t, http.MethodGet, ts.URL+"/api/products/abc", "")
	assert.Equal(t, "prefix", body)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/products", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_Delay(t *testing.T) {
	_, ts := newTestServer(t, &Config{Routes: []Route{{Method: "GET", Path: "/slow", Delay: 50}}})

	start := time.Now()
	resp, _ := do(t, http.MethodGet, ts.URL+"/slow", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestServer_BodyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.json"), []byte(`{"from":"file"}`), 0644))

	srv, err := NewServer(&Config{Routes: []Route{
		{Method: "GET", Path: "/file", BodyFile: "body.json"},
		{Method: "GET", Path: "/gone", BodyFile: "missing.json"},
	}}, dir)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, body := do(t, http.MethodGet, ts.URL+"/file", "")
	assert.Equal(t, `{"from":"file"}`, body)

	resp, _ := do(t, http.MethodGet, ts.URL+"/gone", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_Middleware(t *testing.T) {
	var seen int
	_, ts := newTestServer(t, DefaultConfig(), WithMiddleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen++
			next.ServeHTTP(w, r)
		})
	}))

	do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, 1, seen)
}

func TestServer_StartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv, err := NewServer(cfg, "")
	require.NoError(t, err)
	// Port 0 is replaced by the default; pick a free one explicitly
	srv.config.Port = freePort(t)

	require.NoError(t, srv.Start())
	resp, _ := do(t, http.MethodGet, srv.GetAddress()+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
