package mock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

const maxLogs = 1000

// Server is a route-table HTTP server standing in for a framework under test
type Server struct {
	config     *Config
	routes     []compiledRoute
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	logs       []RequestLog
	logsMutex  sync.RWMutex
	workdir    string
}

// Option configures a Server
type Option func(*Server)

// WithMiddleware wraps the route handler, e.g. for request metrics
func WithMiddleware(mw func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		if mw != nil {
			s.handler = mw(s.handler)
		}
	}
}

// compiledRoute is a route with its matcher prepared once
type compiledRoute struct {
	Route
	re *regexp.Regexp
}

// NewServer creates a new stub server. Bodies from BodyFile are resolved against workdir.
func NewServer(config *Config, workdir string, opts ...Option) (*Server, error) {
	if config.Port == 0 {
		config.Port = 3000
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		config:  config,
		logs:    make([]RequestLog, 0),
		workdir: workdir,
	}

	for _, route := range config.Routes {
		cr := compiledRoute{Route: route}
		if route.PathType == "regex" {
			cr.re = regexp.MustCompile(route.Path)
		}
		s.routes = append(s.routes, cr)
	}

	s.handler = http.HandlerFunc(s.handleRequest)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the request handler, for embedding in other servers
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stub server error", "error", err)
		}
	}()

	slog.Info("stub server listening", "name", s.config.Name, "addr", s.GetAddress(), "routes", len(s.routes))
	return nil
}

// Stop stops the stub server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// handleRequest handles incoming HTTP requests
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Drain the request body like a real handler would
	n, _ := io.Copy(io.Discard, r.Body)
	r.Body.Close()

	route := s.findMatchingRoute(r.Method, r.URL.Path)

	var status int
	var responseBody string
	var matchedRule string

	if route == nil {
		status = http.StatusNotFound
		responseBody = fmt.Sprintf("Stub server: No route configured for %s %s", r.Method, r.URL.Path)
		matchedRule = "none"
	} else {
		if route.Delay > 0 {
			select {
			case <-time.After(time.Duration(route.Delay) * time.Millisecond):
			case <-r.Context().Done():
				return
			}
		}

		status = route.Status
		if status == 0 {
			status = http.StatusOK
		}

		for key, value := range route.Headers {
			w.Header().Set(key, value)
		}

		if route.BodyFile != "" {
			filePath := route.BodyFile
			if !filepath.IsAbs(filePath) {
				filePath = filepath.Join(s.workdir, filePath)
			}
			bodyBytes, err := os.ReadFile(filePath)
			if err != nil {
				status = http.StatusInternalServerError
				responseBody = fmt.Sprintf("Stub server: Failed to read body file %s: %v", route.BodyFile, err)
			} else {
				responseBody = string(bodyBytes)
			}
		} else {
			responseBody = route.Body
		}

		matchedRule = route.Name
		if matchedRule == "" {
			matchedRule = fmt.Sprintf("%s %s", route.Method, route.Path)
		}
	}

	if s.config.Name != "" {
		w.Header().Set("Server", s.config.Name)
	}
	w.WriteHeader(status)
	w.Write([]byte(responseBody))

	if s.config.Logging {
		s.logRequest(RequestLog{
			Timestamp:   start,
			Method:      r.Method,
			Path:        r.URL.Path,
			BodySize:    int(n),
			MatchedRule: matchedRule,
			Status:      status,
			Duration:    time.Since(start),
		})
	}
}

// findMatchingRoute finds the first route that matches the method and path
func (s *Server) findMatchingRoute(method, path string) *compiledRoute {
	for i := range s.routes {
		route := &s.routes[i]
		if !strings.EqualFold(route.Method, method) {
			continue
		}

		matched := false
		switch route.PathType {
		case "", "exact":
			matched = route.Path == path
		case "prefix":
			matched = strings.HasPrefix(path, route.Path)
		case "regex":
			matched = route.re.MatchString(path)
		}

		if matched {
			return route
		}
	}

	return nil
}

// logRequest adds a request to the log
func (s *Server) logRequest(log RequestLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, log)

	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
}

// GetLogs returns the most recent served requests
func (s *Server) GetLogs() []RequestLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]RequestLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// ClearLogs clears all logged requests
func (s *Server) ClearLogs() {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = make([]RequestLog, 0)
}

// GetAddress returns the server base URL
func (s *Server) GetAddress() string {
	if s.listener != nil {
		return "http://" + s.listener.Addr().String()
	}
	return "http://" + net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}
