package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUnreachable is returned when a target never answered the readiness probe
var ErrUnreachable = errors.New("target unreachable")

// ReadyOptions controls the readiness probe
type ReadyOptions struct {
	ProbePath string        // Path probed on every base URL (default: /health)
	Retries   int           // Attempts per server (default: 30)
	Delay     time.Duration // Pause between attempts (default: 1s)
}

func (o ReadyOptions) withDefaults() ReadyOptions {
	if o.ProbePath == "" {
		o.ProbePath = "/health"
	}
	if o.Retries <= 0 {
		o.Retries = 30
	}
	if o.Delay <= 0 {
		o.Delay = time.Second
	}
	return o
}

// WaitReady probes every distinct base URL concurrently until each one
// answers with any HTTP response. A server that only refuses connections
// after all retries makes WaitReady fail with ErrUnreachable.
func (c *Client) WaitReady(ctx context.Context, baseURLs []string, opts ReadyOptions) error {
	opts = opts.withDefaults()

	seen := make(map[string]bool)
	var unique []string
	for _, u := range baseURLs {
		u = strings.TrimRight(u, "/")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	var mu sync.Mutex
	var down []string

	g, gctx := errgroup.WithContext(ctx)
	for _, base := range unique {
		g.Go(func() error {
			if err := c.probe(gctx, base, opts); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				down = append(down, base)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(down) > 0 {
		sort.Strings(down)
		return fmt.Errorf("%w after %d retries: %s", ErrUnreachable, opts.Retries, strings.Join(down, ", "))
	}
	return nil
}

// probe retries a single server until it answers
func (c *Client) probe(ctx context.Context, base string, opts ReadyOptions) error {
	url := base + opts.ProbePath
	var lastErr error

	for attempt := 1; attempt <= opts.Retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create probe request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			slog.Debug("server is ready", "url", base, "attempt", attempt)
			return nil
		}
		lastErr = err

		if attempt == opts.Retries {
			break
		}
		slog.Info("waiting for server", "url", base, "attempt", attempt, "max", opts.Retries)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.Delay):
		}
	}

	slog.Warn("server not responding", "url", base, "error", Describe(Classify(lastErr)))
	return lastErr
}
