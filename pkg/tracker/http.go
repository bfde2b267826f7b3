package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxInFlight bounds concurrent deliveries of an HTTPTransport.
const DefaultMaxInFlight = 4

// maxErrorBody caps how much of a failed response is kept in a StatusError.
const maxErrorBody = 512

// ErrTransportClosed is reported for requests submitted after Close.
var ErrTransportClosed = errors.New("transport closed")

// HTTPTransport delivers requests with net/http. Submissions are queued on
// goroutines and at most maxInFlight requests run at once.
type HTTPTransport struct {
	httpClient  *http.Client
	maxInFlight int64
	sem         *semaphore.Weighted
	group       errgroup.Group
	next        atomic.Uint64

	mu     sync.Mutex // orders group.Go against Close
	closed bool
}

// HTTPOption is a functional option for configuring an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.httpClient = httpClient
	}
}

// WithMaxInFlight sets the number of concurrent deliveries. Values below 1
// are ignored.
func WithMaxInFlight(n int) HTTPOption {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.maxInFlight = int64(n)
		}
	}
}

// NewHTTPTransport creates a new HTTP transport.
func NewHTTPTransport(opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		httpClient:  http.DefaultClient,
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.sem = semaphore.NewWeighted(t.maxInFlight)
	return t
}

// Submit queues req for delivery and returns immediately.
func (t *HTTPTransport) Submit(ctx context.Context, req *Request, done func(Outcome)) Handle {
	h := Handle(t.next.Add(1))

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		go done(Outcome{Handle: h, Err: fmt.Errorf("%w: %w", ErrTransport, ErrTransportClosed)})
		return h
	}

	t.group.Go(func() error {
		if err := t.sem.Acquire(ctx, 1); err != nil {
			done(Outcome{Handle: h, Err: fmt.Errorf("%w: %w", ErrTransport, err)})
			return nil
		}
		defer t.sem.Release(1)

		out := t.do(ctx, req)
		out.Handle = h
		done(out)
		return nil
	})
	return h
}

// Close stops accepting requests and waits for in-flight deliveries to
// finish or ctx to expire.
func (t *HTTPTransport) Close(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		_ = t.group.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *HTTPTransport) do(ctx context.Context, r *Request) Outcome {
	start := time.Now()

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%w: creating request: %w", ErrTransport, err)}
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		slog.Debug("HTTP request failed",
			slog.String("method", r.Method),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return Outcome{Err: fmt.Errorf("%w: executing request: %w", ErrTransport, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Debug("HTTP request returned error",
			slog.String("method", r.Method),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return Outcome{
			StatusCode: resp.StatusCode,
			Err:        &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))},
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	slog.Debug("HTTP request completed",
		slog.String("method", r.Method),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return Outcome{StatusCode: resp.StatusCode}
}
