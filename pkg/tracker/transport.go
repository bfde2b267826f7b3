package tracker

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransport is matched by every delivery failure reported in an Outcome.
var ErrTransport = errors.New("transport error")

// Handle identifies one submitted request. Handles are opaque and only
// meaningful to the transport that issued them.
type Handle uint64

// Outcome is the result of delivering one request.
type Outcome struct {
	Handle     Handle
	StatusCode int
	Err        error
}

// Transport delivers built requests.
//
// Submit must not block on network I/O. It returns a handle immediately and
// later calls done exactly once with an Outcome carrying the same handle.
// done may run on any goroutine, possibly before Submit returns.
type Transport interface {
	Submit(ctx context.Context, req *Request, done func(Outcome)) Handle
}

// StatusError is reported when the collector answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("collector returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("collector returned status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// TransportFunc adapts a function to the Transport interface. Handles are
// assigned by the function itself.
type TransportFunc func(ctx context.Context, req *Request, done func(Outcome)) Handle

func (f TransportFunc) Submit(ctx context.Context, req *Request, done func(Outcome)) Handle {
	return f(ctx, req, done)
}
