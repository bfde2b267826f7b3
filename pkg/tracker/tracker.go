package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/usestring/gatrack/pkg/hit"
)

// ErrNoNetworkTransport is returned by Track when no Transport is attached.
var ErrNoNetworkTransport = errors.New("no network transport")

// ErrorCode classifies tracker errors.
type ErrorCode int

const (
	NoError ErrorCode = iota
	NoNetworkTransport
	MissingHitType
	MissingRequiredParameter
	InvalidParameterType
	ParameterTooLong
	ParameterNotAllowedForHitType
	PayloadTooLarge
	TransportError
	UnknownError
)

var errorCodeNames = [...]string{
	NoError:                       "no_error",
	NoNetworkTransport:            "no_network_transport",
	MissingHitType:                "missing_hit_type",
	MissingRequiredParameter:      "missing_required_parameter",
	InvalidParameterType:          "invalid_parameter_type",
	ParameterTooLong:              "parameter_too_long",
	ParameterNotAllowedForHitType: "parameter_not_allowed_for_hit_type",
	PayloadTooLarge:               "payload_too_large",
	TransportError:                "transport_error",
	UnknownError:                  "unknown_error",
}

func (c ErrorCode) String() string {
	if c >= 0 && int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return errorCodeNames[UnknownError]
}

// CodeOf maps err to its ErrorCode. nil maps to NoError.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, ErrNoNetworkTransport):
		return NoNetworkTransport
	case errors.Is(err, hit.ErrMissingHitType):
		return MissingHitType
	case errors.Is(err, hit.ErrMissingRequiredParameter):
		return MissingRequiredParameter
	case errors.Is(err, hit.ErrInvalidParameterType):
		return InvalidParameterType
	case errors.Is(err, hit.ErrParameterTooLong):
		return ParameterTooLong
	case errors.Is(err, hit.ErrParameterNotAllowed):
		return ParameterNotAllowedForHitType
	case errors.Is(err, ErrPayloadTooLarge):
		return PayloadTooLarge
	case errors.Is(err, ErrTransport):
		return TransportError
	default:
		return UnknownError
	}
}

// Tracked is delivered once per submitted hit when its delivery finishes.
// Err is nil when the collector acknowledged the request.
type Tracked struct {
	Handle     Handle
	Request    *Request
	StatusCode int
	Err        error
}

// Tracker validates hits, builds requests and hands them to a Transport.
// It is safe for concurrent use.
type Tracker struct {
	cfg       *Configuration
	builder   *Builder
	transport Transport

	mu        sync.Mutex
	session   Session
	gen       uint64 // bumped on every session flag change
	seq       uint64
	pending   map[uint64]*Request
	inFlight  int
	drained   chan struct{}
	onSubmit  []func(*hit.Hit, *Request)
	onTracked []func(Tracked)
}

// Option is a functional option for configuring the Tracker.
type Option func(*Tracker)

// WithTransport attaches the transport used to deliver hits.
func WithTransport(t Transport) Option {
	return func(tr *Tracker) {
		tr.transport = t
	}
}

// WithBuilder replaces the default request builder.
func WithBuilder(b *Builder) Option {
	return func(tr *Tracker) {
		tr.builder = b
	}
}

// WithOnTracked registers a completion callback.
func WithOnTracked(fn func(Tracked)) Option {
	return func(tr *Tracker) {
		tr.onTracked = append(tr.onTracked, fn)
	}
}

// WithOnSubmit registers a callback that runs for every accepted hit just
// before it is handed to the transport, so it always precedes the matching
// Tracked event.
func WithOnSubmit(fn func(*hit.Hit, *Request)) Option {
	return func(tr *Tracker) {
		tr.onSubmit = append(tr.onSubmit, fn)
	}
}

// New creates a Tracker for cfg. A nil cfg uses NewConfiguration.
func New(cfg *Configuration, opts ...Option) *Tracker {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	t := &Tracker{
		cfg:     cfg,
		builder: NewBuilder(),
		pending: make(map[uint64]*Request),
		drained: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnTracked registers a completion callback after construction.
func (t *Tracker) OnTracked(fn func(Tracked)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTracked = append(t.onTracked, fn)
}

// Configuration returns a snapshot of the current configuration.
func (t *Tracker) Configuration() *Configuration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Clone()
}

// Configure mutates the configuration while no build is reading it.
func (t *Tracker) Configure(fn func(*Configuration)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.cfg)
}

// StartSession marks the next tracked hit as the start of a session.
func (t *Tracker) StartSession() { t.setSession(StartSession) }

// EndSession marks the next tracked hit as the end of a session.
func (t *Tracker) EndSession() { t.setSession(EndSession) }

// ClearSession drops a pending start or end flag.
func (t *Tracker) ClearSession() { t.setSession(NoSession) }

// Session returns the flag that will be attached to the next hit.
func (t *Tracker) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

func (t *Tracker) setSession(s Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = s
	t.gen++
}

// Prepare validates h and builds its request without submitting it or
// consuming the session flag.
func (t *Tracker) Prepare(h *hit.Hit) (*Request, error) {
	if h == nil {
		return nil, &hit.ValidationError{Kind: hit.ErrMissingHitType}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	cfg := t.cfg.Clone()
	s := t.session
	t.mu.Unlock()

	return t.builder.Build(cfg, h, s)
}

// Track validates, builds and submits h. Validation failures are returned
// before anything is sent. Delivery failures are not returned; they are
// logged and reported through the Tracked callbacks.
//
// The returned request may carry a PayloadTooLargeError in its Warning
// field; it is submitted regardless.
func (t *Tracker) Track(ctx context.Context, h *hit.Hit) (*Request, error) {
	if t.transport == nil {
		return nil, ErrNoNetworkTransport
	}
	if h == nil {
		return nil, &hit.ValidationError{Kind: hit.ErrMissingHitType}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	cfg := t.cfg.Clone()
	s, gen := t.session, t.gen
	t.mu.Unlock()

	req, err := t.builder.Build(cfg, h, s)
	if err != nil {
		return nil, err
	}

	// A flag set while building belongs to the next hit.
	t.mu.Lock()
	if t.gen == gen && s != NoSession {
		t.session = NoSession
		t.gen++
	}
	t.seq++
	id := t.seq
	t.pending[id] = req
	t.inFlight++
	onSubmit := t.onSubmit
	t.mu.Unlock()

	for _, fn := range onSubmit {
		fn(h, req)
	}

	handle := t.transport.Submit(ctx, req, func(o Outcome) {
		t.complete(id, o)
	})
	slog.Debug("hit submitted",
		slog.Uint64("handle", uint64(handle)),
		slog.String("hit_type", h.Type.String()),
		slog.String("method", req.Method),
		slog.Int("size", req.Size),
	)
	return req, nil
}

func (t *Tracker) complete(id uint64, o Outcome) {
	t.mu.Lock()
	req, ok := t.pending[id]
	if !ok {
		t.mu.Unlock()
		slog.Debug("ignoring duplicate completion", slog.Uint64("handle", uint64(o.Handle)))
		return
	}
	delete(t.pending, id)
	callbacks := append([]func(Tracked){}, t.onTracked...)
	t.mu.Unlock()

	if o.Err != nil {
		slog.Warn("hit delivery failed",
			slog.Uint64("handle", uint64(o.Handle)),
			slog.Int("status", o.StatusCode),
			slog.String("error", o.Err.Error()),
		)
	}

	ev := Tracked{Handle: o.Handle, Request: req, StatusCode: o.StatusCode, Err: o.Err}
	for _, fn := range callbacks {
		fn(ev)
	}

	t.mu.Lock()
	t.inFlight--
	if t.inFlight == 0 {
		close(t.drained)
		t.drained = make(chan struct{})
	}
	t.mu.Unlock()
}

// Pending returns the number of submitted hits whose Tracked callbacks have
// not yet returned.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Wait blocks until every submitted hit has completed or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.inFlight == 0 {
		t.mu.Unlock()
		return nil
	}
	drained := t.drained
	t.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
