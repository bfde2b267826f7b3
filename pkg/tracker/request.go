package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/gatrack/pkg/hit"
)

// Soft size limits enforced by the collector.
const (
	MaxPostBodyBytes = 8192
	MaxGetURLBytes   = 2000
)

// maxCacheBuster is the inclusive upper bound of the z parameter.
const maxCacheBuster = 99999999

// ErrPayloadTooLarge marks a request whose body or URL exceeds the collector's
// soft limit. The request is still produced.
var ErrPayloadTooLarge = errors.New("payload too large")

// PayloadTooLargeError describes an oversized request.
type PayloadTooLargeError struct {
	Method string
	Size   int
	Limit  int
}

func (e *PayloadTooLargeError) Error() string {
	what := "body"
	if e.Method == http.MethodGet {
		what = "URL"
	}
	return fmt.Sprintf("payload too large: %s %s is %d bytes, limit %d", e.Method, what, e.Size, e.Limit)
}

func (e *PayloadTooLargeError) Unwrap() error { return ErrPayloadTooLarge }

// Request is a transport-agnostic description of one hit on the wire.
// It is not modified after Build returns.
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Body is nil for GET requests.
	Body []byte
	// Payload is the encoded parameter list, either the body or the query.
	Payload string
	// Size is the body length for POST and the full URL length for GET.
	Size int
	// Warning is a *PayloadTooLargeError when a soft limit is exceeded.
	Warning error
}

// Builder turns hits into Requests.
type Builder struct {
	cacheBuster func() int
	printer     *message.Printer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCacheBuster replaces the random source for the z parameter. Values are
// clamped to 0..99999999.
func WithCacheBuster(fn func() int) BuilderOption {
	return func(b *Builder) {
		b.cacheBuster = fn
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		cacheBuster: func() int { return rand.IntN(maxCacheBuster + 1) },
		printer:     message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build serializes h for cfg. The hit is expected to be valid already; Build
// only refuses hits it cannot address (no tracking id).
//
// Caller supplied t, v, tid and cid are replaced by the hit type and the
// configuration values. When s is not NoSession an sc pair is appended.
func (b *Builder) Build(cfg *Configuration, h *hit.Hit, s Session) (*Request, error) {
	if cfg == nil || h == nil {
		return nil, errors.New("build: configuration and hit are required")
	}
	if cfg.TrackingID() == "" {
		return nil, &hit.ValidationError{Kind: hit.ErrMissingRequiredParameter, Key: hit.TrackingID.Key(), HitType: h.Type}
	}

	pairs := b.pairs(cfg, h, s)
	payload := encodePairs(pairs)

	req := &Request{
		Method:  cfg.RequestMethod(),
		Header:  make(http.Header),
		Payload: payload,
	}
	req.Header.Set("User-Agent", cfg.UserAgent())

	limit := MaxPostBodyBytes
	if req.Method == http.MethodGet {
		limit = MaxGetURLBytes
		req.URL = queryURL(cfg.endpoint, payload)
		req.Size = len(req.URL)
	} else {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.URL = cfg.Endpoint()
		req.Body = []byte(payload)
		req.Size = len(req.Body)
	}

	if req.Size > limit {
		req.Warning = &PayloadTooLargeError{Method: req.Method, Size: req.Size, Limit: limit}
		slog.Warn("hit exceeds collector size limit",
			slog.String("method", req.Method),
			slog.String("hit_type", h.Type.String()),
			slog.String("size", b.printer.Sprintf("%d bytes", req.Size)),
			slog.String("limit", b.printer.Sprintf("%d bytes", limit)),
		)
	}
	return req, nil
}

func (b *Builder) pairs(cfg *Configuration, h *hit.Hit, s Session) []pair {
	params := h.Parameters()
	pairs := make([]pair, 0, len(params)+7)
	pairs = append(pairs, pair{hit.HitTypeParam.Key(), h.Type.String()})

	bust := cfg.RequestMethod() == http.MethodGet && cfg.CacheBusting()
	callerAIP := false
	for _, p := range params {
		switch p.Key {
		case hit.HitTypeParam.Key(), hit.ProtocolVersion.Key(), hit.TrackingID.Key(), hit.ClientID.Key():
			continue
		case hit.SessionControl.Key():
			if s != NoSession {
				continue
			}
		case hit.CacheBuster.Key():
			if bust {
				continue
			}
		case hit.AnonymizeIP.Key():
			callerAIP = true
		}
		pairs = append(pairs, pair{p.Key, p.Value.String()})
	}

	pairs = append(pairs,
		pair{hit.ProtocolVersion.Key(), ProtocolVersion},
		pair{hit.TrackingID.Key(), cfg.TrackingID()},
		pair{hit.ClientID.Key(), cfg.ClientID().String()},
	)
	if cfg.AnonymizeIP() && !callerAIP {
		pairs = append(pairs, pair{hit.AnonymizeIP.Key(), "1"})
	}
	if v := s.Value(); v != "" {
		pairs = append(pairs, pair{hit.SessionControl.Key(), v})
	}
	if bust {
		z := min(max(b.cacheBuster(), 0), maxCacheBuster)
		pairs = append(pairs, pair{hit.CacheBuster.Key(), strconv.Itoa(z)})
	}
	return pairs
}

// queryURL returns endpoint with query appended to its existing query string.
// The fragment is dropped since it is never sent to the collector.
func queryURL(endpoint *url.URL, query string) string {
	u := *endpoint
	u.Fragment, u.RawFragment = "", ""
	u.ForceQuery = false
	if existing := strings.TrimRight(u.RawQuery, "&"); existing != "" && query != "" {
		u.RawQuery = existing + "&" + query
	} else {
		u.RawQuery = existing + query
	}
	return u.String()
}
