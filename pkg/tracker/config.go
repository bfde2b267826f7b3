package tracker

import (
	"net/http"
	"net/url"
	"regexp"

	"github.com/google/uuid"
)

// Well-known collection endpoints.
const (
	NormalEndpoint = "http://www.google-analytics.com/collect"
	SecureEndpoint = "https://ssl.google-analytics.com/collect"
)

// DefaultUserAgent is sent when no user agent has been configured.
const DefaultUserAgent = "gatrack/1.0"

// ProtocolVersion is the measurement protocol version sent as v.
const ProtocolVersion = "1"

var trackingIDPattern = regexp.MustCompile(`(?i)^(UA|YT|MO)-\d+-\d+$`)

// Configuration holds everything a Tracker needs to address the collection
// endpoint. Setters validate their input and silently keep the previous
// value when it is rejected; the only exception is SetTrackingID, which
// clears the tracking id on invalid input.
//
// A Configuration is not safe for concurrent mutation.
type Configuration struct {
	trackingID   string
	clientID     uuid.UUID
	endpoint     *url.URL
	userAgent    string
	method       string
	cacheBusting bool
	anonymizeIP  bool
	tlsAvailable bool
}

// NewConfiguration returns a configuration targeting NormalEndpoint with a
// freshly generated random client id and POST requests.
func NewConfiguration() *Configuration {
	u, _ := url.Parse(NormalEndpoint)
	return &Configuration{
		clientID:     uuid.New(),
		endpoint:     u,
		userAgent:    DefaultUserAgent,
		method:       http.MethodPost,
		tlsAvailable: true,
	}
}

// SetTrackingID sets the property id. Ids must look like UA-1234-1 (also YT-
// and MO-, any case); anything else clears the tracking id.
func (c *Configuration) SetTrackingID(id string) {
	if trackingIDPattern.MatchString(id) {
		c.trackingID = id
		return
	}
	c.trackingID = ""
}

// TrackingID returns the current tracking id, or "" when none is set.
func (c *Configuration) TrackingID() string { return c.trackingID }

// SetClientID sets the client id. Only non-nil version 4 (random) UUIDs are
// accepted.
func (c *Configuration) SetClientID(id uuid.UUID) {
	if id == uuid.Nil || id.Version() != 4 {
		return
	}
	c.clientID = id
}

// SetClientIDString parses s as a UUID and applies SetClientID.
func (c *Configuration) SetClientIDString(s string) {
	id, err := uuid.Parse(s)
	if err != nil {
		return
	}
	c.SetClientID(id)
}

// ClientID returns the client id.
func (c *Configuration) ClientID() uuid.UUID { return c.clientID }

// SetEndpoint sets the collection URL. It must be an absolute http or https
// URL with a host. https endpoints are refused when TLS is unavailable.
// A fragment is dropped.
func (c *Configuration) SetEndpoint(raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	switch u.Scheme {
	case "http":
	case "https":
		if !c.tlsAvailable {
			return
		}
	default:
		return
	}
	u.Fragment, u.RawFragment = "", ""
	c.endpoint = u
}

// Endpoint returns the collection URL.
func (c *Configuration) Endpoint() string { return c.endpoint.String() }

// IsSecure reports whether the endpoint uses https.
func (c *Configuration) IsSecure() bool {
	return c.endpoint.Scheme == "https"
}

// SetTLSAvailable declares whether the runtime can speak TLS. While TLS is
// unavailable SetEndpoint refuses https URLs, and an https endpoint already
// configured falls back to NormalEndpoint.
func (c *Configuration) SetTLSAvailable(ok bool) {
	c.tlsAvailable = ok
	if !ok && c.IsSecure() {
		c.endpoint, _ = url.Parse(NormalEndpoint)
	}
}

// SetUserAgent sets the User-Agent header. Empty strings are ignored.
func (c *Configuration) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// UserAgent returns the User-Agent header value.
func (c *Configuration) UserAgent() string { return c.userAgent }

// SetRequestMethod selects http.MethodPost or http.MethodGet; other methods
// are ignored.
func (c *Configuration) SetRequestMethod(method string) {
	switch method {
	case http.MethodPost, http.MethodGet:
		c.method = method
	}
}

// RequestMethod returns the HTTP method used for hits.
func (c *Configuration) RequestMethod() string { return c.method }

// SetCacheBusting enables the random z parameter on GET requests. It has no
// effect on POST requests.
func (c *Configuration) SetCacheBusting(enabled bool) { c.cacheBusting = enabled }

// CacheBusting reports whether cache busting is enabled.
func (c *Configuration) CacheBusting() bool { return c.cacheBusting }

// SetIPAnonymization asks the collector to anonymize the sender's IP (aip=1).
func (c *Configuration) SetIPAnonymization(enabled bool) { c.anonymizeIP = enabled }

// AnonymizeIP reports whether IP anonymization is requested.
func (c *Configuration) AnonymizeIP() bool { return c.anonymizeIP }

// Clone returns an independent copy.
func (c *Configuration) Clone() *Configuration {
	cp := *c
	u := *c.endpoint
	cp.endpoint = &u
	return &cp
}
