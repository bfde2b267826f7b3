package tracker

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/gatrack/pkg/hit"
)

const testClientID = "35009a79-1a05-49d7-b876-2b884d0f825b"

func testConfig(t *testing.T) *Configuration {
	t.Helper()
	cfg := NewConfiguration()
	cfg.SetTrackingID("UA-1234-1")
	cfg.SetClientID(uuid.MustParse(testClientID))
	cfg.SetUserAgent("gatrack-test/1.0")
	return cfg
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc-._~XYZ019", "abc-._~XYZ019"},
		{"hello world", "hello%20world"},
		{"/home?a=b&c", "%2Fhome%3Fa%3Db%26c"},
		{"a+b", "a%2Bb"},
		{"é", "%C3%A9"},
		{"100%", "100%25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escape(tt.in), tt.in)
	}
}

func TestBuild_Post(t *testing.T) {
	cfg := testConfig(t)
	h := hit.New(hit.PageView,
		hit.P(hit.DocumentPath, hit.Text("/home page")),
		hit.P(hit.DocumentTitle, hit.Text("Home")),
	)

	req, err := NewBuilder().Build(cfg, h, NoSession)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, NormalEndpoint, req.URL)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	assert.Equal(t, "gatrack-test/1.0", req.Header.Get("User-Agent"))
	assert.Equal(t,
		"t=pageview&dp=%2Fhome%20page&dt=Home&v=1&tid=UA-1234-1&cid="+testClientID,
		string(req.Body))
	assert.Equal(t, string(req.Body), req.Payload)
	assert.Equal(t, len(req.Body), req.Size)
	assert.NoError(t, req.Warning)

	values, err := url.ParseQuery(string(req.Body))
	require.NoError(t, err)
	assert.Equal(t, "1", values.Get("v"))
	assert.Equal(t, "UA-1234-1", values.Get("tid"))
	assert.Equal(t, testClientID, values.Get("cid"))
	assert.Equal(t, "pageview", values.Get("t"))
}

func TestBuild_InjectedKeysOverrideCaller(t *testing.T) {
	cfg := testConfig(t)
	h := hit.New(hit.Event,
		hit.Parameter{Key: "tid", Value: hit.Text("UA-9-9")},
		hit.Parameter{Key: "cid", Value: hit.Text("someone-else")},
		hit.Parameter{Key: "v", Value: hit.Text("2")},
		hit.Parameter{Key: "t", Value: hit.Text("event")},
		hit.P(hit.EventCategory, hit.Text("video")),
	)

	req, err := NewBuilder().Build(cfg, h, NoSession)
	require.NoError(t, err)
	assert.Equal(t, "t=event&ec=video&v=1&tid=UA-1234-1&cid="+testClientID, req.Payload)
}

func TestBuild_Get(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetRequestMethod(http.MethodGet)
	h := hit.New(hit.Event,
		hit.P(hit.EventCategory, hit.Text("video")),
		hit.P(hit.EventAction, hit.Text("play")),
	)

	req, err := NewBuilder().Build(cfg, h, NoSession)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Nil(t, req.Body)
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Equal(t, "gatrack-test/1.0", req.Header.Get("User-Agent"))
	assert.Equal(t,
		NormalEndpoint+"?t=event&ec=video&ea=play&v=1&tid=UA-1234-1&cid="+testClientID,
		req.URL)
	assert.Equal(t, len(req.URL), req.Size)
}

func TestBuild_GetEndpointWithQuery(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetRequestMethod(http.MethodGet)
	cfg.SetEndpoint("http://localhost/debug/collect?validate=1")

	req, err := NewBuilder().Build(cfg, hit.New(hit.PageView), NoSession)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.URL, "http://localhost/debug/collect?validate=1&t=pageview&"), req.URL)
}

func TestBuild_GetEndpointWithFragment(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetRequestMethod(http.MethodGet)
	cfg.SetEndpoint("http://example.com/collect?debug=1&#frag")

	req, err := NewBuilder().Build(cfg, hit.New(hit.PageView), NoSession)
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Empty(t, u.Fragment)
	assert.Equal(t, "debug=1&t=pageview&v=1&tid=UA-1234-1&cid="+testClientID, u.RawQuery)
	assert.Equal(t, "pageview", u.Query().Get("t"))
}

func TestQueryURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"http://c/collect", "http://c/collect?t=event"},
		{"http://c/collect?", "http://c/collect?t=event"},
		{"http://c/collect?a=1", "http://c/collect?a=1&t=event"},
		{"http://c/collect?a=1&", "http://c/collect?a=1&t=event"},
		{"http://c/collect#top", "http://c/collect?t=event"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.endpoint)
		require.NoError(t, err)
		assert.Equal(t, tt.want, queryURL(u, "t=event"), tt.endpoint)
	}
}

func TestBuild_CacheBusting(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetRequestMethod(http.MethodGet)
	cfg.SetCacheBusting(true)
	h := hit.New(hit.PageView)

	b := NewBuilder(WithCacheBuster(func() int { return 42 }))
	req, err := b.Build(cfg, h, NoSession)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(req.URL, "&cid="+testClientID+"&z=42"), req.URL)

	// out of range values are clamped
	req, err = NewBuilder(WithCacheBuster(func() int { return 1 << 40 })).Build(cfg, h, NoSession)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(req.URL, "&z=99999999"), req.URL)

	// the default source yields distinct URLs
	def := NewBuilder()
	seen := make(map[string]bool)
	for range 5 {
		req, err := def.Build(cfg, h, NoSession)
		require.NoError(t, err)
		seen[req.URL] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestBuild_CacheBustingIgnoredForPost(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetCacheBusting(true)

	req, err := NewBuilder(WithCacheBuster(func() int { return 7 })).Build(cfg, hit.New(hit.PageView), NoSession)
	require.NoError(t, err)
	assert.NotContains(t, req.Payload, "z=")
}

func TestBuild_AnonymizeAndSession(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetIPAnonymization(true)

	req, err := NewBuilder().Build(cfg, hit.New(hit.PageView), StartSession)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(req.Payload, "&cid="+testClientID+"&aip=1&sc=start"), req.Payload)

	// a caller supplied aip is kept as is and not duplicated
	h := hit.New(hit.PageView, hit.P(hit.AnonymizeIP, hit.Bool(false)))
	req, err = NewBuilder().Build(cfg, h, EndSession)
	require.NoError(t, err)
	assert.Equal(t, "t=pageview&aip=0&v=1&tid=UA-1234-1&cid="+testClientID+"&sc=end", req.Payload)
}

func TestBuild_RequiresTrackingID(t *testing.T) {
	cfg := NewConfiguration()
	_, err := NewBuilder().Build(cfg, hit.New(hit.PageView), NoSession)
	assert.ErrorIs(t, err, hit.ErrMissingRequiredParameter)
	assert.Equal(t, MissingRequiredParameter, CodeOf(err))

	_, err = NewBuilder().Build(nil, hit.New(hit.PageView), NoSession)
	assert.Error(t, err)
}

// padTo returns a hit whose request has exactly size bytes (body for POST,
// URL for GET) by padding an unknown passthrough parameter.
func padTo(t *testing.T, b *Builder, cfg *Configuration, size int) *hit.Hit {
	t.Helper()
	base, err := b.Build(cfg, hit.New(hit.PageView, hit.Parameter{Key: "xx", Value: hit.Text("")}), NoSession)
	require.NoError(t, err)
	require.Less(t, base.Size, size)
	return hit.New(hit.PageView, hit.Parameter{Key: "xx", Value: hit.Text(strings.Repeat("a", size-base.Size))})
}

func TestBuild_PostSizeLimit(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder()

	req, err := b.Build(cfg, padTo(t, b, cfg, MaxPostBodyBytes), NoSession)
	require.NoError(t, err)
	assert.Equal(t, MaxPostBodyBytes, req.Size)
	assert.NoError(t, req.Warning)

	req, err = b.Build(cfg, padTo(t, b, cfg, MaxPostBodyBytes+1), NoSession)
	require.NoError(t, err, "oversized requests are still built")
	assert.Equal(t, MaxPostBodyBytes+1, req.Size)
	assert.ErrorIs(t, req.Warning, ErrPayloadTooLarge)
	assert.Equal(t, PayloadTooLarge, CodeOf(req.Warning))

	var tooLarge *PayloadTooLargeError
	require.ErrorAs(t, req.Warning, &tooLarge)
	assert.Equal(t, MaxPostBodyBytes, tooLarge.Limit)
	assert.Equal(t, "payload too large: POST body is 8193 bytes, limit 8192", tooLarge.Error())
}

func TestBuild_GetSizeLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetRequestMethod(http.MethodGet)
	b := NewBuilder()

	req, err := b.Build(cfg, padTo(t, b, cfg, MaxGetURLBytes), NoSession)
	require.NoError(t, err)
	assert.Equal(t, MaxGetURLBytes, len(req.URL))
	assert.NoError(t, req.Warning)

	req, err = b.Build(cfg, padTo(t, b, cfg, MaxGetURLBytes+1), NoSession)
	require.NoError(t, err)
	assert.Equal(t, MaxGetURLBytes+1, len(req.URL))
	assert.ErrorIs(t, req.Warning, ErrPayloadTooLarge)
}
