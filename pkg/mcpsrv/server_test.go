package mcpsrv

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/gatrack/pkg/hit"
	"github.com/usestring/gatrack/pkg/tracker"
)

// heldTransport completes deliveries only when release is called.
type heldTransport struct {
	mu      sync.Mutex
	pending []func(tracker.Outcome)
	closed  bool
}

func (h *heldTransport) Submit(_ context.Context, _ *tracker.Request, done func(tracker.Outcome)) tracker.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, done)
	return tracker.Handle(len(h.pending))
}

func (h *heldTransport) release() {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()
	for i, done := range pending {
		done(tracker.Outcome{Handle: tracker.Handle(i + 1), StatusCode: 200})
	}
}

func (h *heldTransport) Close(context.Context) error {
	h.closed = true
	return nil
}

func connect(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	ss, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestNewServer_AppliesEnvironment(t *testing.T) {
	t.Setenv("GA_TRACKING_ID", "UA-42-7")
	t.Setenv("GA_REQUEST_METHOD", "get")
	t.Setenv("GA_ANONYMIZE_IP", "true")

	s, err := NewServer(nil, WithLogLevel("error"), WithTransport(&heldTransport{}))
	require.NoError(t, err)
	defer s.Close()

	cfg := s.Deps().Tracker.Configuration()
	assert.Equal(t, "UA-42-7", cfg.TrackingID())
	assert.Equal(t, "GET", cfg.RequestMethod())
	assert.True(t, cfg.AnonymizeIP())
	assert.NotNil(t, s.Deps().HitLog)
	assert.NotNil(t, s.Deps().Schema)
}

func TestNewServer_ConfigurationIsCopied(t *testing.T) {
	t.Setenv("GA_TRACKING_ID", "")

	base := tracker.NewConfiguration()
	base.SetTrackingID("UA-1-1")

	s, err := NewServer(base, WithLogLevel("error"), WithTransport(&heldTransport{}))
	require.NoError(t, err)
	defer s.Close()

	s.Deps().Tracker.Configure(func(c *tracker.Configuration) { c.SetTrackingID("UA-2-2") })
	assert.Equal(t, "UA-1-1", base.TrackingID())
	assert.Equal(t, "UA-2-2", s.Deps().Tracker.Configuration().TrackingID())
}

func TestNewServer_CustomDepsTool(t *testing.T) {
	t.Setenv("GA_TRACKING_ID", "UA-1234-1")

	type signupInput struct {
		Plan string `json:"plan"`
	}
	type signupOutput struct {
		ID string `json:"id"`
	}

	s, err := NewServer(nil,
		WithLogLevel("error"),
		WithTransport(tracker.TransportFunc(func(_ context.Context, _ *tracker.Request, done func(tracker.Outcome)) tracker.Handle {
			done(tracker.Outcome{Handle: 1, StatusCode: 200})
			return 1
		})),
		WithDepsTool(
			&sdkmcp.Tool{Name: "track_signup", Description: "Track a signup event"},
			func(d *Deps) func(context.Context, *sdkmcp.CallToolRequest, signupInput) (*sdkmcp.CallToolResult, signupOutput, error) {
				return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in signupInput) (*sdkmcp.CallToolResult, signupOutput, error) {
					req, err := d.Tracker.Track(ctx, hit.New(hit.Event,
						hit.P(hit.EventCategory, hit.Text("account")),
						hit.P(hit.EventAction, hit.Text("signup")),
						hit.P(hit.EventLabel, hit.Text(in.Plan)),
					))
					if err != nil {
						return nil, signupOutput{}, err
					}
					id, _ := d.HitLog.IDOf(req)
					return nil, signupOutput{ID: id}, nil
				}
			},
		),
	)
	require.NoError(t, err)
	defer s.Close()

	cs := connect(t, s)
	ctx := context.Background()

	list, err := cs.ListTools(ctx, &sdkmcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "track_signup")
	assert.Contains(t, names, "ga_track_hit")

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "track_signup",
		Arguments: map[string]any{"plan": "pro"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	rec, ok := s.Deps().HitLog.Get("hit-0")
	require.True(t, ok)
	assert.Equal(t, "event", rec.HitType)
	assert.Equal(t, "delivered", string(rec.Status))
}

func TestServer_CloseDrainsPendingHits(t *testing.T) {
	t.Setenv("GA_TRACKING_ID", "UA-1234-1")

	transport := &heldTransport{}
	s, err := NewServer(nil, WithLogLevel("error"), WithTransport(transport))
	require.NoError(t, err)

	_, err = s.Deps().Tracker.Track(context.Background(), hit.New(hit.PageView))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Deps().Tracker.Pending())

	time.AfterFunc(20*time.Millisecond, transport.release)
	require.NoError(t, s.Close())
	assert.Equal(t, 0, s.Deps().Tracker.Pending())
	assert.True(t, transport.closed)
}

func TestServer_ShutdownReportsUndeliveredHits(t *testing.T) {
	t.Setenv("GA_TRACKING_ID", "UA-1234-1")

	transport := &heldTransport{}
	s, err := NewServer(nil, WithLogLevel("error"), WithTransport(transport))
	require.NoError(t, err)

	_, err = s.Deps().Tracker.Track(context.Background(), hit.New(hit.PageView))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)
	transport.release()
}

func toolNames(t *testing.T, cs *sdkmcp.ClientSession) []string {
	t.Helper()
	list, err := cs.ListTools(context.Background(), &sdkmcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNewServer_Extensions(t *testing.T) {
	t.Setenv("GA_TRACKING_ID", "UA-1234-1")

	type channelOutput struct {
		Channels []string `json:"channels,omitzero"`
	}

	s, err := NewServer(nil,
		WithLogLevel("error"),
		WithTransport(&heldTransport{}),
		WithoutBuiltinTools(),
		WithoutBuiltinResources(),
		WithoutBuiltinPrompts(),
		WithTool(
			&sdkmcp.Tool{Name: "list_channels", Description: "Campaign channels"},
			func(context.Context, *sdkmcp.CallToolRequest, struct{}) (*sdkmcp.CallToolResult, channelOutput, error) {
				return nil, channelOutput{Channels: []string{"email", "cpc"}}, nil
			},
		),
		WithPrompt(
			&sdkmcp.Prompt{Name: "naming_guide", Description: "Event naming conventions"},
			func(context.Context, *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
				return &sdkmcp.GetPromptResult{
					Messages: []*sdkmcp.PromptMessage{
						{Role: "user", Content: &sdkmcp.TextContent{Text: "Use snake_case event actions."}},
					},
				}, nil
			},
		),
		WithResourceTemplate(
			&sdkmcp.ResourceTemplate{URITemplate: "house://property/{name}", Name: "Property", MIMEType: "text/plain"},
			func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
				if req.Params.URI != "house://property/web" {
					return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
				}
				return &sdkmcp.ReadResourceResult{
					Contents: []*sdkmcp.ResourceContents{{URI: req.Params.URI, MIMEType: "text/plain", Text: "UA-1234-1"}},
				}, nil
			},
		),
	)
	require.NoError(t, err)
	defer s.Close()

	cs := connect(t, s)
	ctx := context.Background()

	assert.Equal(t, []string{"list_channels"}, toolNames(t, cs))

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_channels", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"email", "cpc"}, out["channels"])

	prompts, err := cs.ListPrompts(ctx, &sdkmcp.ListPromptsParams{})
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 1)
	assert.Equal(t, "naming_guide", prompts.Prompts[0].Name)

	prompt, err := cs.GetPrompt(ctx, &sdkmcp.GetPromptParams{Name: "naming_guide"})
	require.NoError(t, err)
	require.Len(t, prompt.Messages, 1)
	assert.Equal(t, "Use snake_case event actions.", prompt.Messages[0].Content.(*sdkmcp.TextContent).Text)

	read, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "house://property/web"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "UA-1234-1", read.Contents[0].Text)

	_, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "house://property/app"})
	assert.Error(t, err)

	// builtin resources are gone too
	_, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "gatrack://catalog"})
	assert.Error(t, err)
}

// countingRoundTripper answers every request with 200 and counts them.
type countingRoundTripper struct {
	mu    sync.Mutex
	calls int
}

func (c *countingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestNewServer_WithHTTPClient(t *testing.T) {
	t.Setenv("GA_TRACKING_ID", "UA-1234-1")

	rt := &countingRoundTripper{}
	s, err := NewServer(nil, WithLogLevel("error"), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = s.Deps().Tracker.Track(context.Background(), hit.New(hit.PageView))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	rt.mu.Lock()
	defer rt.mu.Unlock()
	assert.Equal(t, 1, rt.calls)

	rec, ok := s.Deps().HitLog.Get("hit-0")
	require.True(t, ok)
	assert.Equal(t, 200, rec.StatusCode)
}
