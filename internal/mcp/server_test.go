package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/gatrack/internal/config"
	"github.com/usestring/gatrack/internal/hitlog"
	"github.com/usestring/gatrack/internal/mcp/tools"
	"github.com/usestring/gatrack/internal/query"
	"github.com/usestring/gatrack/internal/schema"
	"github.com/usestring/gatrack/pkg/hit"
	"github.com/usestring/gatrack/pkg/tracker"
)

func newTestServer(t *testing.T) (*Server, *tools.Deps) {
	t.Helper()

	log, err := hitlog.New(8)
	require.NoError(t, err)
	validator, err := schema.NewValidator()
	require.NoError(t, err)

	cfg := tracker.NewConfiguration()
	cfg.SetTrackingID("UA-1234-1")

	// Deliveries complete immediately without touching the network.
	transport := tracker.TransportFunc(func(ctx context.Context, req *tracker.Request, done func(tracker.Outcome)) tracker.Handle {
		done(tracker.Outcome{Handle: 1, StatusCode: 200})
		return 1
	})

	deps := &tools.Deps{
		Tracker: tracker.New(cfg,
			tracker.WithTransport(transport),
			tracker.WithOnSubmit(log.Submitted),
			tracker.WithOnTracked(log.Tracked),
		),
		HitLog: log,
		Query:  query.NewEngine(),
		Schema: validator,
		Config: config.Load(),
	}

	srv, err := NewServer(deps)
	require.NoError(t, err)
	return srv, deps
}

func connect(t *testing.T, srv *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	ss, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestNewServer_RequiresTracker(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
	_, err = NewServer(&tools.Deps{})
	assert.Error(t, err)
}

func TestServer_ListsToolsAndPrompts(t *testing.T) {
	srv, _ := newTestServer(t)
	cs := connect(t, srv)
	ctx := context.Background()

	toolsRes, err := cs.ListTools(ctx, &sdkmcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range toolsRes.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"ga_list_parameters", "ga_validate_hit", "ga_validate_json_hit", "ga_build_request",
		"ga_track_hit", "ga_session", "ga_get_configuration", "ga_configure", "ga_recent_hits",
	}, names)

	promptsRes, err := cs.ListPrompts(ctx, &sdkmcp.ListPromptsParams{})
	require.NoError(t, err)
	require.Len(t, promptsRes.Prompts, 2)
}

func TestServer_CapabilitiesAndExtensions(t *testing.T) {
	_, deps := newTestServer(t)
	srv, err := NewServer(deps,
		WithCapabilities(Prompts),
		WithExtension(func(s *sdkmcp.Server) {
			s.AddTool(&sdkmcp.Tool{
				Name:        "hit_count",
				InputSchema: &jsonschema.Schema{Type: "object"},
			}, func(context.Context, *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
				return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: "0"}}}, nil
			})
		}),
	)
	require.NoError(t, err)
	cs := connect(t, srv)
	ctx := context.Background()

	toolsRes, err := cs.ListTools(ctx, &sdkmcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, toolsRes.Tools, 1)
	assert.Equal(t, "hit_count", toolsRes.Tools[0].Name)

	promptsRes, err := cs.ListPrompts(ctx, &sdkmcp.ListPromptsParams{})
	require.NoError(t, err)
	assert.Len(t, promptsRes.Prompts, 2)

	_, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "gatrack://catalog"})
	assert.Error(t, err)
}

func TestInstructions(t *testing.T) {
	cfg := tracker.NewConfiguration()
	cfg.SetRequestMethod("GET")

	text := instructions(cfg, AllCapabilities)
	assert.Contains(t, text, tracker.NormalEndpoint+" using GET")
	assert.Contains(t, text, "No tracking id is configured")
	assert.Contains(t, text, "ga_track_hit")
	assert.Contains(t, text, "gatrack://catalog")

	cfg.SetTrackingID("UA-1234-1")
	text = instructions(cfg, Prompts)
	assert.NotContains(t, text, "No tracking id")
	assert.NotContains(t, text, "ga_track_hit")
	assert.NotContains(t, text, "gatrack://catalog")
}

func TestServer_TrackHitThroughProtocol(t *testing.T) {
	srv, deps := newTestServer(t)
	cs := connect(t, srv)
	ctx := context.Background()

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "ga_track_hit",
		Arguments: map[string]any{
			"hit_type": "event",
			"params":   []map[string]string{{"key": "ec", "value": "video"}},
			"wait":     true,
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, 1, deps.HitLog.Len())

	res, err = cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "ga_track_hit",
		Arguments: map[string]any{"hit_type": "social"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, 1, deps.HitLog.Len())
}

func TestServer_Resources(t *testing.T) {
	srv, deps := newTestServer(t)
	cs := connect(t, srv)
	ctx := context.Background()

	catalog, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "gatrack://catalog"})
	require.NoError(t, err)
	require.Len(t, catalog.Contents, 1)
	var content struct {
		HitTypes   []string          `json:"hit_types"`
		Parameters []json.RawMessage `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal([]byte(catalog.Contents[0].Text), &content))
	assert.Len(t, content.HitTypes, 8)
	assert.Len(t, content.Parameters, len(hit.Descriptors()))

	doc, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "gatrack://schema/item"})
	require.NoError(t, err)
	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Contents[0].Text), &s))
	assert.Equal(t, []any{"t", "ti", "in"}, s["required"])

	_, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "gatrack://schema/click"})
	assert.Error(t, err)

	_, err = deps.Tracker.Track(ctx, hit.New(hit.PageView))
	require.NoError(t, err)
	rec, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "gatrack://hit/hit-0"})
	require.NoError(t, err)
	assert.Contains(t, rec.Contents[0].Text, `"hit_type": "pageview"`)

	_, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "gatrack://hit/hit-99"})
	assert.Error(t, err)
}

func TestParseResourceURI(t *testing.T) {
	params, err := parseResourceURI("gatrack://schema/event")
	require.NoError(t, err)
	assert.Equal(t, "event", params["hit_type"])

	params, err = parseResourceURI("gatrack://hit/hit-3")
	require.NoError(t, err)
	assert.Equal(t, "hit-3", params["id"])

	_, err = parseResourceURI("gatrack://catalog")
	assert.NoError(t, err)

	for _, bad := range []string{"http://hit/1", "gatrack://", "gatrack://hit/", "gatrack://schema", "gatrack://flow/1"} {
		_, err := parseResourceURI(bad)
		assert.Error(t, err, bad)
	}
}
