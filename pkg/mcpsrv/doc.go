// Package mcpsrv provides an extensible MCP server for sending analytics hits.
//
// The server owns a tracker configured from environment variables, an HTTP
// transport delivering hits to the collector, and a bounded log of tracked
// hits. Builtin ga_* tools, gatrack:// resources and prompts expose them to
// MCP clients. Users can extend the server with custom tools, prompts, and
// resources using functional options.
//
// # Basic Usage
//
// Create a server with configuration from the environment (GA_TRACKING_ID,
// GA_ENDPOINT, ...):
//
//	server, err := mcpsrv.NewServer(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// Or pass a tracker configuration built in code; environment values are
// applied on top of it:
//
//	cfg := tracker.NewConfiguration()
//	cfg.SetTrackingID("UA-1234-1")
//	server, err := mcpsrv.NewServer(cfg)
//
// # Extension
//
// Add custom tools that track hits through the shared tracker:
//
//	type SignupInput struct {
//	    Plan string `json:"plan"`
//	}
//
//	type SignupOutput struct {
//	    Size int `json:"size"`
//	}
//
//	server, err := mcpsrv.NewServer(nil,
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "track_signup", Description: "Track a signup event"},
//	        func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in SignupInput) (*mcp.CallToolResult, SignupOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in SignupInput) (*mcp.CallToolResult, SignupOutput, error) {
//	                h := hit.New(hit.Event,
//	                    hit.P(hit.EventCategory, hit.Text("account")),
//	                    hit.P(hit.EventAction, hit.Text("signup")),
//	                    hit.P(hit.EventLabel, hit.Text(in.Plan)),
//	                )
//	                r, err := d.Tracker.Track(context.WithoutCancel(ctx), h)
//	                if err != nil {
//	                    return nil, SignupOutput{}, err
//	                }
//	                return nil, SignupOutput{Size: r.Size}, nil
//	            }
//	        },
//	    ),
//	)
//
// WithTool, WithPrompt and WithResourceTemplate add registrations that do
// not need the tracker. WithoutBuiltinTools, WithoutBuiltinResources and
// WithoutBuiltinPrompts drop builtin groups, for servers that expose only
// their own curated tools.
//
// # Configuration
//
// Configure logging and delivery:
//
//	server, err := mcpsrv.NewServer(nil,
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/gatrack-mcp.log"),
//	    mcpsrv.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
//	)
package mcpsrv
