package mcpsrv

import (
	"context"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/internal/config"
	"github.com/usestring/gatrack/internal/mcp"
	"github.com/usestring/gatrack/internal/mcp/tools"
	"github.com/usestring/gatrack/pkg/tracker"
)

// serverConfig collects option values before NewServer wires the stack.
type serverConfig struct {
	config     *config.Config
	httpClient *http.Client
	transport  tracker.Transport

	logLevel string
	logFile  string

	// Builtin groups switched off by Without* options.
	disabled mcp.Capability

	// Registrations that only need the SDK server.
	extensions []func(*sdkmcp.Server)
	// Registrations that need the tracker, hit log or validators.
	depsExtensions []func(*sdkmcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithLogLevel overrides LOG_LEVEL (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile overrides LOG_FILE. Rotation settings still come from the
// environment.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.logFile = path
	}
}

// WithHTTPClient sets the HTTP client used to deliver hits. It replaces the
// default client built from HTTP_CLIENT_TIMEOUT_MS.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) {
		cfg.httpClient = c
	}
}

// WithTransport delivers hits through t instead of the builtin HTTP
// transport. WithHTTPClient has no effect when it is set. If t has a
// Close(context.Context) error method, Server.Close calls it.
func WithTransport(t tracker.Transport) Option {
	return func(cfg *serverConfig) {
		cfg.transport = t
	}
}

// WithoutBuiltinTools drops the ga_* tools. Hits can still be sent by custom
// tools through Deps.Tracker.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.disabled |= mcp.Tools
	}
}

// WithoutBuiltinResources drops the gatrack:// catalog, schema and hit
// resources.
func WithoutBuiltinResources() Option {
	return func(cfg *serverConfig) {
		cfg.disabled |= mcp.Resources
	}
}

// WithoutBuiltinPrompts drops plan_instrumentation and debug_delivery.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.disabled |= mcp.Prompts
	}
}

// WithTool registers a tool that needs nothing from the tracker, such as a
// static lookup. The output type is checked at registration: nil slices and
// maps must be tagged omitzero or omitempty.
//
//	type ChannelOutput struct {
//	    Channels []string `json:"channels,omitzero"`
//	}
//
//	mcpsrv.WithTool(
//	    &mcp.Tool{Name: "list_channels", Description: "Campaign channels used for cm"},
//	    func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ChannelOutput, error) {
//	        return nil, ChannelOutput{Channels: []string{"email", "social", "cpc"}}, nil
//	    },
//	)
func WithTool[In, Out any](tool *sdkmcp.Tool, handler func(context.Context, *sdkmcp.CallToolRequest, In) (*sdkmcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.extensions = append(cfg.extensions, func(srv *sdkmcp.Server) {
			tools.AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool registers a tool built from Deps, for tools that send hits or
// read the hit log. builder runs once, after the tracker exists.
//
//	mcpsrv.WithDepsTool(
//	    &mcp.Tool{Name: "track_checkout", Description: "Track a checkout step"},
//	    func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, StepInput) (*mcp.CallToolResult, StepOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, in StepInput) (*mcp.CallToolResult, StepOutput, error) {
//	            r, err := d.Tracker.Track(context.WithoutCancel(ctx), hit.New(hit.Event,
//	                hit.P(hit.EventCategory, hit.Text("checkout")),
//	                hit.P(hit.EventAction, hit.Text(in.Step)),
//	            ))
//	            if err != nil {
//	                return nil, StepOutput{}, err
//	            }
//	            return nil, StepOutput{Size: r.Size}, nil
//	        }
//	    },
//	)
func WithDepsTool[In, Out any](tool *sdkmcp.Tool, builder func(*Deps) func(context.Context, *sdkmcp.CallToolRequest, In) (*sdkmcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.depsExtensions = append(cfg.depsExtensions, func(srv *sdkmcp.Server, deps *Deps) {
			tools.AddTool(srv, tool, builder(deps))
		})
	}
}

// WithPrompt registers a prompt alongside (or instead of) the builtin ones,
// for example a house style guide for event naming.
func WithPrompt(prompt *sdkmcp.Prompt, handler func(context.Context, *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.extensions = append(cfg.extensions, func(srv *sdkmcp.Server) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a resource template. Templates outside the
// gatrack:// scheme avoid clashing with the builtin resources; a handler for
// an unknown id should return mcp.ResourceNotFoundError(uri).
func WithResourceTemplate(template *sdkmcp.ResourceTemplate, handler func(context.Context, *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.extensions = append(cfg.extensions, func(srv *sdkmcp.Server) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
