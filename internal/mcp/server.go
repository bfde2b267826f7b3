package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/internal/mcp/prompts"
	"github.com/usestring/gatrack/internal/mcp/tools"
	"github.com/usestring/gatrack/pkg/tracker"
)

// Version is reported to clients in the initialize handshake.
const Version = "1.0.0"

// Capability selects a group of builtin registrations.
type Capability uint8

const (
	// Tools are the ga_* tools.
	Tools Capability = 1 << iota
	// Resources are the gatrack:// catalog, schema and hit resources.
	Resources
	// Prompts are plan_instrumentation and debug_delivery.
	Prompts

	AllCapabilities = Tools | Resources | Prompts
)

// Server exposes a tracker and its hit log over MCP.
type Server struct {
	mcpServer  *sdkmcp.Server
	deps       *tools.Deps
	caps       Capability
	extensions []func(*sdkmcp.Server)
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithCapabilities replaces the builtin groups to register. The default is
// AllCapabilities.
func WithCapabilities(c Capability) ServerOption {
	return func(s *Server) {
		s.caps = c
	}
}

// WithExtension adds a callback that registers extra tools, prompts or
// resources after the builtins.
func WithExtension(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) {
		s.extensions = append(s.extensions, fn)
	}
}

// NewServer creates the MCP server. deps must carry a tracker; the hit log
// and validators are required by the builtin tools and resources.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil || deps.Tracker == nil {
		return nil, fmt.Errorf("deps with a tracker is required")
	}

	s := &Server{deps: deps, caps: AllCapabilities}
	for _, opt := range opts {
		opt(s)
	}

	cfg := deps.Tracker.Configuration()
	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "gatrack-mcp", Version: Version},
		&sdkmcp.ServerOptions{Instructions: instructions(cfg, s.caps)},
	)
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	if s.caps&Tools != 0 {
		tools.Register(s.mcpServer, deps)
	}
	if s.caps&Resources != 0 {
		s.registerResources()
	}
	if s.caps&Prompts != 0 {
		prompts.Register(s.mcpServer, &prompts.Config{
			TrackingIDSet: cfg.TrackingID() != "",
			RequestMethod: cfg.RequestMethod(),
			Endpoint:      cfg.Endpoint(),
		})
	}

	for _, fn := range s.extensions {
		fn(s.mcpServer)
	}
	return s, nil
}

// instructions is the server-level guidance sent in the initialize result.
// It reflects the tracker configuration at startup.
func instructions(cfg *tracker.Configuration, caps Capability) string {
	var b strings.Builder
	b.WriteString("Sends Google Analytics measurement protocol hits to ")
	b.WriteString(cfg.Endpoint())
	b.WriteString(" using ")
	b.WriteString(cfg.RequestMethod())
	b.WriteString(".\n")

	if cfg.TrackingID() == "" {
		b.WriteString("No tracking id is configured: hits are rejected until ga_configure sets one.\n")
	}
	if caps&Tools != 0 {
		b.WriteString("Check hits with ga_validate_hit or ga_build_request before ga_track_hit; " +
			"ga_recent_hits shows delivery outcomes.\n")
	}
	if caps&Resources != 0 {
		b.WriteString("Read gatrack://catalog for parameter keys and limits.\n")
	}
	return b.String()
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer returns the underlying SDK server, for in-memory transports and
// other non-stdio use.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
