package mcpsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/internal/config"
	"github.com/usestring/gatrack/internal/hitlog"
	"github.com/usestring/gatrack/internal/logging"
	"github.com/usestring/gatrack/internal/mcp"
	"github.com/usestring/gatrack/internal/query"
	"github.com/usestring/gatrack/internal/schema"
	"github.com/usestring/gatrack/pkg/tracker"
)

// transportCloser is implemented by transports that hold delivery goroutines.
type transportCloser interface {
	Close(ctx context.Context) error
}

// Server is the gatrack MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	transport  tracker.Transport
	deps       *Deps
	drain      time.Duration
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin ga_* tools.
//
// trackerCfg is the starting tracker configuration; nil starts from
// tracker.NewConfiguration. Settings from the environment (GA_TRACKING_ID,
// GA_ENDPOINT, ...) are applied on top of it.
// Use functional options to configure logging, add custom tools, etc.
func NewServer(trackerCfg *tracker.Configuration, opts ...Option) (*Server, error) {
	// Build configuration from options
	cfg := &serverConfig{
		config: config.Load(), // Load defaults from environment
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// Setup logging
	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		Format:     cfg.config.LogFormat,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	if trackerCfg == nil {
		trackerCfg = tracker.NewConfiguration()
	} else {
		trackerCfg = trackerCfg.Clone()
	}
	cfg.config.Apply(trackerCfg)

	// Create infrastructure
	transport := cfg.transport
	if transport == nil {
		httpClient := cfg.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.config.HTTPClientTimeout}
		}
		transport = tracker.NewHTTPTransport(
			tracker.WithHTTPClient(httpClient),
			tracker.WithMaxInFlight(cfg.config.TransportMaxInFlight),
		)
	}

	hits, err := hitlog.New(cfg.config.HitLogMaxItems)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create hit log: %w", err), logCleanup())
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to compile hit schemas: %w", err), logCleanup())
	}

	t := tracker.New(trackerCfg,
		tracker.WithTransport(transport),
		tracker.WithOnSubmit(hits.Submitted),
		tracker.WithOnTracked(hits.Tracked),
	)
	queryEngine := query.NewEngine()

	if trackerCfg.TrackingID() == "" {
		slog.Warn("no tracking id configured, hits are rejected until ga_configure sets one")
	}
	slog.Info("tracker configured",
		slog.String("tracking_id", trackerCfg.TrackingID()),
		slog.String("endpoint", trackerCfg.Endpoint()),
		slog.String("method", trackerCfg.RequestMethod()),
	)

	deps := &Deps{
		Tracker: t,
		HitLog:  hits,
		Query:   queryEngine,
		Schema:  validator,
		Config:  cfg.config,
	}

	internalOpts := []mcp.ServerOption{
		mcp.WithCapabilities(mcp.AllCapabilities &^ cfg.disabled),
	}
	for _, fn := range cfg.extensions {
		internalOpts = append(internalOpts, mcp.WithExtension(fn))
	}
	for _, fn := range cfg.depsExtensions {
		internalOpts = append(internalOpts, mcp.WithExtension(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	// Create internal server
	internal, err := mcp.NewServer(deps, internalOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create server: %w", err), logCleanup())
	}

	return &Server{
		internal:   internal,
		transport:  transport,
		deps:       deps,
		drain:      cfg.config.HTTPClientTimeout,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close waits for hits still in flight, stops the transport, and cleans up
// logging. Waiting is bounded by HTTP_CLIENT_TIMEOUT_MS.
func (s *Server) Close() error {
	ctx := context.Background()
	if s.drain > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.drain)
		defer cancel()
	}
	return s.Shutdown(ctx)
}

// Shutdown is Close with a caller supplied deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if pending := s.deps.Tracker.Pending(); pending > 0 {
		slog.Info("waiting for pending hits", slog.Int("pending", pending))
	}
	if err := s.deps.Tracker.Wait(ctx); err != nil {
		slog.Warn("hits still pending at shutdown",
			slog.Int("pending", s.deps.Tracker.Pending()),
			slog.String("error", err.Error()),
		)
		errs = append(errs, err)
	}
	if c, ok := s.transport.(transportCloser); ok {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.logCleanup != nil {
		if err := s.logCleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying SDK server, for serving it over a
// transport other than stdio.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
