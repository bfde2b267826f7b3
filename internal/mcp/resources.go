package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/internal/mcp/tools"
	"github.com/usestring/gatrack/internal/schema"
	"github.com/usestring/gatrack/pkg/hit"
)

// Resource URI scheme: gatrack://
// Supported URIs:
//   gatrack://catalog
//   gatrack://schema/{hit_type}
//   gatrack://hit/{id}

const uriScheme = "gatrack://"

// registerResources registers resources, resource templates and their handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "catalog",
		Name:        "Parameter Catalog",
		Description: "Every measurement protocol parameter with kind, byte limit and allowed hit types. ga_list_parameters returns the same data filtered.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceCatalog)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "schema/{hit_type}",
		Name:        "Hit Schema",
		Description: "JSON Schema (draft 2020-12) for JSON hit objects of one hit type, as used by ga_validate_json_hit.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceSchema)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "hit/{id}",
		Name:        "Logged Hit",
		Description: "Full hit log record including the encoded payload and URL. ga_recent_hits already returns summaries; fetch this for the exact wire data.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceHit)
}

// Resource handlers

func (s *Server) handleResourceCatalog(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	content := map[string]any{
		"hit_types":  hit.HitTypeNames(),
		"parameters": tools.CatalogParameters(0, ""),
	}
	return toResourceResult(req.Params.URI, content)
}

func (s *Server) handleResourceSchema(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	t, err := hit.ParseHitType(params["hit_type"])
	if err != nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	doc, err := schema.ForHitType(t)
	if err != nil {
		return nil, err
	}

	return toResourceResult(req.Params.URI, doc)
}

func (s *Server) handleResourceHit(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if s.deps.HitLog == nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, ok := s.deps.HitLog.Get(params["id"])
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	return toResourceResult(req.Params.URI, rec)
}

// Helper functions

// parseResourceURI extracts parameters from a gatrack:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	path := strings.TrimPrefix(uri, uriScheme)
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		return nil, tools.ErrInvalidInput("empty resource path")
	}

	params := make(map[string]string)
	resourceType := parts[0]

	switch resourceType {
	case "catalog":

	case "schema":
		if len(parts) < 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("schema URI requires a hit type")
		}
		params["hit_type"] = parts[1]

	case "hit":
		if len(parts) < 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("hit URI requires a hit id")
		}
		params["id"] = parts[1]

	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", resourceType))
	}

	return params, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
