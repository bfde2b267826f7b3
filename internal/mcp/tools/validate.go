package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/internal/schema"
)

// ValidateJSONHitInput is the input for ga_validate_json_hit.
type ValidateJSONHitInput struct {
	Hit string `json:"hit" jsonschema:"JSON object of wire keys to values, e.g. {\"t\": \"event\", \"ec\": \"video\", \"ea\": \"play\"}"`
}

// ToolValidateJSONHit validates a JSON hit object against the generated
// JSON Schema for its hit type, then against the catalog rules.
func ToolValidateJSONHit(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateJSONHitInput) (*sdkmcp.CallToolResult, schema.Result, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateJSONHitInput) (*sdkmcp.CallToolResult, schema.Result, error) {
		if strings.TrimSpace(input.Hit) == "" {
			return nil, schema.Result{}, ErrInvalidInput("hit is required")
		}
		return nil, *d.Schema.Validate([]byte(input.Hit)), nil
	}
}
