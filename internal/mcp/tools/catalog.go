package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/gatrack/pkg/hit"
)

// ParameterInfo describes one catalog parameter.
type ParameterInfo struct {
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	MaxLength int    `json:"max_length,omitempty"`
	HitTypes  string `json:"hit_types"`
	Required  bool   `json:"required,omitempty"`
	Indexed   bool   `json:"indexed,omitempty"`
}

// CatalogParameters lists catalog parameters. A zero t lists all of them;
// otherwise only those allowed for t, with Required scoped to t. A non-empty
// kind keeps only parameters of that kind.
func CatalogParameters(t hit.HitType, kind string) []ParameterInfo {
	descs := hit.Descriptors()
	out := make([]ParameterInfo, 0, len(descs))
	for _, d := range descs {
		if t != 0 && !d.Allowed.Contains(t) {
			continue
		}
		if kind != "" && d.Kind.String() != kind {
			continue
		}
		info := ParameterInfo{
			Key:       d.Key,
			Kind:      d.Kind.String(),
			MaxLength: d.MaxLength,
			HitTypes:  d.Allowed.String(),
			Required:  d.Required,
			Indexed:   d.Indexed(),
		}
		if info.Indexed {
			info.Key += "<N>"
		}
		out = append(out, info)
	}
	return out
}

// ListParametersInput is the input for ga_list_parameters.
type ListParametersInput struct {
	HitType string `json:"hit_type,omitempty" jsonschema:"Only list parameters allowed for this hit type"`
	Kind    string `json:"kind,omitempty" jsonschema:"Only list parameters of this kind: text, boolean, integer or currency"`
}

// ListParametersOutput is the output for ga_list_parameters.
type ListParametersOutput struct {
	HitTypes   []string        `json:"hit_types,omitzero"`
	Parameters []ParameterInfo `json:"parameters,omitzero"`
}

// ToolListParameters lists the parameter catalog.
func ToolListParameters(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListParametersInput) (*sdkmcp.CallToolResult, ListParametersOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListParametersInput) (*sdkmcp.CallToolResult, ListParametersOutput, error) {
		var t hit.HitType
		if input.HitType != "" {
			var err error
			if t, err = hit.ParseHitType(input.HitType); err != nil {
				return nil, ListParametersOutput{}, ErrInvalidInput(err.Error())
			}
		}
		switch input.Kind {
		case "", "text", "boolean", "integer", "currency":
		default:
			return nil, ListParametersOutput{}, ErrInvalidInput("kind must be 'text', 'boolean', 'integer' or 'currency'")
		}

		return nil, ListParametersOutput{
			HitTypes:   hit.HitTypeNames(),
			Parameters: CatalogParameters(t, input.Kind),
		}, nil
	}
}
