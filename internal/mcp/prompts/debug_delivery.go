package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleDebugDelivery implements the delivery debugging workflow.
func HandleDebugDelivery(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		hitType := ""
		if args := req.Params.Arguments; args != nil {
			hitType = args["hit_type"]
		}

		filter := ""
		if hitType != "" {
			filter = fmt.Sprintf("hit_type: %q, ", hitType)
		}

		var sb strings.Builder

		sb.WriteString("# Debug Hit Delivery\n\n")
		sb.WriteString("You are debugging why analytics hits are rejected before sending or fail at the collector.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Check configuration** with `ga_get_configuration`\n")
		if !cfg.TrackingIDSet {
			sb.WriteString("   - No tracking id was configured at startup; every hit fails with `missing_required_parameter` on `tid` until one is set\n")
		}
		sb.WriteString("   - An empty `tracking_id` means the last id given was malformed (it must look like UA-1234-1)\n")
		sb.WriteString("   - `pending` above zero means deliveries are still in flight\n\n")
		sb.WriteString("2. **List failures**\n")
		sb.WriteString(fmt.Sprintf("   - `ga_recent_hits(%sstatus: \"failed\")`\n", filter))
		sb.WriteString("   - `error_code: transport_error` with a `status_code` means the collector answered with an error; without one the request never completed\n\n")
		sb.WriteString("3. **Look for oversized hits**\n")
		sb.WriteString(fmt.Sprintf("   - `ga_recent_hits(%sexpression: \"select(.warning) | {id, size, warning}\")`\n", filter))
		sb.WriteString("   - Oversized hits are still sent; the collector may drop them. Shorten text values or switch to POST\n\n")
		sb.WriteString("4. **Reproduce validation errors**\n")
		sb.WriteString("   - `ga_validate_hit` returns the first problem; `ga_validate_json_hit` returns all of them\n")
		sb.WriteString("   - `parameter_not_allowed_for_hit_type`: check `ga_list_parameters(hit_type)`\n")
		sb.WriteString("   - `invalid_parameter_type`: booleans are 1/0, currency needs 2 to 6 decimals, custom slots are 1..200\n\n")

		sb.WriteString("## JQ Quick Reference\n")
		sb.WriteString("- `.params[] | select(.key == \"ec\") | .value` - values of one parameter\n")
		sb.WriteString("- `select(.status == \"failed\") | {id, status_code, error}` - failure summary\n")
		sb.WriteString("- `.hit_type` with `deduplicate: true` - hit types seen\n")

		return &sdkmcp.GetPromptResult{
			Description: "Hit delivery debugging workflow",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
