package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandlePlanInstrumentation implements the instrumentation planning workflow.
func HandlePlanInstrumentation(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments

		goals := ""
		platform := "web"
		if args != nil {
			if v, ok := args["goals"]; ok {
				goals = v
			}
			if v, ok := args["platform"]; ok && v != "" {
				platform = strings.ToLower(v)
			}
		}

		var sb strings.Builder

		// 1. Role/Persona
		sb.WriteString("# Plan Analytics Instrumentation\n\n")
		sb.WriteString("You are a web analytics engineer. Your goal is to turn measurement goals into a concrete list of ")
		sb.WriteString("measurement protocol hits, check each one against the parameter catalog, and send a sample of each.\n\n")

		if goals != "" {
			sb.WriteString(fmt.Sprintf("**Goals**: %s\n\n", goals))
		}

		// 2. Current setup
		sb.WriteString("## Current Setup\n\n")
		if cfg.TrackingIDSet {
			sb.WriteString("- A tracking id is configured.\n")
		} else {
			sb.WriteString("- **No tracking id is configured.** Hits cannot be built until one is set with `ga_configure(tracking_id: \"UA-XXXX-Y\")`.\n")
		}
		if cfg.RequestMethod != "" {
			sb.WriteString(fmt.Sprintf("- Hits are sent with %s", cfg.RequestMethod))
			if cfg.Endpoint != "" {
				sb.WriteString(fmt.Sprintf(" to %s", cfg.Endpoint))
			}
			sb.WriteString(".\n")
		}
		sb.WriteString("- Call `ga_get_configuration` for the live values.\n\n")

		// 3. Hit types
		sb.WriteString("## Choosing Hit Types\n\n")
		sb.WriteString("| Goal | Hit type | Required parameters |\n")
		sb.WriteString("|------|----------|---------------------|\n")
		if platform == "app" {
			sb.WriteString("| Screen views | `appview` | none (send `an`, `av`, `cd`) |\n")
		} else {
			sb.WriteString("| Page views | `pageview` | none (send `dp` or `dl`, `dt`) |\n")
		}
		sb.WriteString("| Interactions (play, click, download) | `event` | none (send `ec`, `ea`, optional `el`, `ev`) |\n")
		sb.WriteString("| Orders | `transaction` | `ti` |\n")
		sb.WriteString("| Order lines | `item` | `ti`, `in` |\n")
		sb.WriteString("| Likes and shares | `social` | `sn`, `sa`, `st` |\n")
		sb.WriteString("| Errors | `exception` | none (send `exd`, `exf`) |\n")
		sb.WriteString("| Performance | `timing` | none (send `utc`, `utv`, `utt`) |\n\n")

		// 4. Workflow
		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **List parameters** for each chosen hit type\n")
		sb.WriteString("   - `ga_list_parameters(hit_type: \"event\")` shows what an event may carry, with kinds and byte limits\n")
		sb.WriteString("   - Use custom dimensions `cd1`..`cd200` (text) and metrics `cm1`..`cm200` (integer) for anything the catalog lacks\n\n")
		sb.WriteString("2. **Validate** each planned hit\n")
		sb.WriteString("   - `ga_validate_hit(hit_type, params)` returns the first error with its code and key\n")
		sb.WriteString("   - `ga_validate_json_hit(hit: \"{...}\")` checks a JSON object and reports every violation at once\n\n")
		sb.WriteString("3. **Preview** the wire request\n")
		sb.WriteString("   - `ga_build_request(hit_type, params)` shows the exact body or URL and its size against the limit\n")
		sb.WriteString("   - Keep POST bodies under 8192 bytes and GET URLs under 2000 bytes\n\n")
		sb.WriteString("4. **Send a sample** of each hit\n")
		sb.WriteString("   - Call `ga_session(action: \"start\")` before the first hit of a visit\n")
		sb.WriteString("   - `ga_track_hit(hit_type, params, wait: true)` returns the delivery status\n")
		sb.WriteString("   - `ga_recent_hits(status: \"failed\")` lists anything the collector refused\n\n")

		// 5. Value rules
		sb.WriteString("## Value Rules\n\n")
		sb.WriteString("- **boolean**: `1` or `0`\n")
		sb.WriteString("- **integer**: decimal 64-bit integer, no leading zeros or plus sign\n")
		sb.WriteString("- **currency**: decimal with 2 to 6 fraction digits, e.g. `9.99`\n")
		sb.WriteString("- **text**: any string; byte limits count UTF-8 bytes\n")
		sb.WriteString("- `v`, `tid`, `cid` and `t` are filled in by the tracker; values you pass for them are replaced\n")

		return &sdkmcp.GetPromptResult{
			Description: "Instrumentation planning workflow",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
