package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	// Prompt 1: Plan analytics instrumentation
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "plan_instrumentation",
		Description: "RECOMMENDED: Plan which hits and parameters to send for a web site or app, then validate and send a sample of each. Start here - walks through the catalog, validation and request preview tools.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "goals",
				Description: "What should be measured (e.g., 'video engagement and checkout revenue')",
				Required:    false,
			},
			{
				Name:        "platform",
				Description: "web or app (default: web)",
				Required:    false,
			},
		},
	}, HandlePlanInstrumentation(cfg))

	// Prompt 2: Debug hit delivery
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "debug_delivery",
		Description: "Find out why hits are rejected or not delivered: checks configuration, recent failures, oversized payloads and validation errors.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "hit_type",
				Description: "Focus on one hit type",
				Required:    false,
			},
		},
	}, HandleDebugDelivery(cfg))
}
