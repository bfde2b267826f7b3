package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: ga_list_parameters
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_list_parameters",
		Description: "List the measurement protocol parameter catalog: wire key, kind (text, boolean, integer, currency), byte limit, allowed hit types and whether it is required. Filter by hit_type to see what a hit of that type may carry. Indexed keys (cd<N>, cm<N>) accept slots 1..200.",
	}, ToolListParameters(d))

	// Tool 2: ga_validate_hit
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_validate_hit",
		Description: "Check a hit against the parameter catalog without sending it. Returns {valid, error_code, error, key}. Error codes: missing_hit_type, missing_required_parameter, invalid_parameter_type, parameter_too_long, parameter_not_allowed_for_hit_type.",
	}, ToolValidateHit(d))

	// Tool 3: ga_validate_json_hit
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_validate_json_hit",
		Description: "Validate a JSON hit object such as {\"t\": \"event\", \"ec\": \"video\", \"ea\": \"play\"} against the JSON Schema for its hit type (see gatrack://schema/{hit_type}), then against the catalog byte limits. Returns every schema violation, sorted by path.",
	}, ToolValidateJSONHit(d))

	// Tool 4: ga_build_request
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_build_request",
		Description: "Build the HTTP request a hit would produce with the current configuration, without sending it. Returns method, url, headers, body, size against the collector limit (8192 byte POST body, 2000 byte GET URL) and the decoded params in wire order. The pending session flag is shown but not consumed.",
	}, ToolBuildRequest(d))

	// Tool 5: ga_track_hit
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_track_hit",
		Description: "Validate, build and send a hit to the collector. Returns the hit log id and delivery status. Set wait=true to wait for the collector's answer. Oversized hits are sent anyway and carry a warning. Consumes the pending session flag.",
	}, ToolTrackHit(d))

	// Tool 6: ga_session
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_session",
		Description: "Read or set the session flag attached to the next tracked hit (sc=start or sc=end). The flag clears after one hit.",
	}, ToolSession(d))

	// Tool 7: ga_get_configuration
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_get_configuration",
		Description: "Get the tracker configuration: tracking id, client id, endpoint, user agent, request method, cache busting, IP anonymization, session flag and in-flight hit count.",
	}, ToolGetConfiguration(d))

	// Tool 8: ga_configure
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_configure",
		Description: "Update the tracker configuration. Only provided fields change. Values the tracker refuses (malformed tracking id, non-v4 client id, non-http endpoint, methods other than POST/GET) are listed in rejected; an invalid tracking id clears it.",
	}, ToolConfigure(d))

	// Tool 9: ga_recent_hits
	AddTool(srv, &sdkmcp.Tool{
		Name:        "ga_recent_hits",
		Description: "List recently tracked hits, newest first, with delivery status. Filter by hit_type and status (pending, delivered, failed). Pass a jq expression to extract values from each record, e.g. `select(.status == \"failed\") | {id, error}` or `.params[] | select(.key == \"ec\") | .value`.",
	}, ToolRecentHits(d))
}
