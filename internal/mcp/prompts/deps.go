// Package prompts contains MCP prompt implementations for gatrack.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	TrackingIDSet bool
	RequestMethod string
	Endpoint      string
}
